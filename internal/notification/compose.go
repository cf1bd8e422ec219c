package notification

import (
	"fmt"
	"strings"
	"time"
)

// Borrower is who a loan notice is addressed to.
type Borrower struct {
	Name  string
	Email string
}

// Composer builds the borrower notices sent after a loan status change.
type Composer struct {
	cache   *TemplateCache
	product string
}

func NewComposer(cache *TemplateCache, product string) *Composer {
	if product == "" {
		product = "Loanflow"
	}
	return &Composer{cache: cache, product: product}
}

func (c *Composer) Approval(to Borrower, loanID, cantity string) (Message, error) {
	src := fmt.Sprintf(`Hello %s,

Your loan application **%s** for **%s** has been **approved**.

We will let you know as soon as the funds are disbursed.

The %s team`, escapeMD(to.Name), loanID, cantity, c.product)
	return c.build(to, fmt.Sprintf("Your loan %s was approved", loanID), src)
}

func (c *Composer) Renegotiation(to Borrower, loanID, oldCantity, newCantity, reason, employee string) (Message, error) {
	src := fmt.Sprintf(`Hello %s,

%s reviewed your loan application **%s** and proposes a new amount.

| Requested | Proposed |
|---|---|
| %s | %s |

Reason: %s

Please accept or decline the proposal from your account.

The %s team`, escapeMD(to.Name), escapeMD(employee), loanID, oldCantity, newCantity, escapeMD(reason), c.product)
	return c.build(to, fmt.Sprintf("New amount proposed for loan %s", loanID), src)
}

func (c *Composer) Rejection(to Borrower, loanID, reason string) (Message, error) {
	src := fmt.Sprintf(`Hello %s,

The documents for your loan application **%s** could not be accepted.

Reason: %s

Documents generated for this application have been removed. You can upload new ones at any time.

The %s team`, escapeMD(to.Name), loanID, escapeMD(reason), c.product)
	return c.build(to, fmt.Sprintf("Documents rejected for loan %s", loanID), src)
}

func (c *Composer) Disbursement(to Borrower, loanID, cantity, account string, at time.Time) (Message, error) {
	// code span so the mask is not read as emphasis
	src := fmt.Sprintf("Hello %s,\n\n**%s** from loan **%s** was disbursed on %s to account `%s`.\n\nThe %s team",
		escapeMD(to.Name), cantity, loanID, at.UTC().Format("2006-01-02 15:04 MST"), MaskAccount(account), c.product)
	return c.build(to, fmt.Sprintf("Loan %s disbursed", loanID), src)
}

func (c *Composer) build(to Borrower, subject, src string) (Message, error) {
	html, err := c.cache.Render(src)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to.Email, Subject: subject, HTML: html}, nil
}

// mdPunct is the set of characters markdown lets a backslash escape.
const mdPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// escapeMD makes borrower and staff supplied text inert inside the markdown
// source. Line breaks collapse to spaces.
func escapeMD(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(mdPunct, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MaskAccount keeps the last four characters visible.
func MaskAccount(account string) string {
	account = strings.ReplaceAll(strings.TrimSpace(account), " ", "")
	if len(account) <= 4 {
		return strings.Repeat("*", len(account))
	}
	return strings.Repeat("*", len(account)-4) + account[len(account)-4:]
}
