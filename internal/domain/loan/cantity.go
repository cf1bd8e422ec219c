package loan

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ValidateCantity checks that s is a positive decimal amount. The caller keeps
// the original string; the parsed value is only used for the check.
func ValidateCantity(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrInvalidCantity
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return ErrInvalidCantity
	}
	return nil
}
