package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"loanflow/pkg/validate"

	"github.com/go-playground/validator/v10"
)

const (
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"
	HeaderClientID  = "Ax-Client-Id"
	// HeaderReplay marks a response served from the idempotency store.
	HeaderReplay = "Ax-Idempotent-Replay"
	// HeaderLoanStatus carries the loan status the stored response reported.
	HeaderLoanStatus = "Ax-Loan-Status"
)

type axHeaders struct {
	RequestID string `validate:"required,uuid|hex32"`
	RequestAt string `validate:"required"`
	ClientID  string `validate:"required,hex32"`

	at time.Time
}

var headerNames = map[string]string{
	"RequestID": HeaderRequestID,
	"RequestAt": HeaderRequestAt,
	"ClientID":  HeaderClientID,
}

func readHeaders(get func(string) string) (axHeaders, error) {
	h := axHeaders{
		RequestID: strings.TrimSpace(get(HeaderRequestID)),
		RequestAt: strings.TrimSpace(get(HeaderRequestAt)),
		ClientID:  strings.TrimSpace(get(HeaderClientID)),
	}
	if err := validate.Default().Struct(h); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			name := headerNames[ve[0].Field()]
			if ve[0].Tag() == "required" {
				return h, errors.New("missing " + name)
			}
			return h, errors.New("invalid " + name)
		}
		return h, err
	}
	at, err := requestTime(h.RequestAt)
	if err != nil {
		return h, err
	}
	h.at = at
	return h, nil
}

// requestTime accepts epoch seconds, epoch milliseconds, or RFC3339 with a
// zone. Timestamps without a zone are rejected.
func requestTime(raw string) (time.Time, error) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
	}
	return t.UTC(), nil
}
