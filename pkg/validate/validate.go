// Package validate holds the one validator instance shared by the HTTP
// layer, the usecases and the idempotency middleware, with the loan tags
// registered on it.
package validate

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

var std = New()

// Default returns the shared instance. validator.Validate is safe for
// concurrent use once its tags are registered.
func Default() *validator.Validate { return std }

// Var checks a single value against tag on the shared instance.
func Var(v any, tag string) error { return std.Var(v, tag) }

// New builds a validator with the custom tags:
//
//	hex32   32-char lowercase hex id
//	posdec  positive decimal amount kept as a string
//	dec2    at most 2 decimal places
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("hex32", func(fl validator.FieldLevel) bool {
		return reHex32.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("posdec", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil && d.IsPositive()
	})
	_ = v.RegisterValidation("dec2", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil && d.Equal(d.Round(2))
	})
	return v
}
