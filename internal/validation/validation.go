// Package validation checks form input before it reaches a state service.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	expiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvRe    = regexp.MustCompile(`^\d{3,4}$`)
)

var (
	validate = newValidator()
	// digits runs built-in checks on behalf of the custom tags.
	digits = validator.New()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	must(v.RegisterValidation("luhn", func(fl validator.FieldLevel) bool { return Luhn(fl.Field().String()) }))
	must(v.RegisterValidation("expiry", func(fl validator.FieldLevel) bool { return ValidExpiry(fl.Field().String()) }))
	must(v.RegisterValidation("cvv", func(fl validator.FieldLevel) bool { return ValidCVV(fl.Field().String()) }))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Errors maps a JSON field name to a human message.
type Errors struct {
	Fields map[string]string `json:"fields"`
}

func (e *Errors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Struct validates s by its `validate` tags. Rule failures come back as
// *Errors; anything else is a programming error and is returned as is.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	out := &Errors{Fields: make(map[string]string, len(ve))}
	for _, fe := range ve {
		if _, seen := out.Fields[fe.Field()]; !seen {
			out.Fields[fe.Field()] = message(fe)
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "eqfield":
		return "does not match"
	case "luhn":
		return "is not a valid card number"
	case "expiry":
		return "must be MM/YY"
	case "cvv":
		return "must be 3 or 4 digits"
	}
	return "is invalid"
}

// Digits strips everything but 0-9.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Luhn reports whether s, ignoring non-digits, is 13 to 19 digits with a
// valid Luhn checksum.
func Luhn(s string) bool {
	d := Digits(s)
	if len(d) < 13 || len(d) > 19 {
		return false
	}
	return digits.Var(d, "luhn_checksum") == nil
}

func ValidExpiry(s string) bool { return expiryRe.MatchString(s) }

func ValidCVV(s string) bool { return cvvRe.MatchString(s) }
