// Package validation holds the shared validator instance and the custom
// rules used by both the HTTP layer and the core services.
package validation

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest password the strongpassword rule accepts.
const MinPasswordLength = 8

// MaxPasswordBytes is the bcrypt input limit.
const MaxPasswordBytes = 72

var std = New()

// New returns a validator with the strongpassword tag registered and field
// names reported by their json tag.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	return v
}

// Email reports whether s is a syntactically valid address.
func Email(s string) bool {
	return std.Var(s, "required,email") == nil
}

// StrongPassword requires MinPasswordLength characters with at least one
// upper case letter, lower case letter, digit and non-alphanumeric symbol.
// Anything over MaxPasswordBytes is rejected since bcrypt cannot hash it.
func StrongPassword(s string) bool {
	if len([]rune(s)) < MinPasswordLength || len(s) > MaxPasswordBytes {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && lower && digit && special
}
