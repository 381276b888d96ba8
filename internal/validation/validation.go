// Package validation builds the request validator used by the HTTP layer.
package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// PasswordSpecialChars lists the characters accepted as the required special character.
const PasswordSpecialChars = "@#$%^&+="

// PasswordMinLength is the shortest password accepted.
const PasswordMinLength = 8

// PasswordMaxBytes is the longest password bcrypt can hash.
const PasswordMaxBytes = 72

// New returns a validator with the directory's custom rules registered.
func New() *validator.Validate {
	v := validator.New()
	// Registration only fails for an empty tag or a nil func.
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return ValidPassword(fl.Field().String())
	})
	return v
}

// ValidPassword reports whether s has at least PasswordMinLength characters and at most
// PasswordMaxBytes bytes, a digit, a lowercase letter, an uppercase letter, one of
// PasswordSpecialChars and no whitespace.
func ValidPassword(s string) bool {
	if utf8.RuneCountInString(s) < PasswordMinLength || len(s) > PasswordMaxBytes {
		return false
	}
	var digit, lower, upper, special bool
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			return false
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case strings.ContainsRune(PasswordSpecialChars, r):
			special = true
		}
	}
	return digit && lower && upper && special
}
