package reset

import (
	"strings"
	"unicode"

	dErrors "podium/pkg/domain-errors"
)

const MinPasswordLength = 8

// CheckPassword enforces the complexity policy: at least MinPasswordLength
// characters with an upper case letter, a lower case letter and a digit.
func CheckPassword(password string) error {
	var missing []string
	if len([]rune(password)) < MinPasswordLength {
		missing = append(missing, "at least 8 characters")
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		missing = append(missing, "an uppercase letter")
	}
	if !lower {
		missing = append(missing, "a lowercase letter")
	}
	if !digit {
		missing = append(missing, "a number")
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeWeakPassword, "password must contain "+strings.Join(missing, ", "))
	}
	return nil
}
