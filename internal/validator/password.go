package validator

import (
	"strings"
	"unicode"
)

const (
	PasswordMinLength = 8
	PasswordMaxLength = 128

	// PasswordSymbols is the set of characters that satisfy the symbol rule.
	PasswordSymbols = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?`~"
)

// PasswordStrength is the outcome of CheckPassword. Errors lists every violated
// rule, not just the first.
type PasswordStrength struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

// CheckPassword evaluates pw against all strength rules.
func CheckPassword(pw string) PasswordStrength {
	var errs []string

	if n := len([]rune(pw)); n < PasswordMinLength || n > PasswordMaxLength {
		errs = append(errs, "Password must be between 8 and 128 characters long")
	}

	var lower, upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	if !lower {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if !upper {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if !digit {
		errs = append(errs, "Password must contain at least one number")
	}
	if !symbol {
		errs = append(errs, "Password must contain at least one special character")
	}

	return PasswordStrength{IsValid: len(errs) == 0, Errors: errs}
}
