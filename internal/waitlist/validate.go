package waitlist

import (
	"errors"
	"strings"
	"unicode"
)

var ErrInvalidEmail = errors.New("invalid email")

// Normalize trims the surrounding whitespace a form input usually carries.
func Normalize(email string) string {
	return strings.TrimSpace(email)
}

// Validate applies a syntactic check only: one @, a non-empty local part, and
// a domain with at least one dot that has a label on each side. No whitespace
// is allowed once surrounding spaces are trimmed.
func Validate(email string) error {
	email = Normalize(email)
	if email == "" || strings.IndexFunc(email, unicode.IsSpace) >= 0 {
		return ErrInvalidEmail
	}
	if strings.Count(email, "@") != 1 {
		return ErrInvalidEmail
	}

	local, domain, _ := strings.Cut(email, "@")
	if local == "" {
		return ErrInvalidEmail
	}
	for i := 1; i < len(domain)-1; i++ {
		if domain[i] == '.' {
			return nil
		}
	}
	return ErrInvalidEmail
}
