package validator

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Required fails when value is empty after trimming whitespace.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "field is required"},
	}
}

// MaxLen fails when value has more than max characters.
func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= max },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters long", max)},
	}
}

// RequiredMap fails when m is nil. An empty, non-nil map passes.
func RequiredMap[K comparable, V any](field string, m map[K]V) Rule {
	return Rule{
		Check: func() bool { return m != nil },
		Error: ValidationError{Field: field, Message: "field is required"},
	}
}

// ValidEmail fails unless value is a bare RFC 5322 address whose domain has
// at least two non-empty labels.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool { return isEmail(value) },
		Error: ValidationError{Field: field, Message: "must be a valid email address"},
	}
}

func isEmail(value string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}

	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return false
	}

	local, domain, ok := strings.Cut(addr.Address, "@")
	if !ok || local == "" {
		return false
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" {
			return false
		}
	}
	return true
}
