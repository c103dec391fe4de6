package validate

import (
	"regexp"
	"strings"
)

var (
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reRef   = regexp.MustCompile(`^REF-[A-F0-9]{6}$`)
	reLast4 = regexp.MustCompile(`^[0-9]{4}$`)
)

// ID validates a simple resource identifier (product/transaction ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Email applies the checkout rule: non-empty and contains "@". The
// payment form owns stricter checks; the backend only refuses values
// that cannot possibly be an address.
func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && strings.Contains(s, "@")
}

// Reference validates a human-facing order code (REF- + 6 hex chars).
func Reference(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reRef.MatchString(s)
}

// CardLast4 validates the stored tail of a card number.
func CardLast4(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reLast4.MatchString(s)
}
