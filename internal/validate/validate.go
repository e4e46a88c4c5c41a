package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reEmail   = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID      = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reSize    = regexp.MustCompile(`^[A-Za-z0-9]{1,10}$`)
	rePhone   = regexp.MustCompile(`^\+?[0-9 ()-]{7,20}$`)
	reCountry = regexp.MustCompile(`^[A-Z]{2}$`)
	reStatus  = regexp.MustCompile(`^(processing|paid|shipped|cancelled)$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// ID validates a simple resource identifier (product ids, order numbers).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Size validates a variant size label like "250g" or "1kg".
func Size(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reSize.MatchString(s)
}

// Quantity parses a non-negative quantity. Zero is a valid absolute
// quantity on update (it deletes the line); add paths reject it later.
func Quantity(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > 999 {
		return 0, false
	}
	return n, true
}

func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 50 {
		return "", false
	}
	return s, true
}

func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && rePhone.MatchString(s)
}

// Country expects an ISO 3166-1 alpha-2 code.
func Country(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reCountry.MatchString(s)
}

// Optional trims a free-text field and enforces a max length; empty is fine.
func Optional(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	return s, len(s) <= max
}

func Required(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > max {
		return "", false
	}
	return s, true
}

func OrderStatus(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reStatus.MatchString(s)
}

func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
