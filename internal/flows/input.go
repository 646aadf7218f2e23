package flows

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Limits bounds caller-supplied credentials.
type Limits struct {
	MaxEmailLength    int
	MinPasswordLength int
	MaxPasswordLength int
	MaxNameLength     int
	CodeDigits        int
}

func (l Limits) withDefaults() Limits {
	if l.MaxEmailLength <= 0 {
		l.MaxEmailLength = 255
	}
	if l.MinPasswordLength <= 0 {
		l.MinPasswordLength = 6
	}
	if l.MaxPasswordLength <= 0 {
		l.MaxPasswordLength = 128
	}
	if l.MaxNameLength <= 0 {
		l.MaxNameLength = 255
	}
	if l.CodeDigits <= 0 {
		l.CodeDigits = 6
	}
	return l
}

// NormalizeEmail returns the lower-cased bare address when raw is a single
// syntactically valid address no longer than maxLen.
func NormalizeEmail(raw string, maxLen int) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxLen {
		return "", false
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", false
	}
	// Display-name forms such as "Bob <bob@example.com>" are rejected.
	if addr.Name != "" || addr.Address != raw {
		return "", false
	}
	return strings.ToLower(addr.Address), true
}

// ValidPassword checks the length in runes.
func ValidPassword(password string, l Limits) bool {
	n := utf8.RuneCountInString(password)
	return n >= l.MinPasswordLength && n <= l.MaxPasswordLength
}

// ValidCode reports whether code is exactly digits ASCII digits.
func ValidCode(code string, digits int) bool {
	if len(code) != digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// NormalizeName trims a display name and checks its length in runes.
func NormalizeName(name string, maxLen int) (string, bool) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxLen {
		return "", false
	}
	return name, true
}

// auditEmail is the best-effort target email recorded for events raised
// before validation.
func auditEmail(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if len(s) > 255 {
		s = s[:255]
	}
	return s
}
