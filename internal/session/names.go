package session

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeEmail trims and lowercases an email for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayName derives a friendly name from the local part of an email:
// text before the first '.' or '_', digits removed, first letter capitalized.
// The raw email is returned when no letters remain.
func DisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if i := strings.IndexAny(local, "._"); i >= 0 {
		local = local[:i]
	}
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, local)
	if strings.IndexFunc(stripped, unicode.IsLetter) < 0 {
		return email
	}
	first, size := utf8.DecodeRuneInString(stripped)
	return string(unicode.ToUpper(first)) + stripped[size:]
}
