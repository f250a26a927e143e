package validator

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password the identity provider accepts.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// IsValidPassword reports whether the password meets the minimum length.
func IsValidPassword(s string) bool {
	return utf8.RuneCountInString(s) >= MinPasswordLength
}

// SanitizeInput trims free text and strips angle brackets so it cannot carry markup.
func SanitizeInput(s string) string {
	return strings.TrimSpace(strings.NewReplacer("<", "", ">", "").Replace(s))
}
