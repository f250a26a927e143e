package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"student@example.com", true},
		{"  padded@example.com  ", true},
		{"a.b+tag@sub.example.org", true},
		{"", false},
		{"no-at.example.com", false},
		{"two@@example.com", false},
		{"missing@tld", false},
		{"spa ce@example.com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidEmail(tt.in), tt.in)
	}
}

func TestIsValidPassword(t *testing.T) {
	assert.False(t, IsValidPassword("12345"))
	assert.True(t, IsValidPassword("123456"))
	assert.True(t, IsValidPassword("pässwö"))
	assert.False(t, IsValidPassword(""))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "scriptalert(1)/script", SanitizeInput("  <script>alert(1)</script> "))
	assert.Equal(t, "Mock Test 1", SanitizeInput("Mock Test 1"))
	assert.Empty(t, SanitizeInput(" <> "))
}
