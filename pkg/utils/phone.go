package utils

import (
	"strings"
)

// CleanPhoneNumber strips every non-digit character from a phone number.
func CleanPhoneNumber(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidMobileNumber reports whether the cleaned number is a valid Korean
// mobile number: exactly 11 digits starting with "01".
func IsValidMobileNumber(phone string) bool {
	cleaned := CleanPhoneNumber(phone)
	if len(cleaned) != 11 {
		return false
	}
	return strings.HasPrefix(cleaned, "01")
}
