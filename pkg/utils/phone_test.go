package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanPhoneNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "already clean", input: "01012345678", expected: "01012345678"},
		{name: "dashes", input: "010-1234-5678", expected: "01012345678"},
		{name: "spaces and plus", input: "+82 10 1234 5678", expected: "821012345678"},
		{name: "empty", input: "", expected: ""},
		{name: "letters only", input: "abc", expected: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CleanPhoneNumber(tc.input))
		})
	}
}

func TestIsValidMobileNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "valid mobile", input: "01012345678", valid: true},
		{name: "valid with dashes", input: "010-1234-5678", valid: true},
		{name: "ten digits", input: "0101234567", valid: false},
		{name: "landline", input: "02-1234-5678", valid: false},
		{name: "twelve digits", input: "010123456789", valid: false},
		{name: "empty", input: "", valid: false},
		{name: "valid 011 prefix", input: "01112345678", valid: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, IsValidMobileNumber(tc.input))
		})
	}
}
