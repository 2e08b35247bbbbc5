package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractOTP(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"four digits", "code 1234 here", "1234"},
		{"eight digits", "your code is 12345678", "12345678"},
		{"too long run", "id 12345678901 long", ""},
		{"interleaved", "a1b2c3", ""},
		{"too short run", "ab 123 cd", ""},
		{"first of several", "use 4321 or 8765", "4321"},
		{"empty", "", ""},
		{"embedded in word", "ref A12345B", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractOTP(tc.text))
		})
	}
}

func TestSyntheticIDStable(t *testing.T) {
	a := SyntheticID("  Verification code 5544 \n")
	b := SyntheticID("Verification code 5544")
	assert.Equal(t, a, b, "surrounding whitespace must not change the id")
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, SyntheticID("Verification code 5545"))
}
