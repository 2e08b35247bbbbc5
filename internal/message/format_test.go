package message

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatOTPTemplate(t *testing.T) {
	r := Record{
		ID:      "m1",
		Number:  "+15550001",
		Service: "ExampleApp",
		Text:    "Your code is 4455",
		Time:    "2026-08-30 11:02",
		OTP:     "4455",
	}
	out := Format(r, time.Now())

	assert.Contains(t, out, "NEW OTP RECEIVED")
	assert.Contains(t, out, "`4455`")
	assert.Contains(t, out, "+15550001")
	assert.Contains(t, out, "ExampleApp")
	assert.Contains(t, out, "2026-08-30 11:02")
	assert.NotContains(t, out, "no OTP detected")
}

func TestFormatGenericTemplateTruncates(t *testing.T) {
	r := Record{
		ID:      "m2",
		Number:  "+15550002",
		Service: "Newsletter",
		Text:    strings.Repeat("x", 1000),
		Time:    "yesterday",
	}
	out := Format(r, time.Now())

	assert.Contains(t, out, "no OTP detected")
	assert.NotContains(t, out, strings.Repeat("x", maxTextLen+1))
	assert.Contains(t, out, strings.Repeat("x", maxTextLen))
}

func TestFormatTimestampFallback(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 30, 0, 0, time.FixedZone("X", 3600))
	out := Format(Record{ID: "m3", Number: FieldUnknown, Service: FieldUnknown}, now)
	require.Contains(t, out, now.UTC().Format(time.RFC3339))
}

func TestTruncateCountsRunes(t *testing.T) {
	// 600 bytes but only 300 characters: under the cap, kept whole.
	s := strings.Repeat("ü", 300)
	assert.Equal(t, s, truncate(s, maxTextLen))

	// Over the cap: exactly maxTextLen characters survive, none split.
	long := strings.Repeat("ü", maxTextLen+50)
	out := truncate(long, maxTextLen)
	require.True(t, utf8.ValidString(out))
	assert.Equal(t, maxTextLen, utf8.RuneCountInString(out))
	assert.Equal(t, strings.Repeat("ü", maxTextLen), out)
}
