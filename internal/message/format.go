package message

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// maxTextLen caps the message body quoted in a generic notification,
// counted in runes.
const maxTextLen = 400

// Format renders one record into the notification text sent to the chat.
//
// Records with an extracted OTP use the OTP template; everything else uses
// the generic template with the body truncated. When the record carries no
// timestamp, now (UTC, RFC 3339) is used instead.
func Format(r Record, now time.Time) string {
	ts := r.Time
	if ts == "" {
		ts = now.UTC().Format(time.RFC3339)
	}

	if r.HasOTP() {
		return fmt.Sprintf(
			"⭐ NEW OTP RECEIVED! ⭐\n"+
				"-------------------------------------\n"+
				"🔢 Virtual Number: %s\n"+
				"📦 Service: %s\n"+
				"🔑 OTP Code: `%s`\n"+
				"⏰ Time: %s\n"+
				"-------------------------------------",
			r.Number, r.Service, r.OTP, ts,
		)
	}

	return fmt.Sprintf(
		"⭐ NEW MESSAGE (no OTP detected) ⭐\n"+
			"-------------------------------------\n"+
			"🔢 Virtual Number: %s\n"+
			"📦 Service: %s\n"+
			"📩 Message: %s\n"+
			"⏰ Time: %s\n"+
			"-------------------------------------",
		r.Number, r.Service, truncate(r.Text, maxTextLen), ts,
	)
}

// truncate cuts s after maxRunes characters. Counting runes, not bytes,
// keeps multi-byte text at its full quoted length.
func truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}
