package message

import "regexp"

// otpPattern matches the first run of 4-8 consecutive decimal digits bounded
// by word boundaries. Digits embedded in longer numeric tokens do not match.
// Adjust the range if the site uses a different code length.
var otpPattern = regexp.MustCompile(`\b(\d{4,8})\b`)

// ExtractOTP returns the first OTP-looking digit run in text, or "" if none.
func ExtractOTP(text string) string {
	if text == "" {
		return ""
	}
	m := otpPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}
