// Package message holds the record model observed on the monitored page,
// plus the OTP extractor and the notification formatter.
package message

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// FieldUnknown is the sentinel for payload fields the scraper could not read.
const FieldUnknown = "N/A"

// Record is one message entry as observed on the messages page.
//
// ID is the delivery cursor: unique within one snapshot and stable across
// repeated fetches of the same unchanged entry. When the page carries no id
// attribute, SyntheticID derives one from the raw element text.
type Record struct {
	ID      string
	Number  string
	Service string
	Text    string
	Time    string

	// OTP is the extracted numeric code, or "" when none was found.
	OTP string
}

// HasOTP reports whether an OTP code was extracted from the record text.
func (r Record) HasOTP() bool { return r.OTP != "" }

// SyntheticID derives a stable fallback id from raw record content.
//
// FNV-64a is used on purpose: ids must not change across process restarts
// for identical content, so a runtime-seeded hash is not acceptable here.
func SyntheticID(raw string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.TrimSpace(raw)))
	return fmt.Sprintf("%016x", h.Sum64())
}
