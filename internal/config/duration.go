package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration fields (poll_interval, send_timeout, busy_timeout, ...) are kept
// as strings in Config so the file format stays Go-duration literals; these
// helpers are the only place they are interpreted. Validate syntax-checks
// every field through ParseDurationField once at load, and the app layer
// resolves effective values through ParseDurationOrDefault.

// ParseDurationField parses one duration field. An omitted field ("") parses
// to zero so the caller's default applies; negative durations are rejected.
// path names the field in error messages, e.g. "monitor.poll_interval".
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a duration: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %q", path, raw)
	}
	return d, nil
}

// ParseDurationOrDefault resolves a duration field to its effective value,
// substituting def when the field was omitted.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
