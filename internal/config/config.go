package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads, decodes, and validates the config file at path.
// JSON and YAML are both accepted; YAML is coerced to JSON so one strict
// decoder (DisallowUnknownFields) serves both formats.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jb, err := toJSON(path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config: trailing data")
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and duration syntax once, at startup.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram.token is required")
	}
	if c.Telegram.ChatID == 0 {
		return errors.New("telegram.chat_id is required")
	}
	if strings.TrimSpace(c.Site.LoginURL) == "" {
		return errors.New("site.login_url is required")
	}
	if strings.TrimSpace(c.Site.Username) == "" || strings.TrimSpace(c.Site.Password) == "" {
		return errors.New("site.username and site.password are required")
	}

	durations := []struct {
		path string
		raw  string
	}{
		{"telegram.send_timeout", c.Telegram.SendTimeout},
		{"site.navigation_timeout", c.Site.NavigationTimeout},
		{"site.auth_signal_wait", c.Site.AuthSignalWait},
		{"site.snapshot_wait", c.Site.SnapshotWait},
		{"monitor.poll_interval", c.Monitor.PollInterval},
		{"monitor.login_retry_delay", c.Monitor.LoginRetryDelay},
		{"monitor.timeout_retry_delay", c.Monitor.TimeoutRetryDelay},
		{"monitor.restart_settle_delay", c.Monitor.RestartSettleDelay},
		{"state.busy_timeout", c.State.BusyTimeout},
	}
	for _, d := range durations {
		if _, err := ParseDurationField(d.path, d.raw); err != nil {
			return err
		}
	}

	switch strings.ToLower(strings.TrimSpace(c.State.Driver)) {
	case "", "file", "sqlite":
	default:
		return fmt.Errorf("state.driver: unknown driver %q", c.State.Driver)
	}

	return nil
}
