// Package source implements the record source: a headless-browser session
// that logs into the virtual-number site and scrapes the messages page.
package source

import (
	"errors"
	"strings"
	"time"
)

// Selectors locate the login form and the message list on the target site.
// Every field is optional; empty fields fall back to common defaults, which
// almost certainly need to be overridden per site.
type Selectors struct {
	UsernameInput     string
	PasswordInput     string
	SubmitButton      string
	MessagesContainer string
	MessageItem       string
	MessageIDAttr     string
	Number            string
	Service           string
	MessageText       string
	Timestamp         string
}

func (s *Selectors) setDefaults() {
	def := func(v *string, d string) {
		if strings.TrimSpace(*v) == "" {
			*v = d
		}
	}
	def(&s.UsernameInput, `input[name="username"]`)
	def(&s.PasswordInput, `input[name="password"]`)
	def(&s.SubmitButton, `button[type="submit"]`)
	def(&s.MessagesContainer, `div.messages`)
	def(&s.MessageItem, `.message-item`)
	def(&s.MessageIDAttr, `data-id`)
	def(&s.Number, `.number`)
	def(&s.Service, `.platform`)
	def(&s.MessageText, `.message-text`)
	def(&s.Timestamp, `.time`)
}

// Config configures the browser session.
type Config struct {
	// LoginURL is the page carrying the login form.
	LoginURL string

	// MessagesURL is the OTP/messages page. Optional: when empty, the
	// session reloads whatever page login landed on.
	MessagesURL string

	Username string
	Password string

	Selectors Selectors

	// Headless toggles headless Chromium. Default true.
	Headless *bool

	// NavigationTimeout bounds every page navigation. Default 30s.
	NavigationTimeout time.Duration

	// AuthSignalWait bounds each of the two login readiness waits
	// (messages URL reached, messages container visible). Default 15s.
	AuthSignalWait time.Duration

	// SnapshotWait bounds the wait for the messages container before a
	// snapshot read. Default 5s.
	SnapshotWait time.Duration
}

func (c *Config) setDefaults() {
	c.Selectors.setDefaults()
	if c.Headless == nil {
		v := true
		c.Headless = &v
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = 30 * time.Second
	}
	if c.AuthSignalWait <= 0 {
		c.AuthSignalWait = 15 * time.Second
	}
	if c.SnapshotWait <= 0 {
		c.SnapshotWait = 5 * time.Second
	}
}

// Validate checks the fields that have no usable default. Called once at
// startup; the session never re-validates per access.
func (c *Config) Validate() error {
	c.setDefaults()
	if strings.TrimSpace(c.LoginURL) == "" {
		return errors.New("source.login_url is required")
	}
	if strings.TrimSpace(c.Username) == "" || strings.TrimSpace(c.Password) == "" {
		return errors.New("source credentials are required")
	}
	return nil
}
