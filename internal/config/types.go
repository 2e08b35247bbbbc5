package config

// Config is the full process configuration. It is loaded once at startup;
// there is no hot reload.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Site     SiteConfig     `json:"site"`
	Monitor  MonitorConfig  `json:"monitor"`
	State    StateConfig    `json:"state"`
	Logging  LoggingConfig  `json:"logging"`
	Digest   *DigestConfig  `json:"digest,omitempty"`
}

type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
	// RatePerSec caps outgoing notifications. Default 3.
	RatePerSec int `json:"rate_per_sec,omitempty"`
	// SendTimeout is a Go duration string. Default "10s".
	SendTimeout string `json:"send_timeout,omitempty"`
}

// SiteConfig describes the monitored site: where to log in, which page to
// poll, and the structural selectors the scraper uses. Selectors are opaque
// to the core loop.
type SiteConfig struct {
	LoginURL    string `json:"login_url"`
	MessagesURL string `json:"messages_url,omitempty"`
	Username    string `json:"username"`
	Password    string `json:"password"`

	// Headless is a pointer so "omitted" defaults to true while an explicit
	// false still works for debugging against a visible browser.
	Headless *bool `json:"headless,omitempty"`

	NavigationTimeout string `json:"navigation_timeout,omitempty"` // default "30s"
	AuthSignalWait    string `json:"auth_signal_wait,omitempty"`   // default "15s"
	SnapshotWait      string `json:"snapshot_wait,omitempty"`      // default "5s"

	Selectors SelectorConfig `json:"selectors,omitempty"`
}

// SelectorConfig mirrors source.Selectors. Every field is optional; the
// defaults are placeholders that most likely must be changed per site.
type SelectorConfig struct {
	UsernameInput     string `json:"username_input,omitempty"`
	PasswordInput     string `json:"password_input,omitempty"`
	SubmitButton      string `json:"submit_button,omitempty"`
	MessagesContainer string `json:"messages_container,omitempty"`
	MessageItem       string `json:"message_item,omitempty"`
	MessageIDAttr     string `json:"message_id_attr,omitempty"`
	Number            string `json:"number,omitempty"`
	Service           string `json:"service,omitempty"`
	MessageText       string `json:"message_text,omitempty"`
	Timestamp         string `json:"timestamp,omitempty"`
}

type MonitorConfig struct {
	PollInterval       string `json:"poll_interval,omitempty"`        // default "30s"
	LoginRetryDelay    string `json:"login_retry_delay,omitempty"`    // default "60s"
	TimeoutRetryDelay  string `json:"timeout_retry_delay,omitempty"`  // default "10s"
	RestartSettleDelay string `json:"restart_settle_delay,omitempty"` // default "5s"
}

// StateConfig controls cursor persistence.
//
// Example:
//
//	"state": { "driver": "file", "path": "./last_seen.json" }
type StateConfig struct {
	Driver      string `json:"driver,omitempty"` // "file" (default) or "sqlite"
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

type LoggingConfig struct {
	Level   string      `json:"level,omitempty"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file,omitempty"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// DigestConfig controls the periodic status digest sent to the chat.
// If the whole section is omitted, the digest is disabled.
type DigestConfig struct {
	Enabled bool `json:"enabled"`
	// Schedule is a robfig/cron expression or descriptor ("@daily",
	// "@every 6h", "0 9 * * *"). Default "@daily".
	Schedule string `json:"schedule,omitempty"`
	// Timezone for cron evaluation. Default local.
	Timezone string `json:"timezone,omitempty"`
}
