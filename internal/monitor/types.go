package monitor

import (
	"context"
	"sync/atomic"
	"time"

	"otpwatch/internal/message"
)

// Session is one authenticated connection lifecycle to the record source.
// A fresh Session is opened for every attempt; state is never reused.
type Session interface {
	// ID identifies this session in logs and the delivery audit.
	ID() string

	// Login submits credentials and waits for one of the readiness signals.
	// A rejected login returns (false, nil); only unexpected I/O failures
	// return a non-nil error.
	Login(ctx context.Context) (bool, error)

	// FetchSnapshot reads all currently visible records, newest-first.
	// An empty page is not an error; only I/O failures are.
	FetchSnapshot(ctx context.Context) ([]message.Record, error)

	// Close releases everything the session acquired. Idempotent.
	Close()
}

// OpenFunc allocates the source resources and returns a ready-to-login
// Session. Failures wrap ErrConnection.
type OpenFunc func(ctx context.Context) (Session, error)

// Sink delivers one formatted notification. Best-effort: implementations
// log failures and never propagate them.
type Sink interface {
	Send(ctx context.Context, text string)
}

// Store persists the delivery cursor. Load returns "" when no cursor exists
// yet. Save and RecordDelivery are best-effort from the loop's perspective:
// a failing store degrades to an in-memory cursor, never stops polling.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, lastID string) error
	RecordDelivery(ctx context.Context, sessionID string, rec message.Record) error
}

// Config controls the loop cadence. Zero fields fall back to defaults.
//
// All delays are observed cooperatively: cancellation interrupts any wait.
type Config struct {
	// PollInterval is the sleep between successful poll iterations.
	// Default 30s.
	PollInterval time.Duration

	// LoginRetryDelay is the fixed wait after a failed open/login before a
	// brand-new session is attempted. Default 60s.
	LoginRetryDelay time.Duration

	// TimeoutRetryDelay is the short wait after a timeout-class fetch
	// failure; the session is kept. Default 10s.
	TimeoutRetryDelay time.Duration

	// RestartSettleDelay is the pause between tearing down a failed session
	// and starting over, to avoid tight restart loops. Default 5s.
	RestartSettleDelay time.Duration
}

func (c *Config) setDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.LoginRetryDelay <= 0 {
		c.LoginRetryDelay = 60 * time.Second
	}
	if c.TimeoutRetryDelay <= 0 {
		c.TimeoutRetryDelay = 10 * time.Second
	}
	if c.RestartSettleDelay <= 0 {
		c.RestartSettleDelay = 5 * time.Second
	}
}

// Stats are best-effort operational counters, safe for concurrent reads.
type Stats struct {
	polls     atomic.Uint64
	delivered atomic.Uint64
	timeouts  atomic.Uint64
	restarts  atomic.Uint64
	logins    atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of the loop counters.
type StatsSnapshot struct {
	Polls     uint64 `json:"polls"`
	Delivered uint64 `json:"delivered"`
	Timeouts  uint64 `json:"timeouts"`
	Restarts  uint64 `json:"restarts"`
	Logins    uint64 `json:"logins"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Polls:     s.polls.Load(),
		Delivered: s.delivered.Load(),
		Timeouts:  s.timeouts.Load(),
		Restarts:  s.restarts.Load(),
		Logins:    s.logins.Load(),
	}
}
