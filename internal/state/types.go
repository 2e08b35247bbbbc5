// Package state persists the delivery cursor (the id of the most recently
// delivered record) across process restarts, with an optional delivery audit.
package state

import (
	"context"
	"errors"
	"time"

	"otpwatch/internal/message"
)

var ErrClosed = errors.New("state store closed")

// Config configures the cursor store.
//
// Driver values:
//   - "file": single JSON object {"last_id": <string or null>} (default)
//   - "sqlite": SQLite database file with cursor + delivery audit tables
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store holds the single persisted cursor value.
//
// Load returns "" when no cursor has ever been saved. All methods are
// best-effort from the caller's perspective: a failing store must degrade,
// not stop the monitor.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, lastID string) error

	// RecordDelivery appends one delivered record to the audit trail.
	// The file driver keeps no audit and returns nil.
	RecordDelivery(ctx context.Context, sessionID string, rec message.Record) error

	Close() error
}

// Delivery is one audit row (sqlite driver only).
type Delivery struct {
	At        time.Time
	SessionID string
	RecordID  string
	Number    string
	Service   string
	HasOTP    bool
}
