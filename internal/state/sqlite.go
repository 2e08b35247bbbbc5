package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	logx "otpwatch/pkg/logx"

	_ "modernc.org/sqlite"

	"otpwatch/internal/message"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cursor (
    k       INTEGER PRIMARY KEY CHECK (k = 0),
    last_id TEXT
);

CREATE TABLE IF NOT EXISTS deliveries (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    at         TEXT NOT NULL,
    session_id TEXT NOT NULL,
    record_id  TEXT NOT NULL,
    number     TEXT,
    service    TEXT,
    has_otp    INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS deliveries_at ON deliveries(at);
`

// sqliteStore keeps the cursor in a single-row table plus an append-only
// delivery audit.
type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("state.path is required for the sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Load(ctx context.Context) (string, error) {
	if s == nil || s.db == nil {
		return "", ErrClosed
	}
	var lastID sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT last_id FROM cursor WHERE k = 0`).Scan(&lastID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !lastID.Valid {
		return "", nil
	}
	return lastID.String, nil
}

func (s *sqliteStore) Save(ctx context.Context, lastID string) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cursor(k, last_id) VALUES(0, ?)
		 ON CONFLICT(k) DO UPDATE SET last_id = excluded.last_id`,
		nullStr(lastID),
	)
	return err
}

func (s *sqliteStore) RecordDelivery(ctx context.Context, sessionID string, rec message.Record) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	hasOTP := 0
	if rec.HasOTP() {
		hasOTP = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deliveries(at, session_id, record_id, number, service, has_otp)
		 VALUES(?,?,?,?,?,?)`,
		time.Now().UTC().Format(time.RFC3339Nano), sessionID, rec.ID,
		nullStr(rec.Number), nullStr(rec.Service), hasOTP,
	)
	return err
}

// RecentDeliveries returns the newest audit rows, most recent first.
func (s *sqliteStore) RecentDeliveries(ctx context.Context, limit int) ([]Delivery, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, session_id, record_id, COALESCE(number,''), COALESCE(service,''), has_otp
		 FROM deliveries ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var d Delivery
		var at string
		var hasOTP int
		if err := rows.Scan(&at, &d.SessionID, &d.RecordID, &d.Number, &d.Service, &hasOTP); err != nil {
			return nil, err
		}
		d.HasOTP = hasOTP != 0
		if t, err := time.Parse(time.RFC3339Nano, at); err == nil {
			d.At = t
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
