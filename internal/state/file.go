package state

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "otpwatch/pkg/logx"

	"otpwatch/internal/message"
)

// fileStore is the dependency-free default backend: one JSON object,
// fully overwritten (never appended) on every cursor update.
//
// Unreadable or malformed files are treated as "no persisted state" so a
// corrupted file can never wedge the monitor.
type fileStore struct {
	log  logx.Logger
	path string

	mu     sync.Mutex
	closed bool
}

type seenState struct {
	LastID *string `json:"last_id"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = "./last_seen.json"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &fileStore{log: log, path: path}, nil
}

func (s *fileStore) Load(ctx context.Context) (string, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		s.log.Warn("seen-state read failed; treating as empty", logx.Err(err), logx.String("path", s.path))
		return "", nil
	}

	var st seenState
	if err := json.Unmarshal(b, &st); err != nil {
		s.log.Warn("seen-state file malformed; treating as empty", logx.Err(err), logx.String("path", s.path))
		return "", nil
	}
	if st.LastID == nil {
		return "", nil
	}
	return *st.LastID, nil
}

func (s *fileStore) Save(ctx context.Context, lastID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	st := seenState{}
	if lastID != "" {
		st.LastID = &lastID
	}
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}

	// Write-then-rename so a crash mid-write never leaves a torn file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// RecordDelivery is a no-op: the file backend keeps only the cursor.
func (s *fileStore) RecordDelivery(ctx context.Context, sessionID string, rec message.Record) error {
	return nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
