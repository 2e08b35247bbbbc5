package state

import (
	"fmt"
	"strings"

	logx "otpwatch/pkg/logx"
)

// Open builds a Store for the configured driver. An empty driver defaults
// to the file backend.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "file":
		return openFile(cfg, log)
	case "sqlite":
		return openSQLite(cfg, log)
	default:
		return nil, fmt.Errorf("unknown state driver %q", cfg.Driver)
	}
}
