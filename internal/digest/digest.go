// Package digest sends a periodic status summary to the notification sink so
// an operator can tell the watcher is alive without reading logs.
package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	logx "otpwatch/pkg/logx"

	"otpwatch/internal/monitor"
)

type Config struct {
	Enabled bool
	// Schedule is a cron spec or descriptor ("@daily", "@every 6h").
	// Default "@daily".
	Schedule string
	// Timezone is an IANA name, e.g. "Asia/Jakarta". Default local.
	Timezone string
}

// StatsFunc supplies the current loop counters when the digest fires.
type StatsFunc func() monitor.StatsSnapshot

type Service struct {
	cfg   Config
	log   logx.Logger
	sink  monitor.Sink
	stats StatsFunc

	c       *cron.Cron
	started time.Time
}

func New(cfg Config, sink monitor.Sink, stats StatsFunc, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg, log: log, sink: sink, stats: stats}
}

func (s *Service) Enabled() bool { return s.cfg.Enabled }

// Start registers the digest job and starts the cron runner. Returns an error
// only for an unparseable schedule; a bad timezone falls back to local.
func (s *Service) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}

	spec := strings.TrimSpace(s.cfg.Schedule)
	if spec == "" {
		spec = "@daily"
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s.c = cron.New(cron.WithParser(parser), cron.WithLocation(s.loadLocation()))
	s.started = time.Now()

	if _, err := s.c.AddFunc(spec, func() { s.fire(ctx) }); err != nil {
		return fmt.Errorf("digest schedule %q: %w", spec, err)
	}

	s.c.Start()
	s.log.Info("digest scheduled", logx.String("spec", spec))
	return nil
}

func (s *Service) Stop() {
	if s.c == nil {
		return
	}
	<-s.c.Stop().Done()
	s.c = nil
	s.log.Info("digest stopped")
}

func (s *Service) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	st := s.stats()
	s.sink.Send(ctx, renderDigest(st, time.Since(s.started)))
	s.log.Debug("digest sent", logx.Uint64("delivered", st.Delivered))
}

// loadLocation resolves the configured timezone. An empty or unknown name
// falls back to local time rather than failing startup.
func (s *Service) loadLocation() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone, falling back to local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

func renderDigest(st monitor.StatsSnapshot, uptime time.Duration) string {
	var b strings.Builder
	b.WriteString("📊 Status Digest\n\n")
	fmt.Fprintf(&b, "Uptime: %s\n", uptime.Round(time.Second))
	fmt.Fprintf(&b, "Polls: %d\n", st.Polls)
	fmt.Fprintf(&b, "Messages forwarded: %d\n", st.Delivered)
	fmt.Fprintf(&b, "Logins: %d\n", st.Logins)
	fmt.Fprintf(&b, "Timeouts: %d\n", st.Timeouts)
	fmt.Fprintf(&b, "Session restarts: %d", st.Restarts)
	return b.String()
}
