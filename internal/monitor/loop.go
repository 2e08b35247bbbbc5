// Package monitor implements the change-detection and delivery loop: poll the
// source, compute the delta against the persisted cursor, forward new records
// to the sink in chronological order, and keep the whole pipeline alive
// through session failures.
package monitor

import (
	"context"
	"fmt"
	"time"

	logx "otpwatch/pkg/logx"

	"otpwatch/internal/message"
)

// finalNotifyTimeout bounds the best-effort shutdown notification, which runs
// after the loop context is already canceled.
const finalNotifyTimeout = 5 * time.Second

// Loop supervises sessions to the record source and drives the poll cycle.
//
// Exactly one session and one poll cycle are active at a time; the only
// suspension points are the configured delays and the bounded waits inside
// the session itself.
type Loop struct {
	cfg   Config
	log   logx.Logger
	open  OpenFunc
	sink  Sink
	store Store

	now func() time.Time

	stats Stats
}

func New(cfg Config, open OpenFunc, sink Sink, store Store, log logx.Logger) *Loop {
	cfg.setDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Loop{
		cfg:   cfg,
		log:   log,
		open:  open,
		sink:  sink,
		store: store,
		now:   time.Now,
	}
}

// Stats returns a snapshot of the loop counters.
func (l *Loop) Stats() StatsSnapshot { return l.stats.Snapshot() }

// Run blocks until ctx is canceled. It never returns an error on its own:
// every failure converges on "restart cleanly after a delay". Only external
// cancellation stops it, after a best-effort shutdown notification.
func (l *Loop) Run(ctx context.Context) error {
	l.sink.Send(ctx, "✅ Bot Started Successfully. Initializing configuration and web automation environment.")

	for {
		if ctx.Err() != nil {
			l.notifyShutdown()
			return nil
		}

		sess, err := l.open(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.notifyShutdown()
				return nil
			}
			l.log.Error("session open failed", logx.Err(err), logx.String("kind", Classify(err).String()))
			l.sink.Send(ctx, fmt.Sprintf("❌ Could not reach the site (%v). Retrying in %s.", err, l.cfg.LoginRetryDelay))
			l.stats.restarts.Add(1)
			if !l.sleep(ctx, l.cfg.LoginRetryDelay) {
				l.notifyShutdown()
				return nil
			}
			continue
		}

		ok, err := sess.Login(ctx)
		if err != nil || !ok {
			sess.Close()
			if ctx.Err() != nil {
				l.notifyShutdown()
				return nil
			}
			if err != nil {
				l.log.Error("login failed", logx.Err(err), logx.String("session", sess.ID()))
			} else {
				l.log.Warn("login rejected", logx.String("session", sess.ID()))
			}
			l.sink.Send(ctx, fmt.Sprintf("❌ Login Failed! Please check the website credentials. Retrying in %s.", l.cfg.LoginRetryDelay))
			l.stats.restarts.Add(1)
			if !l.sleep(ctx, l.cfg.LoginRetryDelay) {
				l.notifyShutdown()
				return nil
			}
			continue
		}

		l.stats.logins.Add(1)
		l.log.Info("session established", logx.String("session", sess.ID()))
		l.sink.Send(ctx, "🌐 Login Successful! Session established. Starting continuous OTP monitoring loop.")

		err = l.poll(ctx, sess)
		sess.Close()

		if ctx.Err() != nil {
			l.notifyShutdown()
			return nil
		}

		// Fatal session failure: settle briefly, then start over.
		l.log.Warn("session restarting", logx.Err(err), logx.String("session", sess.ID()),
			logx.Duration("settle", l.cfg.RestartSettleDelay))
		l.stats.restarts.Add(1)
		if !l.sleep(ctx, l.cfg.RestartSettleDelay) {
			l.notifyShutdown()
			return nil
		}
	}
}

// poll runs the inner cycle against one established session. It returns the
// fatal error that ended the session, or ctx.Err() on cancellation.
func (l *Loop) poll(ctx context.Context, sess Session) error {
	lastID, err := l.store.Load(ctx)
	if err != nil {
		// Degraded mode: start from "no cursor" in memory only.
		l.log.Warn("cursor load failed; starting without persisted state", logx.Err(err))
		lastID = ""
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		snapshot, err := sess.FetchSnapshot(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			switch kind := Classify(err); kind {
			case KindTimeout:
				l.stats.timeouts.Add(1)
				l.log.Warn("snapshot fetch timed out; will retry", logx.Err(err), logx.String("session", sess.ID()))
				l.sink.Send(ctx, "⚠️ Warning: Timeout while fetching messages. Will retry.")
				if !l.sleep(ctx, l.cfg.TimeoutRetryDelay) {
					return ctx.Err()
				}
				continue
			default:
				l.log.Error("snapshot fetch failed", logx.Err(err), logx.String("kind", kind.String()), logx.String("session", sess.ID()))
				l.sink.Send(ctx, fmt.Sprintf("⚠️ Critical Error Detected! The monitoring process stopped. Error: %v. Attempting graceful restart...", err))
				return err
			}
		}

		l.stats.polls.Add(1)

		fresh, updatedID := Delta(snapshot, lastID)
		if lastID == "" && updatedID != "" {
			l.log.Info("initial sync done", logx.String("last_id", updatedID), logx.Int("visible", len(snapshot)))
		}

		// Oldest-first so notifications arrive in chronological order.
		// Delivery failures are absorbed by the sink and never block the
		// cursor; at-most-once real-world delivery is the guarantee here.
		for _, rec := range fresh {
			l.sink.Send(ctx, message.Format(rec, l.now()))
			l.stats.delivered.Add(1)
			if err := l.store.RecordDelivery(ctx, sess.ID(), rec); err != nil {
				l.log.Debug("delivery audit failed", logx.Err(err), logx.String("record", rec.ID))
			}
		}

		if updatedID != lastID {
			lastID = updatedID
			if err := l.store.Save(ctx, lastID); err != nil {
				l.log.Warn("cursor save failed; continuing with in-memory cursor", logx.Err(err), logx.String("last_id", lastID))
			} else {
				l.log.Debug("cursor advanced", logx.String("last_id", lastID), logx.Int("delivered", len(fresh)))
			}
		}

		if !l.sleep(ctx, l.cfg.PollInterval) {
			return ctx.Err()
		}
	}
}

// notifyShutdown tells the recipient the bot is going away. The loop context
// is already canceled at this point, so a detached bounded context is used.
func (l *Loop) notifyShutdown() {
	nctx, cancel := context.WithTimeout(context.Background(), finalNotifyTimeout)
	defer cancel()
	l.sink.Send(nctx, "🔌 Bot is shutting down gracefully.")
	l.log.Info("monitor loop stopped", logx.Uint64("delivered", l.stats.delivered.Load()),
		logx.Uint64("restarts", l.stats.restarts.Load()))
}

// sleep waits for d or until ctx is canceled. Returns false on cancellation.
func (l *Loop) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
