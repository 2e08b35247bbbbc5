// Package app wires configuration, logging, persistence, the Telegram sink,
// the browser source, and the monitor loop into one runnable process.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	logx "otpwatch/pkg/logx"

	"otpwatch/internal/config"
	"otpwatch/internal/digest"
	"otpwatch/internal/monitor"
	"otpwatch/internal/notify"
	"otpwatch/internal/runtime/supervisor"
	"otpwatch/internal/source"
	"otpwatch/internal/state"
)

type App struct {
	cfg *config.Config

	log  logx.Logger
	logs *logx.Service

	store  state.Store
	sink   *notify.Telegram
	loop   *monitor.Loop
	digest *digest.Service

	sup *supervisor.Supervisor
}

func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	a := &App{cfg: cfg, log: log, logs: logSvc}
	if err := a.build(); err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	return a, nil
}

// build maps the file config onto concrete components. Durations were
// syntax-checked in Validate; the defaults applied here match the
// documented ones.
func (a *App) build() error {
	cfg := a.cfg

	busyTimeout, err := config.ParseDurationOrDefault("state.busy_timeout", cfg.State.BusyTimeout, 5*time.Second)
	if err != nil {
		return err
	}
	store, err := state.Open(state.Config{
		Driver:      cfg.State.Driver,
		Path:        cfg.State.Path,
		BusyTimeout: busyTimeout,
	}, a.logs.Logger().With(logx.String("comp", "state")))
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	a.store = store

	sendTimeout, err := config.ParseDurationOrDefault("telegram.send_timeout", cfg.Telegram.SendTimeout, 10*time.Second)
	if err != nil {
		return err
	}
	sink, err := notify.NewTelegram(notify.Config{
		Token:       cfg.Telegram.Token,
		ChatID:      cfg.Telegram.ChatID,
		RatePerSec:  cfg.Telegram.RatePerSec,
		SendTimeout: sendTimeout,
	}, a.logs.Logger().With(logx.String("comp", "notify")))
	if err != nil {
		return fmt.Errorf("telegram sink: %w", err)
	}
	a.sink = sink

	srcCfg, err := a.sourceConfig()
	if err != nil {
		return err
	}
	if err := srcCfg.Validate(); err != nil {
		return err
	}
	srcLog := a.logs.Logger().With(logx.String("comp", "source"))
	open := func(ctx context.Context) (monitor.Session, error) {
		return source.Open(ctx, srcCfg, srcLog)
	}

	monCfg, err := a.monitorConfig()
	if err != nil {
		return err
	}
	a.loop = monitor.New(monCfg, open, sink, store, a.logs.Logger().With(logx.String("comp", "monitor")))

	dCfg := digest.Config{}
	if cfg.Digest != nil {
		dCfg = digest.Config{
			Enabled:  cfg.Digest.Enabled,
			Schedule: cfg.Digest.Schedule,
			Timezone: cfg.Digest.Timezone,
		}
	}
	a.digest = digest.New(dCfg, sink, a.loop.Stats, a.logs.Logger().With(logx.String("comp", "digest")))

	return nil
}

func (a *App) sourceConfig() (source.Config, error) {
	site := a.cfg.Site

	navTimeout, err := config.ParseDurationOrDefault("site.navigation_timeout", site.NavigationTimeout, 30*time.Second)
	if err != nil {
		return source.Config{}, err
	}
	authWait, err := config.ParseDurationOrDefault("site.auth_signal_wait", site.AuthSignalWait, 15*time.Second)
	if err != nil {
		return source.Config{}, err
	}
	snapWait, err := config.ParseDurationOrDefault("site.snapshot_wait", site.SnapshotWait, 5*time.Second)
	if err != nil {
		return source.Config{}, err
	}

	return source.Config{
		LoginURL:    site.LoginURL,
		MessagesURL: site.MessagesURL,
		Username:    site.Username,
		Password:    site.Password,
		Headless:    site.Headless,
		Selectors: source.Selectors{
			UsernameInput:     site.Selectors.UsernameInput,
			PasswordInput:     site.Selectors.PasswordInput,
			SubmitButton:      site.Selectors.SubmitButton,
			MessagesContainer: site.Selectors.MessagesContainer,
			MessageItem:       site.Selectors.MessageItem,
			MessageIDAttr:     site.Selectors.MessageIDAttr,
			Number:            site.Selectors.Number,
			Service:           site.Selectors.Service,
			MessageText:       site.Selectors.MessageText,
			Timestamp:         site.Selectors.Timestamp,
		},
		NavigationTimeout: navTimeout,
		AuthSignalWait:    authWait,
		SnapshotWait:      snapWait,
	}, nil
}

func (a *App) monitorConfig() (monitor.Config, error) {
	mon := a.cfg.Monitor

	poll, err := config.ParseDurationOrDefault("monitor.poll_interval", mon.PollInterval, 30*time.Second)
	if err != nil {
		return monitor.Config{}, err
	}
	loginRetry, err := config.ParseDurationOrDefault("monitor.login_retry_delay", mon.LoginRetryDelay, 60*time.Second)
	if err != nil {
		return monitor.Config{}, err
	}
	timeoutRetry, err := config.ParseDurationOrDefault("monitor.timeout_retry_delay", mon.TimeoutRetryDelay, 10*time.Second)
	if err != nil {
		return monitor.Config{}, err
	}
	settle, err := config.ParseDurationOrDefault("monitor.restart_settle_delay", mon.RestartSettleDelay, 5*time.Second)
	if err != nil {
		return monitor.Config{}, err
	}

	return monitor.Config{
		PollInterval:       poll,
		LoginRetryDelay:    loginRetry,
		TimeoutRetryDelay:  timeoutRetry,
		RestartSettleDelay: settle,
	}, nil
}

// Done is closed when the supervisor context ends (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log))

	if a.digest.Enabled() {
		if err := a.digest.Start(a.sup.Context()); err != nil {
			return err
		}
	}

	a.sup.Go("monitor.run", func(c context.Context) error {
		return a.loop.Run(c)
	})

	// systemd integration is a no-op outside a unit (NOTIFY_SOCKET unset).
	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify ready failed", logx.Err(err))
	} else if ok {
		a.log.Debug("sd_notify ready sent")
	}
	if interval, err := daemon.SdWatchdogEnabled(false); err == nil && interval > 0 {
		a.sup.Go0("systemd.watchdog", func(c context.Context) {
			t := time.NewTicker(interval / 2)
			defer t.Stop()
			for {
				select {
				case <-c.Done():
					return
				case <-t.C:
					_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
				}
			}
		})
	}

	a.log.Info("app started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if a.digest != nil {
		a.digest.Stop()
	}

	var err error
	if a.sup != nil {
		err = a.sup.Stop(ctx)
	}

	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil {
			a.log.Warn("state store close failed", logx.Err(cerr))
		}
	}

	a.log.Info("app stopped")
	_ = a.logs.Close()
	return err
}
