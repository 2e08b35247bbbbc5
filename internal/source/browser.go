package source

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"

	logx "otpwatch/pkg/logx"

	"otpwatch/internal/monitor"
)

// Browser is one session against the target site: a dedicated Chromium
// process, one page, one login. A fresh Browser is opened per attempt and
// never reused after Close.
type Browser struct {
	cfg Config
	log logx.Logger
	id  string

	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	closeOnce sync.Once
}

// Open launches the browser and prepares a page. Every resource acquired
// here is released by Close, including on partial failure.
func Open(ctx context.Context, cfg Config, log logx.Logger) (*Browser, error) {
	cfg.setDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}

	s := &Browser{cfg: cfg, id: uuid.NewString()}
	s.log = log.With(logx.String("session", s.id))

	s.log.Info("launching browser", logx.Bool("headless", *cfg.Headless))

	// NoSandbox keeps container platforms happy; same flags the site was
	// originally monitored with.
	l := launcher.New().Headless(*cfg.Headless).NoSandbox(true)
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %v: %w", err, monitor.ErrConnection)
	}
	s.launcher = l

	b := rod.New().ControlURL(u).Context(ctx)
	if err := b.Connect(); err != nil {
		s.Close()
		return nil, fmt.Errorf("connect chromium: %v: %w", err, monitor.ErrConnection)
	}
	s.browser = b

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open page: %v: %w", err, monitor.ErrConnection)
	}
	s.page = page

	return s, nil
}

// ID identifies this session in logs and the delivery audit.
func (s *Browser) ID() string { return s.id }

// Login navigates to the login form, submits credentials, and waits for one
// of two readiness signals in order: the messages-page URL is reached, or
// the messages container becomes visible. A login the site rejects returns
// (false, nil); only unexpected I/O failures return an error.
func (s *Browser) Login(ctx context.Context) (bool, error) {
	cfg := s.cfg
	sel := cfg.Selectors

	s.log.Info("navigating to login page", logx.String("url", cfg.LoginURL))
	page := s.page.Context(ctx)
	if err := page.Timeout(cfg.NavigationTimeout).Navigate(cfg.LoginURL); err != nil {
		return false, fmt.Errorf("navigate login page: %w", err)
	}
	if err := page.Timeout(cfg.NavigationTimeout).WaitLoad(); err != nil {
		return false, fmt.Errorf("wait login page load: %w", err)
	}

	if err := s.fill(page, sel.UsernameInput, cfg.Username); err != nil {
		return false, fmt.Errorf("fill username: %w", err)
	}
	if err := s.fill(page, sel.PasswordInput, cfg.Password); err != nil {
		return false, fmt.Errorf("fill password: %w", err)
	}

	submit, err := page.Timeout(cfg.AuthSignalWait).Element(sel.SubmitButton)
	if err != nil {
		return false, fmt.Errorf("find submit button: %w", err)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, fmt.Errorf("click submit: %w", err)
	}

	// Signal (a): we land on the messages page.
	if cfg.MessagesURL != "" {
		if s.waitForURL(ctx, cfg.MessagesURL, cfg.AuthSignalWait) {
			s.log.Info("login confirmed by messages URL")
			return true, nil
		}
		s.log.Warn("timeout waiting for messages URL")
	}

	// Signal (b): the messages container shows up where we are.
	if _, err := page.Timeout(cfg.AuthSignalWait).Element(sel.MessagesContainer); err == nil {
		s.log.Info("login confirmed by messages container")
		return true, nil
	}
	s.log.Warn("timeout waiting for messages container")

	// Last resort: a quick URL check, in case navigation raced the waits.
	if cfg.MessagesURL != "" {
		if info, err := page.Info(); err == nil && strings.Contains(info.URL, cfg.MessagesURL) {
			return true, nil
		}
	}

	return false, nil
}

// fill waits for the input, clears it, and types the value.
func (s *Browser) fill(page *rod.Page, selector, value string) error {
	el, err := page.Timeout(s.cfg.AuthSignalWait).Element(selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	return el.Input(value)
}

// waitForURL polls the page URL until it contains target or the wait ends.
func (s *Browser) waitForURL(ctx context.Context, target string, wait time.Duration) bool {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if info, err := s.page.Info(); err == nil && strings.Contains(info.URL, target) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// Close releases the page, browser, and browser process. Idempotent:
// repeated calls and calls after partial Open failures are both safe.
func (s *Browser) Close() {
	s.closeOnce.Do(func() {
		if s.page != nil {
			_ = s.page.Close()
		}
		if s.browser != nil {
			_ = s.browser.Close()
		}
		if s.launcher != nil {
			s.launcher.Kill()
			s.launcher.Cleanup()
		}
		s.log.Info("browser session closed")
	})
}
