// Package notify delivers formatted notification texts to the configured
// Telegram chat. Sends are best-effort: failures are logged, never returned.
package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"golang.org/x/time/rate"

	logx "otpwatch/pkg/logx"
)

// Config configures the Telegram sink.
type Config struct {
	Token  string
	ChatID int64

	// RatePerSec caps outgoing sends so a notification burst (e.g. after a
	// cursor rotation) never trips Telegram's flood limits. Default 3.
	RatePerSec int

	// SendTimeout bounds one send call. Default 10s.
	SendTimeout time.Duration
}

// Telegram is a send-only sink; the bot never polls for updates.
type Telegram struct {
	cfg     Config
	log     logx.Logger
	bot     *tele.Bot
	limiter *rate.Limiter
}

func NewTelegram(cfg Config, log logx.Logger) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat_id is empty")
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 3
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	b, err := tele.NewBot(tele.Settings{Token: cfg.Token, Offline: false})
	if err != nil {
		return nil, err
	}
	return &Telegram{
		cfg:     cfg,
		log:     log,
		bot:     b,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
	}, nil
}

// Send delivers text to the configured chat. Errors are logged and swallowed;
// the monitor loop must never stall on a failed notification.
func (t *Telegram) Send(ctx context.Context, text string) {
	if text == "" {
		return
	}

	sctx, cancel := context.WithTimeout(ctx, t.cfg.SendTimeout)
	defer cancel()

	if err := t.limiter.Wait(sctx); err != nil {
		t.log.Warn("notification dropped (rate wait)", logx.Err(err))
		return
	}

	chat := &tele.Chat{ID: t.cfg.ChatID}
	_, err := t.bot.Send(chat, text, &tele.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		t.log.Error("telegram send failed", logx.Err(err), logx.Int("len", len(text)))
		return
	}
	t.log.Debug("notification sent", logx.Int("len", len(text)))
}
