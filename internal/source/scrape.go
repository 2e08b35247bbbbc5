package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-rod/rod"

	logx "otpwatch/pkg/logx"

	"otpwatch/internal/message"
	"otpwatch/internal/monitor"
)

// FetchSnapshot reads all currently visible messages, newest-first (the
// site renders the list newest on top). An empty page yields an empty
// snapshot, not an error. Individual entries that fail to parse are skipped;
// only failures of the page itself propagate.
func (s *Browser) FetchSnapshot(ctx context.Context) ([]message.Record, error) {
	cfg := s.cfg
	page := s.page.Context(ctx)

	if cfg.MessagesURL != "" {
		if err := page.Timeout(cfg.NavigationTimeout).Navigate(cfg.MessagesURL); err != nil {
			return nil, wrapTimeout("navigate messages page", err)
		}
	} else {
		if err := page.Timeout(cfg.NavigationTimeout).Reload(); err != nil {
			return nil, wrapTimeout("reload messages page", err)
		}
	}

	// The container may lag behind navigation; items can still be present
	// when this wait times out, so the timeout is tolerated.
	if _, err := page.Timeout(cfg.SnapshotWait).Element(cfg.Selectors.MessagesContainer); err != nil {
		s.log.Debug("messages container wait elapsed", logx.Err(err))
	}

	els, err := page.Elements(cfg.Selectors.MessageItem)
	if err != nil {
		return nil, wrapTimeout("query message items", err)
	}
	s.log.Debug("message elements found", logx.Int("count", len(els)))

	records := make([]message.Record, 0, len(els))
	seen := make(map[string]struct{}, len(els))
	for _, el := range els {
		rec, err := s.parseItem(el)
		if err != nil {
			// One malformed entry must not abort the batch.
			s.log.Warn("skipping unparseable message element", logx.Err(err))
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			s.log.Debug("duplicate record id in snapshot; skipping", logx.String("id", rec.ID))
			continue
		}
		seen[rec.ID] = struct{}{}
		records = append(records, rec)
	}
	return records, nil
}

// parseItem extracts one Record from a message list element, best-effort.
func (s *Browser) parseItem(el *rod.Element) (message.Record, error) {
	sel := s.cfg.Selectors

	raw, err := el.Text()
	if err != nil {
		return message.Record{}, fmt.Errorf("element text: %w", err)
	}
	raw = strings.TrimSpace(raw)

	id := ""
	if sel.MessageIDAttr != "" {
		if v, err := el.Attribute(sel.MessageIDAttr); err == nil && v != nil {
			id = strings.TrimSpace(*v)
		}
	}
	if id == "" {
		id = message.SyntheticID(raw)
	}

	text := s.childText(el, sel.MessageText, raw)
	rec := message.Record{
		ID:      id,
		Number:  s.childText(el, sel.Number, message.FieldUnknown),
		Service: s.childText(el, sel.Service, message.FieldUnknown),
		Text:    text,
		Time:    s.childText(el, sel.Timestamp, ""),
		OTP:     message.ExtractOTP(text),
	}
	return rec, nil
}

// childText returns the trimmed text of the first child matching selector,
// or fallback when the child is absent or unreadable.
func (s *Browser) childText(el *rod.Element, selector, fallback string) string {
	if selector == "" {
		return fallback
	}
	children, err := el.Elements(selector)
	if err != nil || len(children) == 0 {
		return fallback
	}
	t, err := children.First().Text()
	if err != nil {
		return fallback
	}
	t = strings.TrimSpace(t)
	if t == "" {
		return fallback
	}
	return t
}

// wrapTimeout maps deadline violations onto the timeout failure class so the
// loop keeps the session; everything else stays session-fatal.
func wrapTimeout(stage string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", stage, monitor.ErrTimeout)
	}
	return fmt.Errorf("%s: %w", stage, err)
}
