package digest

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "otpwatch/pkg/logx"

	"otpwatch/internal/monitor"
)

type memSink struct {
	mu   sync.Mutex
	msgs []string
}

func (m *memSink) Send(_ context.Context, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, text)
}

func TestDisabledStartIsNoop(t *testing.T) {
	s := New(Config{Enabled: false}, &memSink{}, func() monitor.StatsSnapshot { return monitor.StatsSnapshot{} }, logx.Nop())
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}

func TestRejectsBadSchedule(t *testing.T) {
	s := New(Config{Enabled: true, Schedule: "every tuesday-ish"}, &memSink{},
		func() monitor.StatsSnapshot { return monitor.StatsSnapshot{} }, logx.Nop())
	require.Error(t, s.Start(context.Background()))
}

func TestFireRendersCounters(t *testing.T) {
	sink := &memSink{}
	s := New(Config{Enabled: true}, sink,
		func() monitor.StatsSnapshot {
			return monitor.StatsSnapshot{Polls: 12, Delivered: 3, Logins: 1, Timeouts: 2, Restarts: 1}
		}, logx.Nop())
	s.started = time.Now().Add(-90 * time.Second)

	s.fire(context.Background())

	require.Len(t, sink.msgs, 1)
	msg := sink.msgs[0]
	assert.True(t, strings.HasPrefix(msg, "📊 Status Digest"))
	assert.Contains(t, msg, "Polls: 12")
	assert.Contains(t, msg, "Messages forwarded: 3")
	assert.Contains(t, msg, "Uptime: 1m30s")
}

func TestLoadLocation(t *testing.T) {
	stats := func() monitor.StatsSnapshot { return monitor.StatsSnapshot{} }

	s := New(Config{Enabled: true}, &memSink{}, stats, logx.Nop())
	assert.Equal(t, time.Local, s.loadLocation(), "empty timezone uses local")

	s = New(Config{Enabled: true, Timezone: "not/a-zone"}, &memSink{}, stats, logx.Nop())
	assert.Equal(t, time.Local, s.loadLocation(), "unknown timezone falls back to local")

	s = New(Config{Enabled: true, Timezone: "UTC"}, &memSink{}, stats, logx.Nop())
	assert.Equal(t, time.UTC, s.loadLocation())
}

func TestFireSkipsWhenCanceled(t *testing.T) {
	sink := &memSink{}
	s := New(Config{Enabled: true}, sink,
		func() monitor.StatsSnapshot { return monitor.StatsSnapshot{} }, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.fire(ctx)

	assert.Empty(t, sink.msgs)
}
