package monitor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otpwatch/internal/message"
)

func snap(ids ...string) []message.Record {
	out := make([]message.Record, len(ids))
	for i, id := range ids {
		out[i] = message.Record{ID: id, Text: "msg " + id}
	}
	return out
}

func ids(recs []message.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestDeltaEmptySnapshot(t *testing.T) {
	fresh, updated := Delta(nil, "r5")
	assert.Empty(t, fresh)
	assert.Equal(t, "r5", updated)

	fresh, updated = Delta(nil, "")
	assert.Empty(t, fresh)
	assert.Equal(t, "", updated)
}

func TestDeltaFirstRunSync(t *testing.T) {
	fresh, updated := Delta(snap("r0", "r1", "r2"), "")
	assert.Empty(t, fresh, "first run must not deliver the backlog")
	assert.Equal(t, "r0", updated, "first run adopts the newest id")
}

func TestDeltaIdempotentWhenCursorIsNewest(t *testing.T) {
	s := snap("r0", "r1", "r2")
	fresh, updated := Delta(s, "r0")
	assert.Empty(t, fresh)
	assert.Equal(t, "r0", updated)

	// Repeated polls of an unchanged snapshot stay empty.
	fresh, updated = Delta(s, updated)
	assert.Empty(t, fresh)
	assert.Equal(t, "r0", updated)
}

func TestDeltaChronologicalOrder(t *testing.T) {
	s := snap("r0", "r1", "r2", "r3")
	fresh, updated := Delta(s, "r2")
	require.Equal(t, []string{"r1", "r0"}, ids(fresh), "strictly newer records, oldest-first")
	assert.Equal(t, "r0", updated)
}

func TestDeltaNeverRedeliversAtOrBeforeCursor(t *testing.T) {
	s := snap("r0", "r1", "r2", "r3")
	fresh, _ := Delta(s, "r1")
	for _, id := range ids(fresh) {
		assert.NotContains(t, []string{"r1", "r2", "r3"}, id)
	}
}

func TestDeltaRotationSafetyCap(t *testing.T) {
	all := make([]string, rotationCap+5)
	for i := range all {
		all[i] = fmt.Sprintf("r%d", i)
	}
	s := snap(all...)

	fresh, updated := Delta(s, "gone")
	require.Len(t, fresh, rotationCap)
	assert.Equal(t, "r0", updated)
	// Oldest-first within the capped window.
	assert.Equal(t, fmt.Sprintf("r%d", rotationCap-1), fresh[0].ID)
	assert.Equal(t, "r0", fresh[len(fresh)-1].ID)
}

func TestDeltaRotationSmallSnapshot(t *testing.T) {
	s := snap("a", "b")
	fresh, updated := Delta(s, "gone")
	require.Equal(t, []string{"b", "a"}, ids(fresh))
	assert.Equal(t, "a", updated)
}
