package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otpwatch/internal/message"
	logx "otpwatch/pkg/logx"
)

func TestSQLiteStoreCursorRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	st, err := Open(Config{Driver: "sqlite", Path: path}, logx.Nop())
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()

	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", got)

	require.NoError(t, st.Save(ctx, "m-100"))
	require.NoError(t, st.Save(ctx, "m-101"))

	got, err = st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "m-101", got, "save replaces the single cursor row")
}

func TestSQLiteStoreDeliveryAudit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	st, err := Open(Config{Driver: "sqlite", Path: path}, logx.Nop())
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.RecordDelivery(ctx, "sess-1", message.Record{
		ID: "m-1", Number: "+155500", Service: "ExampleApp", OTP: "1234",
	}))
	require.NoError(t, st.RecordDelivery(ctx, "sess-1", message.Record{
		ID: "m-2", Number: "+155500", Service: "Newsletter",
	}))

	sq, ok := st.(*sqliteStore)
	require.True(t, ok)

	rows, err := sq.RecentDeliveries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "m-2", rows[0].RecordID, "most recent first")
	assert.False(t, rows[0].HasOTP)
	assert.Equal(t, "m-1", rows[1].RecordID)
	assert.True(t, rows[1].HasOTP)
	assert.Equal(t, "sess-1", rows[1].SessionID)
}
