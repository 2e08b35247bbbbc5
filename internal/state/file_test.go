package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "otpwatch/pkg/logx"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_seen.json")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()

	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", got, "missing file means no cursor")

	require.NoError(t, st.Save(ctx, "abc123"))
	got, err = st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)

	// Overwrite, not append.
	require.NoError(t, st.Save(ctx, "def456"))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"last_id":"def456"}`, string(b))
}

func TestFileStoreNullCursor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_seen.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"last_id":null}`), 0o600))

	st, err := Open(Config{Path: path}, logx.Nop())
	require.NoError(t, err)
	defer st.Close()

	got, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestFileStoreMalformedTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_seen.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"last_id": `), 0o600))

	st, err := Open(Config{Path: path}, logx.Nop())
	require.NoError(t, err)
	defer st.Close()

	got, err := st.Load(context.Background())
	require.NoError(t, err, "a corrupt state file must never be fatal")
	assert.Equal(t, "", got)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "redis"}, logx.Nop())
	require.Error(t, err)
}
