package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCfg(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalYAML = `
telegram:
  token: "123:abc"
  chat_id: 42
site:
  login_url: "https://example.test/login"
  username: "user"
  password: "pass"
logging:
  console: true
`

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeCfg(t, "config.yaml", minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
	assert.Equal(t, "https://example.test/login", cfg.Site.LoginURL)
	assert.Nil(t, cfg.Site.Headless, "omitted headless stays nil (defaults to true downstream)")
	assert.Nil(t, cfg.Digest)
}

func TestLoadJSON(t *testing.T) {
	cfg, err := Load(writeCfg(t, "config.json", `{
		"telegram": {"token": "123:abc", "chat_id": 42},
		"site": {
			"login_url": "https://example.test/login",
			"messages_url": "https://example.test/my-messages",
			"username": "u", "password": "p",
			"selectors": {"message_item": ".sms-row"}
		},
		"monitor": {"poll_interval": "10s"},
		"state": {"driver": "sqlite", "path": "./state.db", "busy_timeout": "5s"},
		"logging": {"console": true},
		"digest": {"enabled": true, "schedule": "@daily"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, ".sms-row", cfg.Site.Selectors.MessageItem)
	assert.Equal(t, "sqlite", cfg.State.Driver)
	require.NotNil(t, cfg.Digest)
	assert.True(t, cfg.Digest.Enabled)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeCfg(t, "config.yaml", minimalYAML+"\nsurprise: true\n"))
	require.Error(t, err)
}

func TestValidateMissingCredentials(t *testing.T) {
	_, err := Load(writeCfg(t, "config.yaml", `
telegram:
  token: "123:abc"
  chat_id: 42
site:
  login_url: "https://example.test/login"
  username: "user"
  password: ""
logging:
  console: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")
}

func TestValidateBadDuration(t *testing.T) {
	_, err := Load(writeCfg(t, "config.yaml", minimalYAML+`
monitor:
  poll_interval: "soon"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitor.poll_interval")
}

func TestValidateUnknownStateDriver(t *testing.T) {
	_, err := Load(writeCfg(t, "config.yaml", minimalYAML+`
state:
  driver: "redis"
`))
	require.Error(t, err)
}

func TestParseDurationOrDefault(t *testing.T) {
	d, err := ParseDurationOrDefault("x", "", 30_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(30_000_000_000), int64(d))

	d, err = ParseDurationOrDefault("x", "5s", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000_000), int64(d))

	_, err = ParseDurationOrDefault("x", "-3s", 0)
	require.Error(t, err)
}
