package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultClientToken, cfg.API.ClientToken)
	assert.Equal(t, DefaultRelayURL, cfg.API.RelayURL)
	assert.Equal(t, DefaultDomainID, cfg.API.DomainID)
	assert.Equal(t, 8*time.Second, cfg.Polling.Interval)
	assert.Equal(t, PollModeToggle, cfg.Polling.Mode)
	assert.True(t, cfg.Polling.AutoRefresh)
	assert.Equal(t, 0, cfg.Session.RetryAttempts)
	assert.Equal(t, 0, cfg.Inbox.SeenLimit)
	assert.Equal(t, ThemeDefault, cfg.Display.Theme)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  relay_url: ""
polling:
  interval: 15s
  mode: always
inbox:
  seen_limit: 100
`), 0o600))

	t.Setenv("DROPTERM_API_DOMAIN_ID", "RG9tYWluOjk5")
	t.Setenv("DROPTERM_POLLING_AUTO_REFRESH", "false")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "", cfg.API.RelayURL)
	assert.Equal(t, "RG9tYWluOjk5", cfg.API.DomainID)
	assert.Equal(t, 15*time.Second, cfg.Polling.Interval)
	assert.Equal(t, PollModeAlways, cfg.Polling.Mode)
	assert.False(t, cfg.Polling.AutoRefresh)
	assert.Equal(t, 100, cfg.Inbox.SeenLimit)
	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"mode", "polling:\n  mode: sometimes\n"},
		{"interval", "polling:\n  interval: 0s\n"},
		{"retries", "session:\n  retry_attempts: -1\n"},
		{"theme", "display:\n  theme: neon\n"},
		{"yaml", "polling: [\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.body), 0o600))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultAppConfig()
	cfg.API.DomainID = ""
	cfg.Polling.Interval = 20 * time.Second
	cfg.Polling.Mode = PollModeAlways
	cfg.Session.RetryAttempts = 3
	cfg.Display.Theme = ThemePhosphor
	cfg.Download.Dir = "/tmp/mail"

	require.NoError(t, SaveConfig(path, cfg))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadConfig_ClientTokenEnv(t *testing.T) {
	t.Setenv(ClientTokenEnv, "from-env")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.API.ClientToken)
}

func TestSaveConfig_SeedsLoadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dropterm", "config.yaml")

	require.NoError(t, SaveConfig(path, DefaultAppConfig()))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultAppConfig(), got)
}
