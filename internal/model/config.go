package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults taken from the public dropmail client this tool talks to.
const (
	DefaultBaseURL      = "https://dropmail.me/api/graphql"
	DefaultClientToken  = "EXARLO_OFFICIAL_V1"
	DefaultRelayURL     = "https://corsproxy.io/?"
	DefaultDomainID     = "RG9tYWluOjgw"
	DefaultPollInterval = 8 * time.Second
)

// ClientTokenEnv is the one environment variable that sets the client
// token. It is the viper override of api.client_token.
const ClientTokenEnv = "DROPTERM_API_CLIENT_TOKEN"

// Poll modes.
const (
	// PollModeToggle skips timer-driven fetches while auto-refresh is off.
	PollModeToggle = "toggle"
	// PollModeAlways fetches on every tick regardless of auto-refresh.
	PollModeAlways = "always"
)

// Display themes.
const (
	ThemeDefault  = "default"
	ThemePhosphor = "phosphor"
)

// APIConfig describes how to reach the upstream mail API.
type APIConfig struct {
	// BaseURL is the GraphQL endpoint without the client token.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// ClientToken is appended to BaseURL as the last path element.
	ClientToken string `mapstructure:"client_token" yaml:"client_token"`

	// RelayURL is a CORS-relay prefix. The target URL is query-escaped
	// and appended to it. Empty means talk to BaseURL directly.
	RelayURL string `mapstructure:"relay_url" yaml:"relay_url"`

	// DomainID pins new addresses to one domain. Empty lets the
	// upstream choose.
	DomainID string `mapstructure:"domain_id" yaml:"domain_id"`
}

// PollingConfig controls the inbox poller.
type PollingConfig struct {
	Interval    time.Duration `mapstructure:"interval" yaml:"interval"`
	Mode        string        `mapstructure:"mode" yaml:"mode"`
	AutoRefresh bool          `mapstructure:"auto_refresh" yaml:"auto_refresh"`
}

// SessionConfig controls session negotiation. RetryAttempts of zero
// disables retries.
type SessionConfig struct {
	RetryAttempts  int           `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay" yaml:"retry_max_delay"`
}

// InboxConfig controls the inbox renderer.
type InboxConfig struct {
	// SeenLimit bounds the seen-set; zero means unbounded.
	SeenLimit int `mapstructure:"seen_limit" yaml:"seen_limit"`
}

// DownloadConfig controls where raw messages are saved.
type DownloadConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API      APIConfig      `mapstructure:"api" yaml:"api"`
	Polling  PollingConfig  `mapstructure:"polling" yaml:"polling"`
	Session  SessionConfig  `mapstructure:"session" yaml:"session"`
	Inbox    InboxConfig    `mapstructure:"inbox" yaml:"inbox"`
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/dropterm/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "dropterm", "config.yaml")
}

// defaultDownloadDir returns ~/Downloads, or the working directory when
// no home directory is available.
func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:     DefaultBaseURL,
			ClientToken: DefaultClientToken,
			RelayURL:    DefaultRelayURL,
			DomainID:    DefaultDomainID,
		},
		Polling: PollingConfig{
			Interval:    DefaultPollInterval,
			Mode:        PollModeToggle,
			AutoRefresh: true,
		},
		Session: SessionConfig{
			RetryBaseDelay: time.Second,
			RetryMaxDelay:  30 * time.Second,
		},
		Download: DownloadConfig{Dir: defaultDownloadDir()},
		Display:  DisplayConfig{Theme: ThemeDefault},
	}
}

// setDefaults registers every key so env overrides and partial files
// resolve against the same values as DefaultAppConfig.
func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.client_token", d.API.ClientToken)
	v.SetDefault("api.relay_url", d.API.RelayURL)
	v.SetDefault("api.domain_id", d.API.DomainID)
	v.SetDefault("polling.interval", d.Polling.Interval)
	v.SetDefault("polling.mode", d.Polling.Mode)
	v.SetDefault("polling.auto_refresh", d.Polling.AutoRefresh)
	v.SetDefault("session.retry_attempts", d.Session.RetryAttempts)
	v.SetDefault("session.retry_base_delay", d.Session.RetryBaseDelay)
	v.SetDefault("session.retry_max_delay", d.Session.RetryMaxDelay)
	v.SetDefault("inbox.seen_limit", d.Inbox.SeenLimit)
	v.SetDefault("download.dir", d.Download.Dir)
	v.SetDefault("display.theme", d.Display.Theme)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// DROPTERM_* environment variables override file values (for example
// DROPTERM_API_DOMAIN_ID). A missing file yields the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("dropterm")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail at runtime.
func (c *AppConfig) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.Polling.Interval <= 0 {
		return fmt.Errorf("polling.interval must be positive, got %s", c.Polling.Interval)
	}
	switch c.Polling.Mode {
	case PollModeToggle, PollModeAlways:
	default:
		return fmt.Errorf("polling.mode must be %q or %q, got %q",
			PollModeToggle, PollModeAlways, c.Polling.Mode)
	}
	if c.Session.RetryAttempts < 0 {
		return fmt.Errorf("session.retry_attempts must not be negative")
	}
	if c.Inbox.SeenLimit < 0 {
		return fmt.Errorf("inbox.seen_limit must not be negative")
	}
	switch c.Display.Theme {
	case ThemeDefault, ThemePhosphor:
	default:
		return fmt.Errorf("display.theme must be %q or %q, got %q",
			ThemeDefault, ThemePhosphor, c.Display.Theme)
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.client_token", cfg.API.ClientToken)
	v.Set("api.relay_url", cfg.API.RelayURL)
	v.Set("api.domain_id", cfg.API.DomainID)
	v.Set("polling.interval", cfg.Polling.Interval.String())
	v.Set("polling.mode", cfg.Polling.Mode)
	v.Set("polling.auto_refresh", cfg.Polling.AutoRefresh)
	v.Set("session.retry_attempts", cfg.Session.RetryAttempts)
	v.Set("session.retry_base_delay", cfg.Session.RetryBaseDelay.String())
	v.Set("session.retry_max_delay", cfg.Session.RetryMaxDelay.String())
	v.Set("inbox.seen_limit", cfg.Inbox.SeenLimit)
	v.Set("download.dir", cfg.Download.Dir)
	v.Set("display.theme", cfg.Display.Theme)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
