package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shapesecurity/gist-migrator/pkg/common"
	"github.com/spf13/viper"
)

// Default endpoints of the public platforms.
const (
	DefaultSourceBaseURL      = "https://api.github.com"
	DefaultDestinationBaseURL = "https://gitlab.com/api/v4"
	DefaultTimeout            = 30 * time.Second
	DefaultRetries            = 4
	EnvPrefix                 = "GIST_MIGRATOR"
)

// Config represents the application configuration
type Config struct {
	LogLevel    string         `mapstructure:"log_level"`
	Source      EndpointConfig `mapstructure:"source"`
	Destination EndpointConfig `mapstructure:"destination"`
	Migrate     MigrateConfig  `mapstructure:"migrate"`
}

// EndpointConfig is the connection to one platform API.
type EndpointConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`

	// Retries bounds how often a failed idempotent request is repeated.
	// Snippet creation is never repeated.
	Retries int `mapstructure:"retries"`
}

// MigrateConfig controls a migration run.
type MigrateConfig struct {
	Force      bool   `mapstructure:"force"`
	DryRun     bool   `mapstructure:"dry_run"`
	ReportPath string `mapstructure:"report_path"`
	WorkDir    string `mapstructure:"work_dir"`
	GitBinary  string `mapstructure:"git_binary"`
}

// New creates a new configuration with default values
func New() *Config {
	return &Config{
		LogLevel: "info",
		Source: EndpointConfig{
			BaseURL: DefaultSourceBaseURL,
			Timeout: DefaultTimeout,
			Retries: DefaultRetries,
		},
		Destination: EndpointConfig{
			BaseURL: DefaultDestinationBaseURL,
			Timeout: DefaultTimeout,
			Retries: DefaultRetries,
		},
		Migrate: MigrateConfig{
			GitBinary: "git",
		},
	}
}

// NewViper returns a viper instance with defaults and environment
// bindings registered. Callers bind their flags on top of it.
func NewViper() *viper.Viper {
	v := viper.New()
	def := New()

	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("source.base_url", def.Source.BaseURL)
	v.SetDefault("source.timeout", def.Source.Timeout)
	v.SetDefault("destination.base_url", def.Destination.BaseURL)
	v.SetDefault("destination.timeout", def.Destination.Timeout)
	v.SetDefault("source.retries", def.Source.Retries)
	v.SetDefault("destination.retries", def.Destination.Retries)
	v.SetDefault("migrate.force", false)
	v.SetDefault("migrate.dry_run", false)
	v.SetDefault("migrate.report_path", "")
	v.SetDefault("migrate.work_dir", "")
	v.SetDefault("migrate.git_binary", def.Migrate.GitBinary)
	v.SetDefault("source.token", "")
	v.SetDefault("destination.token", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The platform-conventional names take precedence over the prefixed ones.
	_ = v.BindEnv("source.token", "GITHUB_TOKEN", EnvPrefix+"_SOURCE_TOKEN")
	_ = v.BindEnv("destination.token", "GITLAB_TOKEN", EnvPrefix+"_DESTINATION_TOKEN")

	return v
}

// Load reads the optional config file and decodes everything viper knows
// into a Config.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, common.NewConfigError("config", fmt.Sprintf("reading %s: %v", configFile, err))
		}
	}

	cfg := New()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, common.NewConfigError("config", fmt.Sprintf("decoding: %v", err))
	}

	cfg.Source.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Source.BaseURL), "/")
	cfg.Destination.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Destination.BaseURL), "/")
	cfg.Source.Token = strings.TrimSpace(cfg.Source.Token)
	cfg.Destination.Token = strings.TrimSpace(cfg.Destination.Token)

	return cfg, nil
}

// MissingTokens lists the config keys of tokens that are still empty.
func (c *Config) MissingTokens() []string {
	var missing []string
	if c.Source.Token == "" {
		missing = append(missing, "source.token")
	}
	if c.Destination.Token == "" {
		missing = append(missing, "destination.token")
	}
	return missing
}

// Validate checks the configuration before any network activity.
func (c *Config) Validate() error {
	if err := ValidateBaseURL(c.Source.BaseURL); err != nil {
		return common.NewConfigError("source.base_url", err.Error())
	}
	if err := ValidateBaseURL(c.Destination.BaseURL); err != nil {
		return common.NewConfigError("destination.base_url", err.Error())
	}
	if missing := c.MissingTokens(); len(missing) > 0 {
		return common.NewConfigError(missing[0], "access token is required")
	}
	if c.Source.Timeout <= 0 || c.Destination.Timeout <= 0 {
		return common.NewConfigError("timeout", "must be positive")
	}
	if c.Source.Retries < 0 || c.Destination.Retries < 0 {
		return common.NewConfigError("retries", "must not be negative")
	}
	if c.Migrate.GitBinary == "" {
		return common.NewConfigError("migrate.git_binary", "must not be empty")
	}
	return nil
}

// ValidateBaseURL checks that raw is an absolute http(s) URL.
func ValidateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL is empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("URL %q must use http or https", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL %q has no host", raw)
	}
	return nil
}
