package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	RDAP     RDAPConfig     `yaml:"rdap" mapstructure:"rdap"`
	Abstract AbstractConfig `yaml:"abstract" mapstructure:"abstract"`
	Feed     FeedConfig     `yaml:"feed" mapstructure:"feed"`
	Slack    SlackConfig    `yaml:"slack" mapstructure:"slack"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Retry    RetryConfig    `yaml:"retry" mapstructure:"retry"`
	Limits   LimitsConfig   `yaml:"limits" mapstructure:"limits"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// RDAPConfig holds RDAP registry settings.
type RDAPConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AbstractConfig holds Abstract email-validation API settings.
type AbstractConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// FeedConfig configures the disposable-domain feed intake.
type FeedConfig struct {
	URL           string `yaml:"url" mapstructure:"url"`
	LookbackHours int    `yaml:"lookback_hours" mapstructure:"lookback_hours"`
}

// SlackConfig holds Slack delivery settings.
type SlackConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	Channel string `yaml:"channel" mapstructure:"channel"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// RetryConfig configures the per-stage retry policy.
type RetryConfig struct {
	MaxAttempts       int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelaySecs     float64 `yaml:"base_delay_secs" mapstructure:"base_delay_secs"`
	RateLimitWaitSecs float64 `yaml:"rate_limit_wait_secs" mapstructure:"rate_limit_wait_secs"`
}

// LimitsConfig sets the minimum spacing between lookups per source, in
// milliseconds. A zero interval leaves that source unthrottled.
type LimitsConfig struct {
	DefaultMS  int            `yaml:"default_ms" mapstructure:"default_ms"`
	PerSources map[string]int `yaml:"per_source" mapstructure:"per_source"`
}

// ServerConfig configures the status API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// BaseDelay returns the configured backoff unit.
func (r RetryConfig) BaseDelay() time.Duration {
	return time.Duration(r.BaseDelaySecs * float64(time.Second))
}

// RateLimitWait returns the configured rate-limit cool-down.
func (r RetryConfig) RateLimitWait() time.Duration {
	return time.Duration(r.RateLimitWaitSecs * float64(time.Second))
}

// Intervals converts the per-source spacing to durations.
func (l LimitsConfig) Intervals() map[string]time.Duration {
	out := make(map[string]time.Duration, len(l.PerSources))
	for source, ms := range l.PerSources {
		out[source] = time.Duration(ms) * time.Millisecond
	}
	return out
}

// DefaultInterval returns the fallback spacing for sources without an
// explicit entry.
func (l LimitsConfig) DefaultInterval() time.Duration {
	return time.Duration(l.DefaultMS) * time.Millisecond
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DOMAINWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "domainwatch.db")
	v.SetDefault("rdap.base_url", "https://rdap.verisign.com/com/v1")
	v.SetDefault("abstract.base_url", "https://emailvalidation.abstractapi.com/v1")
	v.SetDefault("abstract.key", "")
	v.SetDefault("slack.token", "")
	v.SetDefault("slack.channel", "")
	v.SetDefault("feed.url", "")
	v.SetDefault("feed.lookback_hours", 24)
	v.SetDefault("batch.concurrency", 5)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay_secs", 2.0)
	v.SetDefault("retry.rate_limit_wait_secs", 10.0)
	v.SetDefault("limits.default_ms", 500)
	v.SetDefault("limits.per_source", map[string]int{
		"rdap":     1000,
		"abstract": 1000,
		"dns":      100,
		"site":     250,
	})
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
