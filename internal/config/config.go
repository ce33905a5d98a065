package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Queue       QueueConfig       `yaml:"queue" mapstructure:"queue"`
	Firecrawl   FirecrawlConfig   `yaml:"firecrawl" mapstructure:"firecrawl"`
	Fetch       FetchConfig       `yaml:"fetch" mapstructure:"fetch"`
	Alibaba     AlibabaConfig     `yaml:"alibaba" mapstructure:"alibaba"`
	MadeInChina MadeInChinaConfig `yaml:"made_in_china" mapstructure:"made_in_china"`
	Anthropic   AnthropicConfig   `yaml:"anthropic" mapstructure:"anthropic"`
	Agent       AgentConfig       `yaml:"agent" mapstructure:"agent"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// CacheConfig configures the fetched-page cache backend.
type CacheConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	TTLHours    int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// QueueConfig bounds concurrency against the scraping backend.
type QueueConfig struct {
	Limit int `yaml:"limit" mapstructure:"limit"`
}

// FirecrawlConfig holds scraping backend API settings.
type FirecrawlConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// FetchConfig tunes direct browser-style fetching of marketplace pages.
type FetchConfig struct {
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Burst          int     `yaml:"burst" mapstructure:"burst"`
	ProxiesFile    string  `yaml:"proxies_file" mapstructure:"proxies_file"`
}

// AlibabaConfig tunes the Alibaba search service.
type AlibabaConfig struct {
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	WaitForMS int    `yaml:"wait_for_ms" mapstructure:"wait_for_ms"`
}

// MadeInChinaConfig tunes the Made-in-China search service.
type MadeInChinaConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// AgentConfig tunes the sourcing agent loop.
type AgentConfig struct {
	MaxRounds int `yaml:"max_rounds" mapstructure:"max_rounds"`
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SUPPLIERCANVAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.path", "suppliercanvas.db")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("queue.limit", 3)
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("firecrawl.timeout_secs", 60)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.requests_per_sec", 2)
	v.SetDefault("fetch.burst", 1)
	v.SetDefault("fetch.proxies_file", "proxies.yaml")
	v.SetDefault("alibaba.base_url", "https://www.alibaba.com")
	v.SetDefault("alibaba.wait_for_ms", 3000)
	v.SetDefault("made_in_china.base_url", "https://www.made-in-china.com")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("agent.max_rounds", 6)
	v.SetDefault("agent.max_tokens", 2048)
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

// Validate checks that the configuration can support the named mode
// ("search", "serve", or "cache"). Problems are joined into one error so
// a misconfigured run reports everything at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Cache.Driver {
	case "sqlite":
		if c.Cache.Path == "" {
			problems = append(problems, "cache.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Cache.DatabaseURL == "" {
			problems = append(problems, "cache.database_url is required for the postgres driver")
		}
	case "none":
	default:
		problems = append(problems, fmt.Sprintf("cache.driver must be sqlite, postgres, or none (got %q)", c.Cache.Driver))
	}
	if c.Queue.Limit < 1 || c.Queue.Limit > 20 {
		problems = append(problems, "queue.limit must be between 1 and 20")
	}
	if c.Fetch.RequestsPerSec <= 0 {
		problems = append(problems, "fetch.requests_per_sec must be > 0")
	}

	switch mode {
	case "search", "cache":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
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
