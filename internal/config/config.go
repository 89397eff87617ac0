package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"
)

// Config stores all configuration for the application.
type Config struct {
	SearchBaseURL   string `mapstructure:"SEARCH_BASE_URL"`
	Proxies         string `mapstructure:"PROXIES"`
	ProxyAllSchemes bool   `mapstructure:"PROXY_ALL_SCHEMES"`
	FetchMode       string `mapstructure:"FETCH_MODE"`
	FetchTimeout    int    `mapstructure:"FETCH_TIMEOUT"` // in seconds, 0 disables
	EnrichWorkers   int    `mapstructure:"ENRICH_WORKERS"`
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	CacheTTLMinutes int    `mapstructure:"CACHE_TTL_MINUTES"`
	ServerPort      string `mapstructure:"SERVER_PORT"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
}

// Load reads configuration from the given .env file (if present) and environment variables.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// A missing file is fine; environment variables alone are enough.
	_ = v.ReadInConfig()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	// AutomaticEnv only resolves keys viper already knows about, so every key gets a default.
	v.SetDefault("SEARCH_BASE_URL", "https://github.com")
	v.SetDefault("PROXIES", "")
	v.SetDefault("PROXY_ALL_SCHEMES", false)
	v.SetDefault("FETCH_MODE", FetchModeHTTP)
	v.SetDefault("FETCH_TIMEOUT", 0)
	v.SetDefault("ENRICH_WORKERS", 1)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CACHE_TTL_MINUTES", 60)
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
}

// Validate checks values that cannot be defaulted away.
func (c *Config) Validate() error {
	switch c.FetchMode {
	case FetchModeHTTP, FetchModeBrowser:
	default:
		return fmt.Errorf("config: FETCH_MODE must be %q or %q, got %q", FetchModeHTTP, FetchModeBrowser, c.FetchMode)
	}
	if c.EnrichWorkers < 1 {
		return fmt.Errorf("config: ENRICH_WORKERS must be at least 1, got %d", c.EnrichWorkers)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("config: FETCH_TIMEOUT must not be negative, got %d", c.FetchTimeout)
	}
	c.SearchBaseURL = strings.TrimRight(c.SearchBaseURL, "/")
	if u, err := url.Parse(c.SearchBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: SEARCH_BASE_URL must be an absolute URL, got %q", c.SearchBaseURL)
	}
	return nil
}

// ProxyList splits PROXIES into its non-empty entries.
func (c *Config) ProxyList() []string {
	var out []string
	for _, p := range strings.Split(c.Proxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Timeout returns the fetch timeout; zero means none.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

// CacheTTL returns how long cached pages stay valid.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}
