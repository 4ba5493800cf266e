package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	// Domain is the public base address under which mirrored images are served.
	Domain   string `mapstructure:"DOMAIN"`
	ImageDir string `mapstructure:"IMAGE_DIR"`

	AppID         string `mapstructure:"APP_ID"`
	AppSecret     string `mapstructure:"APP_SECRET"`
	WechatAPIBase string `mapstructure:"WECHAT_API_BASE"`

	ContentSource   string `mapstructure:"CONTENT_SOURCE"` // "api" or "browser"
	ConvertAPIURL   string `mapstructure:"CONVERT_API_URL"`
	PageLoadTimeout int    `mapstructure:"PAGE_LOAD_TIMEOUT_SECONDS"`

	FetchTimeout      int    `mapstructure:"FETCH_TIMEOUT_SECONDS"`
	FetchMaxBytes     int64  `mapstructure:"FETCH_MAX_BYTES"`
	ConvertTimeout    int    `mapstructure:"CONVERT_TIMEOUT_SECONDS"`
	TokenSafetyMargin int    `mapstructure:"TOKEN_SAFETY_MARGIN_SECONDS"`
	Proxies           string `mapstructure:"PROXIES"`

	PostgresURL   string `mapstructure:"POSTGRES_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	CacheTTLHours int    `mapstructure:"CACHE_TTL_HOURS"`
}

var knownKeys = []string{
	"SERVER_PORT", "LOG_LEVEL", "DOMAIN", "IMAGE_DIR",
	"APP_ID", "APP_SECRET", "WECHAT_API_BASE",
	"CONTENT_SOURCE", "CONVERT_API_URL", "PAGE_LOAD_TIMEOUT_SECONDS",
	"FETCH_TIMEOUT_SECONDS", "FETCH_MAX_BYTES", "CONVERT_TIMEOUT_SECONDS",
	"TOKEN_SAFETY_MARGIN_SECONDS", "PROXIES",
	"POSTGRES_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "CACHE_TTL_HOURS",
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	return load(viper.New(), ".env")
}

func load(v *viper.Viper, envFile string) (*Config, error) {
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// The .env file is optional; production is configured through the environment only.
	_ = v.ReadInConfig()

	v.SetDefault("SERVER_PORT", "3001")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DOMAIN", "https://mp.kloud.cn")
	v.SetDefault("IMAGE_DIR", "public/images")
	v.SetDefault("WECHAT_API_BASE", "https://api.weixin.qq.com")
	v.SetDefault("CONTENT_SOURCE", "api")
	v.SetDefault("CONVERT_API_URL", "https://yiban.io/api/abtest/fetch_wx_article")
	v.SetDefault("PAGE_LOAD_TIMEOUT_SECONDS", 60)
	v.SetDefault("FETCH_TIMEOUT_SECONDS", 15)
	v.SetDefault("FETCH_MAX_BYTES", 20<<20)
	v.SetDefault("CONVERT_TIMEOUT_SECONDS", 120)
	v.SetDefault("TOKEN_SAFETY_MARGIN_SECONDS", 60)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL_HOURS", 48)

	// AutomaticEnv only resolves keys viper already knows about during Unmarshal.
	for _, key := range knownKeys {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Domain = strings.TrimRight(cfg.Domain, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.Domain == "" {
		return errors.New("DOMAIN must not be empty")
	}
	if c.ContentSource != "api" && c.ContentSource != "browser" {
		return errors.New("CONTENT_SOURCE must be \"api\" or \"browser\"")
	}
	if c.FetchTimeout <= 0 || c.ConvertTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.TokenSafetyMargin < 0 {
		return errors.New("TOKEN_SAFETY_MARGIN_SECONDS must not be negative")
	}
	return nil
}

// PlatformEnabled reports whether credentials for the content platform are configured.
func (c *Config) PlatformEnabled() bool {
	return c.AppID != "" && c.AppSecret != ""
}

// ProxyList splits PROXIES into its entries.
func (c *Config) ProxyList() []string {
	var out []string
	for _, p := range strings.Split(c.Proxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

func (c *Config) ConvertTimeoutDuration() time.Duration {
	return time.Duration(c.ConvertTimeout) * time.Second
}

func (c *Config) PageLoadTimeoutDuration() time.Duration {
	return time.Duration(c.PageLoadTimeout) * time.Second
}

func (c *Config) TokenSafetyMarginDuration() time.Duration {
	return time.Duration(c.TokenSafetyMargin) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}
