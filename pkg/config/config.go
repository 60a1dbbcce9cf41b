package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ProviderConfig holds the upstream video provider settings.
type ProviderConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig bounds submissions per client IP.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ServerConfig captures runtime settings for the HTTP service.
type ServerConfig struct {
	ListenAddr   string          `mapstructure:"listen_addr"`
	Provider     ProviderConfig  `mapstructure:"provider"`
	RedisURL     string          `mapstructure:"redis_url"`
	CacheTTL     time.Duration   `mapstructure:"cache_ttl"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
	MaxBodyBytes int64           `mapstructure:"max_body_bytes"`
	LogLevel     string          `mapstructure:"log_level"`
	ServiceName  string          `mapstructure:"service_name"`
}

// ClientConfig captures settings for the animate CLI.
type ClientConfig struct {
	APIURL         string        `mapstructure:"api_url"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	LogLevel       string        `mapstructure:"log_level"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	v.SetEnvPrefix("ANIMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func load(v *viper.Viper, out any) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// LoadServer loads service configuration from defaults, files, and env vars.
// Nested keys map to env vars with underscores, e.g. ANIMATE_PROVIDER_API_KEY.
func LoadServer() (ServerConfig, error) {
	v := newViper()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("provider.base_url", "https://open.bigmodel.cn/api/paas/v4")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.model", "cogvideox-3")
	v.SetDefault("provider.timeout", 15*time.Second)
	v.SetDefault("redis_url", "")
	v.SetDefault("cache_ttl", time.Hour)
	v.SetDefault("rate_limit.requests", 10)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("max_body_bytes", 15<<20)
	v.SetDefault("log_level", "info")
	v.SetDefault("service_name", "animate-server")

	var cfg ServerConfig
	if err := load(v, &cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// LoadClient loads CLI configuration from defaults, files, and env vars.
func LoadClient() (ClientConfig, error) {
	v := newViper()

	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("poll_interval", 3*time.Second)
	v.SetDefault("max_attempts", 200)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("log_level", "warn")

	var cfg ClientConfig
	if err := load(v, &cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}
