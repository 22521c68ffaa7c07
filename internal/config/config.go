package config

import (
	"time"

	agriintel "github.com/MorokaPrince/AgriIntelV3-sub000"
)

// Config is the on-disk configuration of agrictl.
type Config struct {
	Defaults       DefaultsConfig       `yaml:"defaults"`
	API            EndpointConfig       `yaml:"api"`
	Weather        WeatherConfig        `yaml:"weather"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Logging        LoggingConfig        `yaml:"logging"`
	Metrics        MetricsConfig        `yaml:"metrics"`
}

type DefaultsConfig struct {
	Timeout    time.Duration   `yaml:"timeout"`
	Retries    *int            `yaml:"retries"`
	RetryDelay time.Duration   `yaml:"retry_delay"`
	Cache      CacheConfig     `yaml:"cache"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
}

type CacheConfig struct {
	Enabled *bool         `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	MaxSize int           `yaml:"max_size"`
}

type RateLimitConfig struct {
	Requests *int          `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// EndpointConfig overrides the defaults for one service family.
type EndpointConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	Retries    *int          `yaml:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

type WeatherConfig struct {
	EndpointConfig `yaml:",inline"`
	APIKey         string `yaml:"api_key"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Weather: WeatherConfig{EndpointConfig: EndpointConfig{BaseURL: "https://api.weatherapi.com/v1"}},
		Logging: LoggingConfig{Level: "info"},
	}
}

// FactoryConfig translates the file settings into a factory configuration.
func (c *Config) FactoryConfig() agriintel.FactoryConfig {
	global := agriintel.DefaultServiceConfig()
	d := c.Defaults
	if d.Timeout > 0 {
		global.Timeout = d.Timeout
	}
	if d.Retries != nil {
		global.Retries = *d.Retries
	}
	if d.RetryDelay > 0 {
		global.RetryDelay = d.RetryDelay
	}
	if d.Cache.Enabled != nil {
		global.Cache.Enabled = *d.Cache.Enabled
	}
	if d.Cache.TTL > 0 {
		global.Cache.TTL = d.Cache.TTL
	}
	if d.Cache.MaxSize > 0 {
		global.Cache.MaxSize = d.Cache.MaxSize
	}
	if d.RateLimit.Requests != nil {
		global.RateLimit.Requests = *d.RateLimit.Requests
	}
	if d.RateLimit.Window > 0 {
		global.RateLimit.Window = d.RateLimit.Window
	}
	if c.API.BaseURL != "" {
		global.BaseURL = c.API.BaseURL
	}

	return agriintel.FactoryConfig{
		Global:        global,
		API:           c.API.overrides(),
		Weather:       c.Weather.overrides(),
		WeatherAPIKey: c.Weather.APIKey,
	}
}

func (e EndpointConfig) overrides() agriintel.ServiceOverrides {
	return agriintel.ServiceOverrides{
		BaseURL:    e.BaseURL,
		Timeout:    e.Timeout,
		Retries:    e.Retries,
		RetryDelay: e.RetryDelay,
	}
}

// CircuitBreakerOption returns the breaker settings, or false when disabled.
func (c *Config) CircuitBreakerOption() (agriintel.CircuitBreakerConfig, bool) {
	if !c.CircuitBreaker.Enabled {
		return agriintel.CircuitBreakerConfig{}, false
	}
	return agriintel.CircuitBreakerConfig{
		FailureThreshold: c.CircuitBreaker.FailureThreshold,
		RecoveryTimeout:  c.CircuitBreaker.RecoveryTimeout,
	}, true
}
