package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agrictl.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("TEST_WEATHER_KEY", "secret-key")

	cfg, err := Load(writeConfig(t, `
weather:
  api_key: ${TEST_WEATHER_KEY}
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Weather.APIKey != "secret-key" {
		t.Errorf("Expected api key secret-key, got %s", cfg.Weather.APIKey)
	}
	if cfg.Weather.BaseURL != "https://api.weatherapi.com/v1" {
		t.Errorf("Expected default weather URL to survive, got %s", cfg.Weather.BaseURL)
	}
}

func TestLoad_Durations(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
defaults:
  timeout: 3s
  retries: 0
  retry_delay: 250ms
  cache:
    enabled: false
  rate_limit:
    requests: 10
    window: 30s
api:
  base_url: http://api.internal:8080/api
logging:
  level: debug
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	fc := cfg.FactoryConfig()
	if fc.Global.Timeout != 3*time.Second {
		t.Errorf("Expected timeout 3s, got %v", fc.Global.Timeout)
	}
	if fc.Global.Retries != 0 {
		t.Errorf("Expected explicit zero retries, got %d", fc.Global.Retries)
	}
	if fc.Global.RetryDelay != 250*time.Millisecond {
		t.Errorf("Expected retry delay 250ms, got %v", fc.Global.RetryDelay)
	}
	if fc.Global.Cache.Enabled {
		t.Error("Expected cache disabled")
	}
	if fc.Global.Cache.TTL != 5*time.Minute {
		t.Errorf("Expected default cache TTL, got %v", fc.Global.Cache.TTL)
	}
	if fc.Global.RateLimit.Requests != 10 || fc.Global.RateLimit.Window != 30*time.Second {
		t.Errorf("Unexpected rate limit %+v", fc.Global.RateLimit)
	}
	if fc.Global.BaseURL != "http://api.internal:8080/api" {
		t.Errorf("Unexpected base URL %s", fc.Global.BaseURL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected debug level, got %s", cfg.Logging.Level)
	}
	if err := fc.Global.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "defaults: [unclosed")); err == nil {
		t.Fatal("Expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("NEXT_PUBLIC_API_URL", "https://farm.example.com/api")
	t.Setenv("WEATHER_API_KEY", "k")
	t.Setenv("WEATHER_API_URL", "https://weather.example.com")
	t.Setenv("AGRI_LOG_LEVEL", "warn")

	cfg := Default()
	ApplyEnv(cfg)

	if cfg.API.BaseURL != "https://farm.example.com/api" {
		t.Errorf("Unexpected API URL %s", cfg.API.BaseURL)
	}
	if cfg.Weather.APIKey != "k" || cfg.Weather.BaseURL != "https://weather.example.com" {
		t.Errorf("Unexpected weather config %+v", cfg.Weather)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Unexpected level %s", cfg.Logging.Level)
	}

	fc := cfg.FactoryConfig()
	if fc.Global.BaseURL != "https://farm.example.com/api" {
		t.Errorf("Expected API URL to become the global base, got %s", fc.Global.BaseURL)
	}
	if fc.Weather.BaseURL != "https://weather.example.com" {
		t.Errorf("Expected weather override, got %s", fc.Weather.BaseURL)
	}
}

func TestCircuitBreakerOption(t *testing.T) {
	cfg := Default()
	if _, ok := cfg.CircuitBreakerOption(); ok {
		t.Error("Expected breaker disabled by default")
	}
	cfg.CircuitBreaker = CircuitBreakerConfig{Enabled: true, FailureThreshold: 3, RecoveryTimeout: time.Second}
	cb, ok := cfg.CircuitBreakerOption()
	if !ok || cb.FailureThreshold != 3 || cb.RecoveryTimeout != time.Second {
		t.Errorf("Unexpected breaker option %+v %v", cb, ok)
	}
}
