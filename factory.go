package agriintel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	apiServiceName     = "api"
	weatherServiceName = "weather"

	defaultWeatherURL = "https://api.weatherapi.com/v1"
)

// ServiceOverrides holds per-family settings; zero fields inherit from the
// global configuration.
type ServiceOverrides struct {
	BaseURL    string
	Timeout    time.Duration
	Retries    *int
	RetryDelay time.Duration
	Cache      *CacheConfig
	RateLimit  *RateLimitConfig
}

// FactoryConfig is the configuration a Factory builds its services from.
type FactoryConfig struct {
	Global        ServiceConfig
	API           ServiceOverrides
	Weather       ServiceOverrides
	WeatherAPIKey string
}

// DefaultFactoryConfig uses DefaultServiceConfig globally and points the
// weather family at the public provider.
func DefaultFactoryConfig() FactoryConfig {
	return FactoryConfig{
		Global:  DefaultServiceConfig(),
		Weather: ServiceOverrides{BaseURL: defaultWeatherURL},
	}
}

func merge(global ServiceConfig, o ServiceOverrides) ServiceConfig {
	cfg := global
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	if o.Timeout > 0 {
		cfg.Timeout = o.Timeout
	}
	if o.Retries != nil {
		cfg.Retries = *o.Retries
	}
	if o.RetryDelay > 0 {
		cfg.RetryDelay = o.RetryDelay
	}
	if o.Cache != nil {
		cfg.Cache = *o.Cache
	}
	if o.RateLimit != nil {
		cfg.RateLimit = *o.RateLimit
	}
	return cfg
}

// Factory lazily builds and memoises one service per family. Services built
// by the same factory share its options (logger, metrics, tracer) but each
// owns its cache, rate limiter and in-flight registry.
type Factory struct {
	mu      sync.Mutex
	config  FactoryConfig
	options []Option

	api     *APIService
	weather *WeatherService
}

// NewFactory returns a factory; options are applied to every service it builds.
func NewFactory(config FactoryConfig, options ...Option) *Factory {
	return &Factory{config: config, options: options}
}

// Configure replaces the configuration. Services already handed out keep
// working with the old settings; later calls build fresh ones.
func (f *Factory) Configure(config FactoryConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.config = config
	f.api = nil
	f.weather = nil
}

// Config returns the current configuration.
func (f *Factory) Config() FactoryConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.config
}

// APIService returns the memoised API service, building it on first use.
func (f *Factory) APIService() (*APIService, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.api != nil {
		return f.api, nil
	}
	base, err := NewBaseService(apiServiceName, merge(f.config.Global, f.config.API), f.options...)
	if err != nil {
		return nil, fmt.Errorf("build api service: %w", err)
	}
	f.api = NewAPIService(base)
	return f.api, nil
}

// WeatherService returns the memoised weather service, building it on first use.
func (f *Factory) WeatherService() (*WeatherService, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.weather != nil {
		return f.weather, nil
	}
	base, err := NewBaseService(weatherServiceName, merge(f.config.Global, f.config.Weather), f.options...)
	if err != nil {
		return nil, fmt.Errorf("build weather service: %w", err)
	}
	f.weather = NewWeatherService(base, f.config.WeatherAPIKey)
	return f.weather, nil
}

// Reset drops every memoised service.
func (f *Factory) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.api = nil
	f.weather = nil
}

// HealthStatus probes every service family concurrently. The overall status is
// healthy when all are up, degraded when some are, unhealthy when none are.
func (f *Factory) HealthStatus(ctx context.Context) HealthCheckResult {
	began := time.Now()
	type family struct {
		name  string
		check func(context.Context) (HealthCheckResult, error)
	}
	families := []family{
		{apiServiceName, func(ctx context.Context) (HealthCheckResult, error) {
			svc, err := f.APIService()
			if err != nil {
				return HealthCheckResult{}, err
			}
			return svc.Base().HealthCheck(ctx), nil
		}},
		{weatherServiceName, func(ctx context.Context) (HealthCheckResult, error) {
			svc, err := f.WeatherService()
			if err != nil {
				return HealthCheckResult{}, err
			}
			return svc.HealthCheck(ctx), nil
		}},
	}

	results := make([]HealthCheckResult, len(families))
	g, gctx := errgroup.WithContext(ctx)
	for i, fam := range families {
		i, fam := i, fam // per-iteration copies (module targets go 1.21 loop semantics)
		g.Go(func() error {
			result, err := fam.check(gctx)
			if err != nil {
				result = HealthCheckResult{Status: StatusUnhealthy, Error: err.Error()}
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	overall := HealthCheckResult{Services: make(map[string]string, len(families))}
	up := 0
	for i, fam := range families {
		if results[i].Healthy() {
			up++
			overall.Services[fam.name] = "up"
			if state := results[i].Services[fam.name]; state != "" {
				overall.Services[fam.name] = state
			}
			continue
		}
		overall.Services[fam.name] = "down"
		if overall.Error == "" && results[i].Error != "" {
			overall.Error = fam.name + ": " + results[i].Error
		}
	}

	switch {
	case up == len(families):
		overall.Status = StatusHealthy
	case up > 0:
		overall.Status = StatusDegraded
	default:
		overall.Status = StatusUnhealthy
	}
	overall.Latency = time.Since(began)
	return overall
}
