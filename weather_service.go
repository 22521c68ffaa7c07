package agriintel

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
)

const healthLocation = "London"

// Weather is the current conditions at a location.
type Weather struct {
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	Condition   string  `json:"condition"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	// Mock is set when the data is the static fallback rather than a provider answer.
	Mock bool `json:"mock,omitempty"`
}

// MockWeather is served when no provider key is configured or the provider
// rejects the key.
func MockWeather(location string) Weather {
	return Weather{
		Location:    location,
		Temperature: 22,
		Condition:   "Partly cloudy",
		Humidity:    65,
		WindSpeed:   12,
		Mock:        true,
	}
}

// WeatherService fetches conditions from the external weather provider.
type WeatherService struct {
	base   *BaseService
	apiKey string
}

// NewWeatherService wires the weather provider onto base. An empty apiKey
// makes every call return MockWeather without touching the network.
func NewWeatherService(base *BaseService, apiKey string) *WeatherService {
	return &WeatherService{base: base, apiKey: apiKey}
}

// Base returns the underlying request pipeline.
func (w *WeatherService) Base() *BaseService { return w.base }

// CurrentWeather returns conditions for location. Missing credentials and
// AUTH_ERROR responses degrade to a successful envelope with mock data.
func (w *WeatherService) CurrentWeather(ctx context.Context, location string) ServiceResponse[Weather] {
	location = strings.TrimSpace(location)
	if w.apiKey == "" {
		w.base.logger.Debug("Weather API key not configured, using mock data", "service", w.base.name, "location", location)
		return w.mock(location)
	}

	resp := Request[Weather](ctx, w.base, "/weather/"+url.PathEscape(location), RequestOptions{
		Params:   url.Values{"key": {w.apiKey}},
		CacheTTL: 10 * time.Minute,
		Route:    "/weather/{location}",
	})
	if !resp.Success && (resp.Code == CodeAuth || errors.Is(resp.Err, ErrAuth)) {
		w.base.logger.Warn("Weather provider rejected credentials, using mock data", "service", w.base.name, "location", location)
		return w.mock(location)
	}
	return resp
}

// HealthCheck reports the provider's state. Without a key the service runs
// on mock data and reports healthy; with one it asks the provider for the
// conditions at a fixed location.
func (w *WeatherService) HealthCheck(ctx context.Context) HealthCheckResult {
	if w.apiKey == "" {
		return HealthCheckResult{Status: StatusHealthy, Services: map[string]string{w.base.name: "mock"}}
	}
	return w.base.probe(ctx, "/weather/"+url.PathEscape(healthLocation), url.Values{"key": {w.apiKey}})
}

func (w *WeatherService) mock(location string) ServiceResponse[Weather] {
	data := MockWeather(location)
	return successResponse(&data, ResponseMetadata{
		Timestamp: w.base.now(),
		RequestID: w.base.requestID(),
	})
}
