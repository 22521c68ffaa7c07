// Package agriintel is the resilient service layer of the AgriIntel livestock
// dashboard. Every call to a backend goes through one pipeline:
//
//   - GET response caching with a TTL and a bounded, first-in-first-out store
//   - Fixed-window rate limiting per method and path
//   - De-duplication of identical in-flight requests
//   - Classified retries with exponential backoff, honouring Retry-After
//   - A per-attempt timeout and an optional circuit breaker
//   - Prometheus metrics, OpenTelemetry spans and slog debug logging
//
// Callers never see an error return or a panic. Each request resolves to a
// ServiceResponse whose Success flag is the only thing to branch on; failures
// carry a stable ErrorCode and a display message.
//
// Typical usage:
//
//	factory := agriintel.NewFactory(agriintel.DefaultFactoryConfig(),
//	    agriintel.WithLogger(agriintel.NewConsoleLogger(os.Stderr, slog.LevelInfo)),
//	    agriintel.WithMetrics(agriintel.NewMetricsCollector(nil)),
//	)
//	api, err := factory.APIService()
//	if err != nil {
//	    return err
//	}
//	resp := api.Animals.List(ctx, agriintel.ListOptions{Page: 1, Limit: 10})
//	if !resp.Success {
//	    return fmt.Errorf("list animals: %s", resp.Error)
//	}
//
// Services built by one Factory share its logger, metrics collector and
// tracer, but each keeps its own cache, limiter and in-flight registry.
package agriintel
