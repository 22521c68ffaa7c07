package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	agriintel "github.com/MorokaPrince/AgriIntelV3-sub000"
	"github.com/MorokaPrince/AgriIntelV3-sub000/internal/config"
)

var (
	cfgPath     string
	isDebug     bool
	metricsAddr string
	outputJSON  bool
)

var rootCmd = &cobra.Command{
	Use:           "agrictl",
	Short:         "Query the AgriIntel dashboard services",
	Long:          `agrictl talks to the AgriIntel livestock API and weather provider through the resilient service layer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       agriintel.Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(agriintel.GetVersion() + "\n")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "agrictl.yaml", "config file")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "print the raw response envelope as JSON")
}

// env holds what every subcommand needs.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	factory *agriintel.Factory
	stop    func()
}

func setup(cmd *cobra.Command) (*env, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.Default()
	case err != nil:
		return nil, err
	}
	config.ApplyEnv(cfg)

	level := agriintel.ParseLogLevel(cfg.Logging.Level)
	if isDebug {
		level = slog.LevelDebug
	}
	logger := agriintel.NewConsoleLogger(os.Stderr, level)
	slog.SetDefault(logger)

	registry := prometheus.NewRegistry()
	options := []agriintel.Option{
		agriintel.WithLogger(logger),
		agriintel.WithMetrics(agriintel.NewMetricsCollector(registry)),
	}
	if cb, ok := cfg.CircuitBreakerOption(); ok {
		options = append(options, agriintel.WithCircuitBreaker(cb))
	}

	e := &env{
		cfg:     cfg,
		logger:  logger,
		factory: agriintel.NewFactory(cfg.FactoryConfig(), options...),
		stop:    func() {},
	}

	addr := metricsAddr
	if addr == "" {
		addr = cfg.Metrics.Addr
	}
	if addr != "" {
		e.stop = serveMetrics(addr, registry, logger)
	}
	return e, nil
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()
	return func() {
		_ = srv.Close()
	}
}

func failure[T any](resp agriintel.ServiceResponse[T]) error {
	return fmt.Errorf("%s: %s", resp.Code, resp.Error)
}
