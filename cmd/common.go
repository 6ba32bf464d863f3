package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"grimm.is/dvr/internal/brand"
	"grimm.is/dvr/internal/config"
	"grimm.is/dvr/internal/i18n"
	"grimm.is/dvr/internal/logging"
	"grimm.is/dvr/internal/metrics"
)

// Printer is the global message printer for the CLI
var Printer = i18n.NewCLIPrinter()

const shutdownTimeout = 10 * time.Second

// loadConfig loads configFile, falling back to built-in defaults when the
// file is absent and was not named explicitly. Environment overrides are
// applied and the result is validated; warnings are returned for logging.
func loadConfig(configFile string, explicit bool) (*config.Config, config.ValidationErrors, error) {
	cfg, err := config.LoadFile(configFile)
	switch {
	case errors.Is(err, config.ErrNoConfig) && !explicit:
		cfg = config.Default()
	case err != nil:
		return nil, nil, err
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, nil, err
	}

	verrs := cfg.Validate()
	if verrs.HasErrors() {
		return nil, nil, fmt.Errorf("configuration invalid: %w", verrs)
	}
	return cfg, verrs.Warnings(), nil
}

// initLogging installs the process-wide logger described by cfg.
func initLogging(cfg *config.Config) *logging.Logger {
	level, _ := logging.ParseLevel(cfg.LogLevel)
	logging.SetProcessName(brand.BinaryName)

	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.JSON = cfg.LogJSON

	logger := logging.New(logCfg)
	logging.SetDefault(logger)
	return logger
}

func logWarnings(logger *logging.Logger, warnings config.ValidationErrors) {
	for _, w := range warnings {
		logger.Warn("Configuration warning", "field", w.Field, "message", w.Message)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// serveMetrics runs a Prometheus listener in g until ctx is done.
func serveMetrics(ctx context.Context, g *errgroup.Group, addr string, reg *metrics.Registry, logger *logging.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("Metrics listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return nil
}
