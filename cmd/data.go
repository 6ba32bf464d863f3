package cmd

import (
	"context"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"grimm.is/dvr/internal/dataplane"
	"grimm.is/dvr/internal/metrics"
)

// RunData initializes and starts the data plane, then waits for SIGINT or
// SIGTERM and prints the final statistics.
func RunData(configFile string, explicit bool) error {
	ctx, stop := signalContext()
	defer stop()
	return runData(ctx, configFile, explicit, os.Stdout)
}

func runData(ctx context.Context, configFile string, explicit bool, out io.Writer) error {
	cfg, warnings, err := loadConfig(configFile, explicit)
	if err != nil {
		return err
	}
	logger := initLogging(cfg)
	logWarnings(logger, warnings)
	dpCfg := cfg.DataPlane

	var reg *metrics.Registry
	if dpCfg.MetricsListen != "" {
		reg = metrics.Get()
	}

	dp := dataplane.New(dataplane.Options{
		Logger:         logger,
		Metrics:        reg,
		Interval:       dpCfg.IntervalDuration(),
		PacketsPerTick: dpCfg.PacketsPerTick,
		ProgressEvery:  dpCfg.ProgressEvery,
		Seeds:          cfg.SeedRoutes(),
	})

	Printer.Fprintf(out, "Starting DVR data plane...\n")
	if err := dp.Initialize(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if reg != nil {
		if err := serveMetrics(gctx, g, dpCfg.MetricsListen, reg, logger); err != nil {
			return err
		}
	}

	dp.Start()
	Printer.Fprintf(out, "Data plane running. Press Ctrl+C to stop.\n")

	<-gctx.Done()
	logger.Info("Shutting down data plane")
	dp.Stop()

	if err := g.Wait(); err != nil {
		return err
	}
	return dp.ShowStats(out)
}
