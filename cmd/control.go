package cmd

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/sync/errgroup"

	"grimm.is/dvr/internal/api"
	"grimm.is/dvr/internal/audit"
	"grimm.is/dvr/internal/ctlplane"
	"grimm.is/dvr/internal/events"
	"grimm.is/dvr/internal/metrics"
)

// RunControl runs the control plane API until SIGINT or SIGTERM.
func RunControl(configFile string, explicit bool) error {
	ctx, stop := signalContext()
	defer stop()
	return runControl(ctx, configFile, explicit, nil)
}

// runControl is RunControl with an injectable context. ready, if non-nil,
// receives the API listen address once the server accepts connections.
func runControl(ctx context.Context, configFile string, explicit bool, ready chan<- string) error {
	cfg, warnings, err := loadConfig(configFile, explicit)
	if err != nil {
		return err
	}
	logger := initLogging(cfg)
	logWarnings(logger, warnings)
	cpCfg := cfg.ControlPlane

	var reg *metrics.Registry
	if cpCfg.MetricsListen != "" {
		reg = metrics.Get()
	}

	hub := events.NewHub()

	// The recorder subscribes before the plane exists so the seeds are journaled.
	if cpCfg.AuditDB != "" {
		store, err := audit.NewStore(cpCfg.AuditDB, cpCfg.AuditRetain)
		if err != nil {
			return err
		}
		defer store.Close()

		recorder := audit.NewRecorder(store, hub, logger)
		recorder.Start()
		defer recorder.Stop()
		logger.Info("Route journal enabled", "path", cpCfg.AuditDB)
	}

	cp := ctlplane.New(ctlplane.Options{
		Logger:  logger,
		Metrics: reg,
		Hub:     hub,
		Seeds:   cfg.SeedRoutes(),
	})

	srvCfg := api.DefaultServerConfig()
	srvCfg.MaxBodyBytes = cpCfg.MaxBodyBytes
	srvCfg.MaxConnections = cpCfg.ConnectionLimit()
	srv, err := api.NewServer(api.ServerOptions{
		ControlPlane: cp,
		Logger:       logger,
		Metrics:      reg,
		Config:       srvCfg,
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cpCfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cpCfg.Listen, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ln)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down control plane")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if reg != nil {
		if err := serveMetrics(gctx, g, cpCfg.MetricsListen, reg, logger); err != nil {
			cancel()
			ln.Close()
			_ = g.Wait()
			return err
		}
	}

	printControlBanner(ln.Addr().String())
	if ready != nil {
		ready <- ln.Addr().String()
	}

	return g.Wait()
}

func printControlBanner(addr string) {
	base := "http://" + addr
	Printer.Printf("DVR control plane listening on %s\n", base)
	Printer.Printf("Endpoints:\n")
	Printer.Printf("  GET    %s/routes                  List all routes\n", base)
	Printer.Printf("  POST   %s/routes                  Add a route\n", base)
	Printer.Printf("  DELETE %s/routes?destination=X    Delete a route\n", base)
	Printer.Printf("  GET    %s/stats                   Statistics\n", base)
	Printer.Printf("  GET    %s/health                  Health check\n", base)
	Printer.Printf("  GET    %s/routes/watch            Route change stream (WebSocket)\n", base)
	Printer.Printf("Press Ctrl+C to stop\n")
}
