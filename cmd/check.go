package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"grimm.is/dvr/internal/brand"
	"grimm.is/dvr/internal/config"
)

// RunCheck validates the configuration file syntax and semantics.
func RunCheck(configFile string, verbose bool) error {
	return runCheck(os.Stdout, configFile, verbose)
}

func runCheck(w io.Writer, configFile string, verbose bool) error {
	if len(configFile) == 0 {
		return fmt.Errorf("usage: %s check [-v] <config-file>\nExample: %s check -v %s",
			brand.BinaryName, brand.BinaryName, brand.DefaultConfigPath())
	}

	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	verrs := cfg.Validate()
	for _, warn := range verrs.Warnings() {
		Printer.Fprintf(w, "Warning: %s\n", warn.Error())
	}
	if verrs.HasErrors() {
		return fmt.Errorf("configuration invalid: %w", verrs)
	}

	Printer.Fprintf(w, "Configuration valid!\n")
	Printer.Fprintf(w, "Schema Version: %s\n", cfg.SchemaVersion)
	Printer.Fprintf(w, "Control plane listen: %s\n", cfg.ControlPlane.Listen)
	Printer.Fprintf(w, "Data plane interval: %s\n", cfg.DataPlane.IntervalDuration())
	Printer.Fprintf(w, "Static routes: %d\n", len(cfg.StaticRoutes))

	if verbose {
		Printer.Fprintln(w)
		printSummary(w, cfg)
	}
	return nil
}

func printSummary(out io.Writer, cfg *config.Config) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	cp := cfg.ControlPlane
	Printer.Fprintln(w, "SETTING\tVALUE")
	Printer.Fprintf(w, "log_level\t%s\n", cfg.LogLevel)
	Printer.Fprintf(w, "control_plane.metrics_listen\t%s\n", orDash(cp.MetricsListen))
	Printer.Fprintf(w, "control_plane.audit_db\t%s\n", orDash(cp.AuditDB))
	Printer.Fprintf(w, "data_plane.packets_per_tick\t%v\n", cfg.DataPlane.PacketsPerTick)
	Printer.Fprintf(w, "data_plane.metrics_listen\t%s\n", orDash(cfg.DataPlane.MetricsListen))
	Printer.Fprintln(w)
	w.Flush()

	Printer.Fprintln(out, "Seed routes:")
	writeRouteTable(out, cfg.SeedRoutes())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
