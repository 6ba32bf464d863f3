package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"grimm.is/dvr/internal/brand"
	"grimm.is/dvr/internal/client"
)

// defaultServer is the control plane URL used when --server is not given.
func defaultServer() string {
	if s := os.Getenv(brand.EnvKey("SERVER")); s != "" {
		return s
	}
	return brand.DefaultControlAddr
}

// RunRoutes implements "dvr routes <list|add|delete|watch>".
func RunRoutes(args []string) error {
	ctx, stop := signalContext()
	defer stop()
	return runRoutes(ctx, os.Stdout, args)
}

func runRoutes(ctx context.Context, w io.Writer, args []string) error {
	if len(args) == 0 {
		printRoutesUsage(w)
		return errors.New("missing routes subcommand")
	}

	sub, args := args[0], args[1:]
	fs := flag.NewFlagSet("routes "+sub, flag.ContinueOnError)
	fs.SetOutput(w)
	server := fs.String("server", defaultServer(), "Control plane URL")
	fs.StringVar(server, "s", defaultServer(), "Control plane URL (short)")
	format := fs.String("output", FormatTable, "Output format: table, json, yaml")
	fs.StringVar(format, "o", FormatTable, "Output format (short)")
	metric := fs.Int("metric", -1, "Route metric (add only; default: server default)")
	fs.IntVar(metric, "m", -1, "Route metric (short)")

	switch sub {
	case "list", "add", "delete", "watch":
	case "help", "-h", "--help":
		printRoutesUsage(w)
		return nil
	default:
		printRoutesUsage(w)
		return fmt.Errorf("unknown routes subcommand %q", sub)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkFormat(*format); err != nil {
		return err
	}
	c := client.NewHTTPClient(*server, client.WithTimeout(30*time.Second))

	switch sub {
	case "list":
		routes, err := c.ListRoutes(ctx)
		if err != nil {
			return err
		}
		return writeRoutes(w, *format, routes)

	case "add":
		if fs.NArg() != 2 {
			return fmt.Errorf("usage: %s routes add [--metric N] <destination> <next-hop>", brand.BinaryName)
		}
		var m *int
		if isFlagSet(fs, "metric", "m") {
			m = metric
		}
		if err := c.AddRoute(ctx, fs.Arg(0), fs.Arg(1), m); err != nil {
			return err
		}
		Printer.Fprintf(w, "Route added: %s -> %s (metric: %s)\n", fs.Arg(0), fs.Arg(1), metricString(m))
		return nil

	case "delete":
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: %s routes delete <destination>", brand.BinaryName)
		}
		if err := c.DeleteRoute(ctx, fs.Arg(0)); err != nil {
			return err
		}
		Printer.Fprintf(w, "Route deleted: %s\n", fs.Arg(0))
		return nil

	default: // watch
		return c.Watch(ctx, func(ev client.RouteEvent) error {
			return writeEvent(w, *format, ev)
		})
	}
}

func isFlagSet(fs *flag.FlagSet, names ...string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		for _, n := range names {
			if f.Name == n {
				set = true
			}
		}
	})
	return set
}

func printRoutesUsage(w io.Writer) {
	Printer.Fprintf(w, `Usage:
  %[1]s routes list   [--server URL] [-o table|json|yaml]
  %[1]s routes add    [--server URL] [--metric N] <destination> <next-hop>
  %[1]s routes delete [--server URL] <destination>
  %[1]s routes watch  [--server URL] [-o table|json|yaml]

The server defaults to $%[2]s or %[3]s.
`, brand.BinaryName, brand.EnvKey("SERVER"), brand.DefaultControlAddr)
}

// RunStats implements "dvr stats".
func RunStats(args []string) error {
	ctx, stop := signalContext()
	defer stop()
	return runStats(ctx, os.Stdout, args)
}

func runStats(ctx context.Context, w io.Writer, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(w)
	server := fs.String("server", defaultServer(), "Control plane URL")
	fs.StringVar(server, "s", defaultServer(), "Control plane URL (short)")
	format := fs.String("output", FormatTable, "Output format: table, json, yaml")
	fs.StringVar(format, "o", FormatTable, "Output format (short)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkFormat(*format); err != nil {
		return err
	}

	stats, err := client.NewHTTPClient(*server).Stats(ctx)
	if err != nil {
		return err
	}
	return writeStats(w, *format, stats, time.Now())
}

// metricString renders an optional metric for messages.
func metricString(m *int) string {
	if m == nil {
		return "default"
	}
	return strconv.Itoa(*m)
}
