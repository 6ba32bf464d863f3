package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v2"

	"grimm.is/dvr/internal/client"
	"grimm.is/dvr/internal/routing"
)

// Output formats accepted by -o.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	}
	return checkFormat(format)
}

func writeRoutes(w io.Writer, format string, routes []routing.Route) error {
	if format == FormatTable {
		writeRouteTable(w, routes)
		return nil
	}
	if routes == nil {
		routes = []routing.Route{}
	}
	return writeStructured(w, format, routes)
}

func writeRouteTable(out io.Writer, routes []routing.Route) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	Printer.Fprintln(w, "DESTINATION\tNEXT HOP\tMETRIC")
	for _, r := range routes {
		Printer.Fprintf(w, "%s\t%s\t%d\n", r.Destination, r.NextHop, r.Metric)
	}
	w.Flush()
}

func writeStats(w io.Writer, format string, stats *client.Stats, now time.Time) error {
	if format != FormatTable {
		return writeStructured(w, format, stats)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	Printer.Fprintf(tw, "Start time:\t%s\n", stats.StartTime.Format(time.RFC3339))
	Printer.Fprintf(tw, "Uptime:\t%s\n", now.Sub(stats.StartTime).Truncate(time.Second))
	Printer.Fprintf(tw, "Routes added:\t%d\n", stats.RoutesAdded)
	Printer.Fprintf(tw, "Routes deleted:\t%d\n", stats.RoutesDeleted)
	Printer.Fprintf(tw, "API requests:\t%d\n", stats.APIRequests)
	return tw.Flush()
}

func writeEvent(w io.Writer, format string, ev client.RouteEvent) error {
	if format != FormatTable {
		if format == FormatYAML {
			Printer.Fprintln(w, "---")
		}
		return writeStructured(w, format, ev)
	}

	ts := ev.Timestamp.Local().Format(time.TimeOnly)
	switch ev.Type {
	case "route.added":
		verb := "added"
		if ev.Data.Replaced {
			verb = "replaced"
		}
		Printer.Fprintf(w, "%s #%d %s %s\n", ts, ev.Data.Seq, verb, ev.Data.Route)
	case "route.deleted":
		Printer.Fprintf(w, "%s #%d deleted %s\n", ts, ev.Data.Seq, ev.Data.Route.Destination)
	default:
		Printer.Fprintf(w, "%s #%d %s\n", ts, ev.Data.Seq, ev.Type)
	}
	return nil
}
