package main

import (
	"flag"
	"os"

	"grimm.is/dvr/cmd"
	"grimm.is/dvr/internal/brand"
	"grimm.is/dvr/internal/i18n"
)

var printer = i18n.NewCLIPrinter()

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "control":
		configFile, explicit := parseConfigFlags("control")
		if err := cmd.RunControl(configFile, explicit); err != nil {
			printer.Fprintf(os.Stderr, "Control plane failed: %v\n", err)
			os.Exit(1)
		}

	case "data":
		configFile, explicit := parseConfigFlags("data")
		if err := cmd.RunData(configFile, explicit); err != nil {
			printer.Fprintf(os.Stderr, "Data plane failed: %v\n", err)
			os.Exit(1)
		}

	case "check":
		checkFlags := flag.NewFlagSet("check", flag.ExitOnError)
		verbose := checkFlags.Bool("verbose", false, "Verbose output")
		checkFlags.BoolVar(verbose, "v", false, "Verbose output (short)")
		checkFlags.Parse(os.Args[2:])

		configFile := brand.DefaultConfigPath()
		if len(checkFlags.Args()) > 0 {
			configFile = checkFlags.Arg(0)
		}

		if err := cmd.RunCheck(configFile, *verbose); err != nil {
			printer.Fprintf(os.Stderr, "Check failed: %v\n", err)
			os.Exit(1)
		}

	case "routes":
		if err := cmd.RunRoutes(os.Args[2:]); err != nil {
			printer.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "stats":
		if err := cmd.RunStats(os.Args[2:]); err != nil {
			printer.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "version", "-version", "--version":
		cmd.RunVersion(os.Stdout)

	case "help", "-h", "--help":
		printUsage()

	default:
		printer.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// parseConfigFlags parses -c/--config for the daemon commands. explicit
// reports whether the user named a file; only then is a missing file an error.
func parseConfigFlags(name string) (string, bool) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configFile := fs.String("config", brand.DefaultConfigPath(), "Configuration file")
	fs.StringVar(configFile, "c", brand.DefaultConfigPath(), "Configuration file (short)")
	fs.Parse(os.Args[2:])

	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" || f.Name == "c" {
			explicit = true
		}
	})
	return *configFile, explicit
}

func printUsage() {
	printer.Printf(`%s - %s

Usage:
  %s <command> [options]

Daemon Commands:
  control   Run the control plane route API
            Options: --config (-c) <file>
  data      Run the data plane packet simulator
            Options: --config (-c) <file>

Client Commands:
  routes    Manage routes on a running control plane
            Subcommands: list, add, delete, watch
            Options: --server (-s) <url>, --output (-o) table|json|yaml
  stats     Show control plane statistics
            Options: --server (-s) <url>, --output (-o) table|json|yaml

Utility Commands:
  check     Validate configuration file
            Options: --verbose (-v)
  version   Show version information

Examples:
  %s control -c %s
  %s routes add --metric 50 10.1.0.0/24 192.168.1.9
  %s routes list -o yaml
  %s check -v %s
`,
		brand.Name, brand.Description,
		brand.LowerName,
		brand.LowerName, brand.DefaultConfigPath(),
		brand.LowerName, brand.LowerName,
		brand.LowerName, brand.DefaultConfigPath())
}
