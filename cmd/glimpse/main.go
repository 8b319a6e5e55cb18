package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/1broseidon/glimpse/internal/config"
	"github.com/1broseidon/glimpse/internal/native"
	"gopkg.in/yaml.v3"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "capture":
		os.Exit(runCapture(os.Args[2:]))
	case "pick":
		os.Exit(runPick(os.Args[2:]))
	case "find":
		os.Exit(runFind(os.Args[2:]))
	case "locate":
		os.Exit(runLocate(os.Args[2:]))
	case "check":
		os.Exit(runCheck(os.Args[2:]))
	case "region":
		os.Exit(runRegion(os.Args[2:]))
	case "colours":
		os.Exit(runColours(os.Args[2:]))
	case "path":
		os.Exit(runPath(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "version":
		os.Exit(runVersion(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: glimpse <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  windows             List top-level windows")
	fmt.Fprintln(w, "  capture             Capture a window or display as PNG")
	fmt.Fprintln(w, "  pick                Pick a window interactively")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  find                Find pixels matching a color")
	fmt.Fprintln(w, "  locate              Find placements of a saved feature")
	fmt.Fprintln(w, "  check               Score a feature at a fixed position")
	fmt.Fprintln(w, "  region              Extract a region as a feature")
	fmt.Fprintln(w, "  colours             Count colors within a region")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  path                Plan a humanlike pointer path")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "  version             Print version")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'glimpse <command> --help' for command-specific options.")
}

func runVersion(args []string) int {
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, "version takes no arguments")
		return 2
	}
	fmt.Printf("glimpse %s\n", version)
	return 0
}

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
}

// newService connects the native layer with the configured raster budget.
// The worker thread starts lazily on the first request, so commands that
// never touch the window system pay nothing for this.
func newService(cfg *config.Config) *native.Service {
	cfg.ApplyX11Env()
	return native.NewService(native.Options{
		Logger:      newLogger(cfg),
		RasterLimit: cfg.RasterLimit,
	})
}

// emitJSON pretty-prints v on stdout.
func emitJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  glimpse config validate [--path PATH]")
	fmt.Fprintln(w, "  glimpse config print [--path PATH] [--defaults]")
}

func runConfig(args []string) int {
	if len(args) == 0 {
		printConfigUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printConfigUsage(os.Stdout)
		return 0
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/glimpse/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}

		var err error
		if *path == "" {
			_, err = config.Load()
		} else {
			_, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/glimpse/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (ignore files)")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}

		cfg := config.Default()
		if !*printDefaults {
			var err error
			if *path == "" {
				cfg, err = config.Load()
			} else {
				cfg, err = config.LoadFromPath(*path)
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}
