package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/1broseidon/glimpse/internal/config"
	"github.com/1broseidon/glimpse/internal/picker"
)

func runPick(args []string) int {
	fs := flag.NewFlagSet("pick", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: glimpse pick [-o FILE] [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Pick a window interactively and print its handle on stdout. The")
		fmt.Fprintln(os.Stderr, "picker renders on stderr, so the handle can be piped or captured")
		fmt.Fprintln(os.Stderr, "in a shell variable. With -o the picked window is captured to a")
		fmt.Fprintln(os.Stderr, "PNG file instead.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  j/k, ↑/↓  Navigate")
		fmt.Fprintln(os.Stderr, "  g/G       Jump to top/bottom")
		fmt.Fprintln(os.Stderr, "  Enter     Select")
		fmt.Fprintln(os.Stderr, "  q, Esc    Cancel")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	out := fs.String("o", "", "Capture the picked window to FILE")
	jsonOut := fs.Bool("json", false, "Output the picked window as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "pick takes no arguments")
		fs.Usage()
		return 2
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stderr.Fd())) {
		fmt.Fprintln(os.Stderr, "pick requires an interactive terminal")
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	svc := newService(cfg)
	ctx := context.Background()

	entry, err := picker.Pick(ctx, svc)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *out != "" {
		r, err := svc.CaptureWindow(ctx, entry.Handle)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer r.Close()
		if err := writePNGFile(*out, r); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("Wrote %dx%d PNG to %s\n", r.Width(), r.Height(), *out)
		return 0
	}
	if *jsonOut {
		return emitJSON(windowToJSON(entry))
	}
	fmt.Println(entry.Handle)
	return 0
}
