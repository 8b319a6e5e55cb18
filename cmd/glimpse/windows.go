package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/1broseidon/glimpse/internal/config"
	"github.com/1broseidon/glimpse/internal/native"
	"github.com/1broseidon/glimpse/internal/picker"
)

type windowJSON struct {
	Handle  string `json:"handle"`
	Title   string `json:"title"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Focused bool   `json:"focused"`
}

func windowToJSON(e picker.Entry) windowJSON {
	return windowJSON{
		Handle:  e.Handle.String(),
		Title:   e.Title,
		X:       e.Rect.Left,
		Y:       e.Rect.Top,
		Width:   e.Rect.Width(),
		Height:  e.Rect.Height(),
		Focused: e.Focused,
	}
}

// formatGeometry renders a rectangle in X geometry notation, WxH+X+Y.
func formatGeometry(r native.Rect) string {
	return fmt.Sprintf("%dx%d%+d%+d", r.Width(), r.Height(), r.Left, r.Top)
}

func runWindows(args []string) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: glimpse windows [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List top-level windows with geometry and focus state.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	jsonOut := fs.Bool("json", false, "Output window details as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "windows takes no arguments")
		fs.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	entries, err := picker.Load(context.Background(), newService(cfg))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		out := make([]windowJSON, 0, len(entries))
		for _, e := range entries {
			out = append(out, windowToJSON(e))
		}
		return emitJSON(out)
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "HANDLE\tGEOMETRY\tFOCUS\tTITLE")
	for _, e := range entries {
		focus := ""
		if e.Focused {
			focus = "*"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", e.Handle, formatGeometry(e.Rect), focus, e.Title)
	}
	writer.Flush()
	return 0
}
