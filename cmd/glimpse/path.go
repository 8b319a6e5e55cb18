package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/1broseidon/glimpse/internal/config"
	"github.com/1broseidon/glimpse/internal/pointer"
)

type pathStepJSON struct {
	X       int `json:"x"`
	Y       int `json:"y"`
	DelayMs int `json:"delay_ms"`
}

// parsePoint splits "X,Y" into a screen point. Negative coordinates are
// allowed; multi-monitor layouts put some screens at negative origins.
func parsePoint(s string) (pointer.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return pointer.Point{}, fmt.Errorf("invalid point %q: want X,Y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return pointer.Point{}, fmt.Errorf("invalid point %q: want X,Y", s)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return pointer.Point{}, fmt.Errorf("invalid point %q: want X,Y", s)
	}
	return pointer.Point{X: x, Y: y}, nil
}

// parseSize splits "WxH" into positive dimensions.
func parseSize(s string) (int, int, error) {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q: want WxH", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil || width < 1 {
		return 0, 0, fmt.Errorf("invalid size %q: want WxH", s)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || height < 1 {
		return 0, 0, fmt.Errorf("invalid size %q: want WxH", s)
	}
	return width, height, nil
}

func runPath(args []string) int {
	fs := flag.NewFlagSet("path", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: glimpse path --from X,Y --to X,Y [--duration MS] [--bounds WxH] [--seed N] [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Plan a humanlike pointer path: an eased curve that may overshoot")
		fmt.Fprintln(os.Stderr, "the target and correct back. Prints one 'X,Y +DELAYms' step per")
		fmt.Fprintln(os.Stderr, "line; the final step lands exactly on the target.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	from := fs.String("from", "", "Start position as X,Y")
	to := fs.String("to", "", "Target position as X,Y")
	duration := fs.Int("duration", 300, "Total travel time in milliseconds")
	bounds := fs.String("bounds", "", "Clamp overshoot into WxH (e.g. 1920x1080)")
	seed := fs.Uint64("seed", 0, "Seed the randomness for reproducible plans")
	jsonOut := fs.Bool("json", false, "Output steps as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "path takes no arguments")
		fs.Usage()
		return 2
	}
	if *from == "" || *to == "" {
		fmt.Fprintln(os.Stderr, "path requires --from and --to")
		fs.Usage()
		return 2
	}
	seedSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seedSet = true
		}
	})

	fromPt, err := parsePoint(*from)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	toPt, err := parsePoint(*to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	pl := pointer.Planner{
		Step:                 time.Duration(cfg.Pointer.StepMs) * time.Millisecond,
		MinOvershootDistance: cfg.Pointer.MinOvershootDistance,
		MaxOvershootFactor:   cfg.Pointer.MaxOvershootFactor,
		MaxArcFactor:         cfg.Pointer.MaxArcFactor,
	}
	if *bounds != "" {
		w, h, err := parseSize(*bounds)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		pl.Bounds = pointer.Rect{Max: pointer.Point{X: w - 1, Y: h - 1}}
	}
	if seedSet {
		pl.Rand = rand.New(rand.NewPCG(*seed, *seed))
	}

	steps := pl.Plan(fromPt, toPt, time.Duration(*duration)*time.Millisecond)

	if *jsonOut {
		out := make([]pathStepJSON, 0, len(steps))
		for _, st := range steps {
			out = append(out, pathStepJSON{
				X:       st.Pos.X,
				Y:       st.Pos.Y,
				DelayMs: int(st.Delay / time.Millisecond),
			})
		}
		return emitJSON(out)
	}

	var total time.Duration
	for _, st := range steps {
		total += st.Delay
		fmt.Printf("%d,%d +%dms\n", st.Pos.X, st.Pos.Y, st.Delay/time.Millisecond)
	}
	fmt.Printf("%d steps over %s\n", len(steps), total.Round(time.Millisecond))
	return 0
}
