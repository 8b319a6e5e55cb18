package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/1broseidon/glimpse/internal/config"
	"github.com/1broseidon/glimpse/internal/match"
	"github.com/1broseidon/glimpse/internal/raster"
)

// sourceFlags are the shared pixel-source flags of the matching commands.
// Exactly one of the three must be selected.
type sourceFlags struct {
	png     *string
	window  *string
	display *int
}

func bindSourceFlags(fs *flag.FlagSet) *sourceFlags {
	return &sourceFlags{
		png:     fs.String("png", "", "Read pixels from a PNG file"),
		window:  fs.String("window", "", "Capture pixels from a window handle"),
		display: fs.Int("display", -1, "Capture pixels from a display index"),
	}
}

// open resolves the selected source into a raster the caller must close.
// Window and display sources spin up the native service on demand; PNG
// files never touch the window system.
func (sf *sourceFlags) open(ctx context.Context, cfg *config.Config) (*raster.Raster, error) {
	set := 0
	if *sf.png != "" {
		set++
	}
	if *sf.window != "" {
		set++
	}
	if *sf.display >= 0 {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one of --png, --window or --display is required")
	}

	if *sf.png != "" {
		f, err := os.Open(*sf.png)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", *sf.png, err)
		}
		defer f.Close()
		img, err := png.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to decode PNG: %w", *sf.png, err)
		}
		return raster.FromImage(img), nil
	}
	return captureSource(ctx, newService(cfg), *sf.window, *sf.display)
}

// loadFeatureFile reads a feature from a JSON file, or from stdin when path
// is "-".
func loadFeatureFile(path string) (match.Feature, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return match.Feature{}, fmt.Errorf("failed to read feature: %w", err)
	}

	var feat match.Feature
	if err := json.Unmarshal(data, &feat); err != nil {
		return match.Feature{}, fmt.Errorf("failed to parse feature JSON: %w", err)
	}
	if len(feat.Pixels) == 0 {
		return match.Feature{}, fmt.Errorf("feature has no pixels")
	}
	return feat, nil
}

// parseCoords splits "X,Y" into unsigned raster coordinates.
func parseCoords(s string) (uint32, uint32, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid position %q: want X,Y", s)
	}
	x, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid position %q: want X,Y", s)
	}
	y, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid position %q: want X,Y", s)
	}
	return uint32(x), uint32(y), nil
}

// parseRect splits "X0,Y0,X1,Y1" into two raster corners, in either order.
func parseRect(s string) (x0, y0, x1, y1 uint32, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("invalid rect %q: want X0,Y0,X1,Y1", s)
	}
	var vals [4]uint32
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("invalid rect %q: want X0,Y0,X1,Y1", s)
		}
		vals[i] = uint32(v)
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}

func runFind(args []string) int {
	fs := flag.NewFlagSet("find", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: glimpse find --color '#RRGGBB' [--cluster] [--json] (--png FILE | --window HANDLE | --display N)")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Find pixels that exactly match a color, one 'X,Y' line per hit.")
		fmt.Fprintln(os.Stderr, "With --cluster, nearby hits are grouped into features usable with")
		fmt.Fprintln(os.Stderr, "'locate --feature'.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	color := fs.String("color", "", "Color to search for, #RRGGBB or #RRGGBBAA")
	cluster := fs.Bool("cluster", false, "Group nearby hits into features")
	jsonOut := fs.Bool("json", false, "Output results as JSON")
	src := bindSourceFlags(fs)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "find takes no arguments")
		fs.Usage()
		return 2
	}
	if *color == "" {
		fmt.Fprintln(os.Stderr, "find requires --color")
		fs.Usage()
		return 2
	}

	rgba, err := match.ParseHexColor(*color)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	r, err := src.open(context.Background(), cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer r.Close()

	if *cluster {
		features := match.ExtractFeatures(r, rgba)
		if *jsonOut {
			return emitJSON(features)
		}
		fmt.Printf("%d features\n", len(features))
		for _, f := range features {
			p := f.Pixels[0]
			fmt.Printf("%d pixels near %d,%d\n", len(f.Pixels), p.X, p.Y)
		}
		return 0
	}

	hits := match.FindColor(r, rgba)
	if *jsonOut {
		return emitJSON(hits)
	}
	for _, p := range hits {
		fmt.Printf("%d,%d\n", p.X, p.Y)
	}
	return 0
}

func runLocate(args []string) int {
	fs := flag.NewFlagSet("locate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: glimpse locate --feature FILE [--tolerance F] [--max-mismatch F] [--json] (--png FILE | --window HANDLE | --display N)")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Slide a saved feature over the source and print every placement")
		fmt.Fprintln(os.Stderr, "whose pixels match within the tolerances, one 'X,Y' line each.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	feature := fs.String("feature", "", "Feature JSON file ('-' for stdin)")
	tolerance := fs.Float64("tolerance", -1, "Per-pixel color tolerance in [0,1] (default: match.color_tolerance)")
	maxMismatch := fs.Float64("max-mismatch", -1, "Fraction of feature pixels allowed to miss (default: match.max_mismatch)")
	jsonOut := fs.Bool("json", false, "Output placements as JSON")
	src := bindSourceFlags(fs)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "locate takes no arguments")
		fs.Usage()
		return 2
	}
	if *feature == "" {
		fmt.Fprintln(os.Stderr, "locate requires --feature")
		fs.Usage()
		return 2
	}

	feat, err := loadFeatureFile(*feature)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *tolerance < 0 {
		*tolerance = cfg.Match.ColorTolerance
	}
	if *maxMismatch < 0 {
		*maxMismatch = cfg.Match.MaxMismatch
	}
	r, err := src.open(context.Background(), cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer r.Close()

	hits := match.FindFeature(r, feat, *tolerance, *maxMismatch)
	if *jsonOut {
		return emitJSON(hits)
	}
	for _, p := range hits {
		fmt.Printf("%d,%d\n", p.X, p.Y)
	}
	return 0
}

func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: glimpse check --feature FILE --at X,Y [--tolerance F] [--json] (--png FILE | --window HANDLE | --display N)")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Score a feature anchored at a fixed position, printing the fraction")
		fmt.Fprintln(os.Stderr, "of its pixels that match within the tolerance.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	feature := fs.String("feature", "", "Feature JSON file ('-' for stdin)")
	at := fs.String("at", "", "Anchor position as X,Y")
	tolerance := fs.Float64("tolerance", -1, "Per-pixel color tolerance in [0,1] (default: match.color_tolerance)")
	jsonOut := fs.Bool("json", false, "Output the confidence as JSON")
	src := bindSourceFlags(fs)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "check takes no arguments")
		fs.Usage()
		return 2
	}
	if *feature == "" || *at == "" {
		fmt.Fprintln(os.Stderr, "check requires --feature and --at")
		fs.Usage()
		return 2
	}

	x, y, err := parseCoords(*at)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	feat, err := loadFeatureFile(*feature)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *tolerance < 0 {
		*tolerance = cfg.Match.ColorTolerance
	}
	r, err := src.open(context.Background(), cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer r.Close()

	confidence, err := match.CheckFeature(r, x, y, feat, *tolerance)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		return emitJSON(struct {
			Confidence float64 `json:"confidence"`
		}{confidence})
	}
	fmt.Printf("confidence: %.3f\n", confidence)
	return 0
}

func runRegion(args []string) int {
	fs := flag.NewFlagSet("region", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: glimpse region --rect X0,Y0,X1,Y1 (--png FILE | --window HANDLE | --display N)")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Extract a rectangular region as a feature with region-relative")
		fmt.Fprintln(os.Stderr, "coordinates. The JSON output feeds 'locate --feature' directly.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	rect := fs.String("rect", "", "Region corners as X0,Y0,X1,Y1 (inclusive)")
	src := bindSourceFlags(fs)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "region takes no arguments")
		fs.Usage()
		return 2
	}
	if *rect == "" {
		fmt.Fprintln(os.Stderr, "region requires --rect")
		fs.Usage()
		return 2
	}

	x0, y0, x1, y1, err := parseRect(*rect)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	r, err := src.open(context.Background(), cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer r.Close()

	feat, err := match.GetFeature(r, x0, y0, x1, y1)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return emitJSON(feat)
}

func runColours(args []string) int {
	fs := flag.NewFlagSet("colours", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: glimpse colours --rect X0,Y0,X1,Y1 [--json] (--png FILE | --window HANDLE | --display N)")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Count exact colors within a region, most frequent first.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	rect := fs.String("rect", "", "Region corners as X0,Y0,X1,Y1 (inclusive)")
	jsonOut := fs.Bool("json", false, "Output the histogram as JSON")
	src := bindSourceFlags(fs)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "colours takes no arguments")
		fs.Usage()
		return 2
	}
	if *rect == "" {
		fmt.Fprintln(os.Stderr, "colours requires --rect")
		fs.Usage()
		return 2
	}

	x0, y0, x1, y1, err := parseRect(*rect)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	r, err := src.open(context.Background(), cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer r.Close()

	freqs, err := match.ColourFrequencies(r, x0, y0, x1, y1)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	match.SortColourFrequencies(freqs)

	if *jsonOut {
		return emitJSON(freqs)
	}
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "COLOR\tCOUNT")
	for _, f := range freqs {
		fmt.Fprintf(writer, "#%08X\t%d\n", f.RGBA, f.Count)
	}
	writer.Flush()
	return 0
}
