package mcp

import (
	"github.com/1broseidon/glimpse/internal/match"
	"github.com/1broseidon/glimpse/internal/native"
)

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct{}

// WindowSummary describes one visible window.
type WindowSummary struct {
	Handle string `json:"handle"`
	Title  string `json:"title"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []WindowSummary `json:"windows"`
}

// WindowInfoInput is the input for the window_info tool.
type WindowInfoInput struct {
	Window string `json:"window" jsonschema:"required,Window handle as returned by list_windows (e.g. 0x3a00007)"`
}

// WindowInfoOutput is the output for the window_info tool.
type WindowInfoOutput struct {
	Handle  string      `json:"handle"`
	Title   string      `json:"title"`
	Rect    native.Rect `json:"rect"`
	Width   int         `json:"width"`
	Height  int         `json:"height"`
	Focused bool        `json:"focused"`
}

// CaptureWindowInput is the input for the capture_window tool.
type CaptureWindowInput struct {
	Window string `json:"window" jsonschema:"required,Window handle to capture"`
}

// CaptureDisplayInput is the input for the capture_display tool.
type CaptureDisplayInput struct {
	Display int `json:"display,omitempty" jsonschema:"Zero-based display index (default: 0)"`
}

// CaptureOutput is the output for the capture_window and capture_display
// tools.
type CaptureOutput struct {
	PNGBase64 string `json:"png_base64"`
	Width     uint32 `json:"width"`
	Height    uint32 `json:"height"`
}

// ListDisplaysInput is the input for the list_displays tool.
type ListDisplaysInput struct{}

// ListDisplaysOutput is the output for the list_displays tool. Valid
// capture_display indexes are 0 through count-1.
type ListDisplaysOutput struct {
	Count int `json:"count"`
}

// FindColorInput is the input for the find_color tool.
type FindColorInput struct {
	Window    string `json:"window,omitempty" jsonschema:"Window handle to capture and search"`
	Display   *int   `json:"display,omitempty" jsonschema:"Display index to capture and search"`
	PNGBase64 string `json:"png_base64,omitempty" jsonschema:"Base64-encoded PNG to search instead of capturing"`
	Color     string `json:"color" jsonschema:"required,Color as #RRGGBB or #RRGGBBAA hex (alpha defaults to FF)"`
}

// FindColorOutput is the output for the find_color tool.
type FindColorOutput struct {
	Matches []match.Pixel `json:"matches"`
	Count   int           `json:"count"`
}

// ExtractFeaturesInput is the input for the extract_features tool.
type ExtractFeaturesInput struct {
	Window    string `json:"window,omitempty" jsonschema:"Window handle to capture and search"`
	Display   *int   `json:"display,omitempty" jsonschema:"Display index to capture and search"`
	PNGBase64 string `json:"png_base64,omitempty" jsonschema:"Base64-encoded PNG to search instead of capturing"`
	Color     string `json:"color" jsonschema:"required,Color to cluster as #RRGGBB or #RRGGBBAA hex"`
}

// ExtractFeaturesOutput is the output for the extract_features tool.
type ExtractFeaturesOutput struct {
	Features []match.Feature `json:"features"`
	Count    int             `json:"count"`
}

// FindFeatureInput is the input for the find_feature tool.
type FindFeatureInput struct {
	Window         string        `json:"window,omitempty" jsonschema:"Window handle to capture and search"`
	Display        *int          `json:"display,omitempty" jsonschema:"Display index to capture and search"`
	PNGBase64      string        `json:"png_base64,omitempty" jsonschema:"Base64-encoded PNG to search instead of capturing"`
	Feature        match.Feature `json:"feature" jsonschema:"required,Feature pixels to search for"`
	ColorTolerance *float64      `json:"color_tolerance,omitempty" jsonschema:"Per-pixel color tolerance as a fraction in [0,1] of the maximum color distance (default: config value)"`
	MaxMismatch    *float64      `json:"max_mismatch,omitempty" jsonschema:"Fraction in [0,1] of feature pixels allowed to mismatch (default: config value)"`
}

// FindFeatureOutput is the output for the find_feature tool.
type FindFeatureOutput struct {
	Matches []match.Pixel `json:"matches"`
	Count   int           `json:"count"`
}

// CheckFeatureInput is the input for the check_feature tool.
type CheckFeatureInput struct {
	Window         string        `json:"window,omitempty" jsonschema:"Window handle to capture and score against"`
	Display        *int          `json:"display,omitempty" jsonschema:"Display index to capture and score against"`
	PNGBase64      string        `json:"png_base64,omitempty" jsonschema:"Base64-encoded PNG to score against instead of capturing"`
	Feature        match.Feature `json:"feature" jsonschema:"required,Feature pixels to score"`
	X              uint32        `json:"x" jsonschema:"required,Anchor X coordinate for the feature's top-left corner"`
	Y              uint32        `json:"y" jsonschema:"required,Anchor Y coordinate for the feature's top-left corner"`
	ColorTolerance *float64      `json:"color_tolerance,omitempty" jsonschema:"Per-pixel color tolerance as a fraction in [0,1] of the maximum color distance (default: config value)"`
}

// CheckFeatureOutput is the output for the check_feature tool.
type CheckFeatureOutput struct {
	Confidence float64 `json:"confidence"`
}

// GetRegionInput is the input for the get_region tool.
type GetRegionInput struct {
	Window    string `json:"window,omitempty" jsonschema:"Window handle to capture"`
	Display   *int   `json:"display,omitempty" jsonschema:"Display index to capture"`
	PNGBase64 string `json:"png_base64,omitempty" jsonschema:"Base64-encoded PNG to sample instead of capturing"`
	X0        uint32 `json:"x0" jsonschema:"required,First corner X"`
	Y0        uint32 `json:"y0" jsonschema:"required,First corner Y"`
	X1        uint32 `json:"x1" jsonschema:"required,Second corner X (inclusive)"`
	Y1        uint32 `json:"y1" jsonschema:"required,Second corner Y (inclusive)"`
}

// GetRegionOutput is the output for the get_region tool.
type GetRegionOutput struct {
	Feature match.Feature `json:"feature"`
	Width   uint32        `json:"width"`
	Height  uint32        `json:"height"`
}

// ColourFrequenciesInput is the input for the colour_frequencies tool.
type ColourFrequenciesInput struct {
	Window    string `json:"window,omitempty" jsonschema:"Window handle to capture"`
	Display   *int   `json:"display,omitempty" jsonschema:"Display index to capture"`
	PNGBase64 string `json:"png_base64,omitempty" jsonschema:"Base64-encoded PNG to sample instead of capturing"`
	X0        uint32 `json:"x0" jsonschema:"required,First corner X"`
	Y0        uint32 `json:"y0" jsonschema:"required,First corner Y"`
	X1        uint32 `json:"x1" jsonschema:"required,Second corner X (inclusive)"`
	Y1        uint32 `json:"y1" jsonschema:"required,Second corner Y (inclusive)"`
}

// ColourFrequenciesOutput is the output for the colour_frequencies tool.
// Entries are sorted by descending count, ties by ascending color value.
type ColourFrequenciesOutput struct {
	Frequencies []match.ColourFrequency `json:"frequencies"`
}

// PlanPointerPathInput is the input for the plan_pointer_path tool.
type PlanPointerPathInput struct {
	FromX        int     `json:"from_x" jsonschema:"required,Starting X coordinate"`
	FromY        int     `json:"from_y" jsonschema:"required,Starting Y coordinate"`
	ToX          int     `json:"to_x" jsonschema:"required,Target X coordinate"`
	ToY          int     `json:"to_y" jsonschema:"required,Target Y coordinate"`
	DurationMs   int     `json:"duration_ms,omitempty" jsonschema:"Total travel time in milliseconds (default: 300)"`
	BoundsWidth  int     `json:"bounds_width,omitempty" jsonschema:"Screen width to clamp the path inside; unclamped when omitted"`
	BoundsHeight int     `json:"bounds_height,omitempty" jsonschema:"Screen height to clamp the path inside; unclamped when omitted"`
	Seed         *uint64 `json:"seed,omitempty" jsonschema:"Optional seed for a reproducible path"`
}

// PathStep is one planned pointer position.
type PathStep struct {
	X       int `json:"x"`
	Y       int `json:"y"`
	DelayMs int `json:"delay_ms"`
}

// PlanPointerPathOutput is the output for the plan_pointer_path tool.
type PlanPointerPathOutput struct {
	Steps   []PathStep `json:"steps"`
	TotalMs int        `json:"total_ms"`
}
