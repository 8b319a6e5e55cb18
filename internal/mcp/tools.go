package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"math/rand/v2"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/glimpse/internal/match"
	"github.com/1broseidon/glimpse/internal/native"
	"github.com/1broseidon/glimpse/internal/pointer"
	"github.com/1broseidon/glimpse/internal/raster"
)

const defaultPathDurationMs = 300

// sourceRaster resolves a tool's pixel source: a live window capture, a
// display capture, or a decoded PNG. Exactly one must be provided; the
// caller closes the returned raster.
func (s *Server) sourceRaster(ctx context.Context, window string, display *int, pngB64 string) (*raster.Raster, error) {
	window = strings.TrimSpace(window)
	set := 0
	if window != "" {
		set++
	}
	if display != nil {
		set++
	}
	if pngB64 != "" {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one of window, display or png_base64 must be set")
	}

	switch {
	case window != "":
		h, err := native.ParseWindowHandle(window)
		if err != nil {
			return nil, err
		}
		return s.auto.CaptureWindow(ctx, h)
	case display != nil:
		return s.auto.CaptureDisplay(ctx, *display)
	default:
		data, err := base64.StdEncoding.DecodeString(pngB64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode png_base64: %w", err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode PNG: %w", err)
		}
		return s.auto.Limiter().FromImage(img)
	}
}

func encodePNGBase64(r *raster.Raster) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.ToImage()); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (s *Server) colorTolerance(override *float64) float64 {
	if override != nil {
		return *override
	}
	return s.config.Match.ColorTolerance
}

func (s *Server) maxMismatch(override *float64) float64 {
	if override != nil {
		return *override
	}
	return s.config.Match.MaxMismatch
}

func (s *Server) handleListWindows(ctx context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	handles, err := s.auto.Windows(ctx)
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}

	out := ListWindowsOutput{Windows: make([]WindowSummary, 0, len(handles))}
	for _, h := range handles {
		title, err := s.auto.Title(ctx, h)
		if err != nil {
			return nil, ListWindowsOutput{}, err
		}
		out.Windows = append(out.Windows, WindowSummary{Handle: h.String(), Title: title})
	}
	return nil, out, nil
}

func (s *Server) handleWindowInfo(ctx context.Context, _ *mcpsdk.CallToolRequest, args WindowInfoInput) (*mcpsdk.CallToolResult, WindowInfoOutput, error) {
	h, err := native.ParseWindowHandle(args.Window)
	if err != nil {
		return nil, WindowInfoOutput{}, err
	}

	title, err := s.auto.Title(ctx, h)
	if err != nil {
		return nil, WindowInfoOutput{}, err
	}
	rect, err := s.auto.WindowRect(ctx, h)
	if err != nil {
		return nil, WindowInfoOutput{}, err
	}
	focused, err := s.auto.Focused(ctx, h)
	if err != nil {
		return nil, WindowInfoOutput{}, err
	}

	return nil, WindowInfoOutput{
		Handle:  h.String(),
		Title:   title,
		Rect:    rect,
		Width:   rect.Width(),
		Height:  rect.Height(),
		Focused: focused,
	}, nil
}

func (s *Server) handleCaptureWindow(ctx context.Context, _ *mcpsdk.CallToolRequest, args CaptureWindowInput) (*mcpsdk.CallToolResult, CaptureOutput, error) {
	h, err := native.ParseWindowHandle(args.Window)
	if err != nil {
		return nil, CaptureOutput{}, err
	}

	r, err := s.auto.CaptureWindow(ctx, h)
	if err != nil {
		return nil, CaptureOutput{}, err
	}
	defer r.Close()

	encoded, err := encodePNGBase64(r)
	if err != nil {
		return nil, CaptureOutput{}, err
	}
	s.logger.Debug("captured window", "window", h, "width", r.Width(), "height", r.Height())
	return nil, CaptureOutput{PNGBase64: encoded, Width: r.Width(), Height: r.Height()}, nil
}

func (s *Server) handleListDisplays(ctx context.Context, _ *mcpsdk.CallToolRequest, _ ListDisplaysInput) (*mcpsdk.CallToolResult, ListDisplaysOutput, error) {
	count, err := s.auto.DisplayCount(ctx)
	if err != nil {
		return nil, ListDisplaysOutput{}, err
	}
	return nil, ListDisplaysOutput{Count: count}, nil
}

func (s *Server) handleCaptureDisplay(ctx context.Context, _ *mcpsdk.CallToolRequest, args CaptureDisplayInput) (*mcpsdk.CallToolResult, CaptureOutput, error) {
	r, err := s.auto.CaptureDisplay(ctx, args.Display)
	if err != nil {
		return nil, CaptureOutput{}, err
	}
	defer r.Close()

	encoded, err := encodePNGBase64(r)
	if err != nil {
		return nil, CaptureOutput{}, err
	}
	s.logger.Debug("captured display", "display", args.Display, "width", r.Width(), "height", r.Height())
	return nil, CaptureOutput{PNGBase64: encoded, Width: r.Width(), Height: r.Height()}, nil
}

func (s *Server) handleFindColor(ctx context.Context, _ *mcpsdk.CallToolRequest, args FindColorInput) (*mcpsdk.CallToolResult, FindColorOutput, error) {
	rgba, err := match.ParseHexColor(args.Color)
	if err != nil {
		return nil, FindColorOutput{}, err
	}

	r, err := s.sourceRaster(ctx, args.Window, args.Display, args.PNGBase64)
	if err != nil {
		return nil, FindColorOutput{}, err
	}
	defer r.Close()

	matches := match.FindColor(r, rgba)
	return nil, FindColorOutput{Matches: matches, Count: len(matches)}, nil
}

func (s *Server) handleExtractFeatures(ctx context.Context, _ *mcpsdk.CallToolRequest, args ExtractFeaturesInput) (*mcpsdk.CallToolResult, ExtractFeaturesOutput, error) {
	rgba, err := match.ParseHexColor(args.Color)
	if err != nil {
		return nil, ExtractFeaturesOutput{}, err
	}

	r, err := s.sourceRaster(ctx, args.Window, args.Display, args.PNGBase64)
	if err != nil {
		return nil, ExtractFeaturesOutput{}, err
	}
	defer r.Close()

	features := match.ExtractFeatures(r, rgba)
	return nil, ExtractFeaturesOutput{Features: features, Count: len(features)}, nil
}

func (s *Server) handleFindFeature(ctx context.Context, _ *mcpsdk.CallToolRequest, args FindFeatureInput) (*mcpsdk.CallToolResult, FindFeatureOutput, error) {
	r, err := s.sourceRaster(ctx, args.Window, args.Display, args.PNGBase64)
	if err != nil {
		return nil, FindFeatureOutput{}, err
	}
	defer r.Close()

	matches := match.FindFeature(r, args.Feature, s.colorTolerance(args.ColorTolerance), s.maxMismatch(args.MaxMismatch))
	return nil, FindFeatureOutput{Matches: matches, Count: len(matches)}, nil
}

func (s *Server) handleCheckFeature(ctx context.Context, _ *mcpsdk.CallToolRequest, args CheckFeatureInput) (*mcpsdk.CallToolResult, CheckFeatureOutput, error) {
	r, err := s.sourceRaster(ctx, args.Window, args.Display, args.PNGBase64)
	if err != nil {
		return nil, CheckFeatureOutput{}, err
	}
	defer r.Close()

	confidence, err := match.CheckFeature(r, args.X, args.Y, args.Feature, s.colorTolerance(args.ColorTolerance))
	if err != nil {
		return nil, CheckFeatureOutput{}, err
	}
	return nil, CheckFeatureOutput{Confidence: confidence}, nil
}

func (s *Server) handleGetRegion(ctx context.Context, _ *mcpsdk.CallToolRequest, args GetRegionInput) (*mcpsdk.CallToolResult, GetRegionOutput, error) {
	r, err := s.sourceRaster(ctx, args.Window, args.Display, args.PNGBase64)
	if err != nil {
		return nil, GetRegionOutput{}, err
	}
	defer r.Close()

	feature, err := match.GetFeature(r, args.X0, args.Y0, args.X1, args.Y1)
	if err != nil {
		return nil, GetRegionOutput{}, err
	}

	width := args.X1 - args.X0
	if args.X0 > args.X1 {
		width = args.X0 - args.X1
	}
	height := args.Y1 - args.Y0
	if args.Y0 > args.Y1 {
		height = args.Y0 - args.Y1
	}
	return nil, GetRegionOutput{Feature: feature, Width: width + 1, Height: height + 1}, nil
}

func (s *Server) handleColourFrequencies(ctx context.Context, _ *mcpsdk.CallToolRequest, args ColourFrequenciesInput) (*mcpsdk.CallToolResult, ColourFrequenciesOutput, error) {
	r, err := s.sourceRaster(ctx, args.Window, args.Display, args.PNGBase64)
	if err != nil {
		return nil, ColourFrequenciesOutput{}, err
	}
	defer r.Close()

	freqs, err := match.ColourFrequencies(r, args.X0, args.Y0, args.X1, args.Y1)
	if err != nil {
		return nil, ColourFrequenciesOutput{}, err
	}
	match.SortColourFrequencies(freqs)
	return nil, ColourFrequenciesOutput{Frequencies: freqs}, nil
}

func (s *Server) handlePlanPointerPath(_ context.Context, _ *mcpsdk.CallToolRequest, args PlanPointerPathInput) (*mcpsdk.CallToolResult, PlanPointerPathOutput, error) {
	durationMs := args.DurationMs
	if durationMs <= 0 {
		durationMs = defaultPathDurationMs
	}

	pl := pointer.Planner{
		Step:                 time.Duration(s.config.Pointer.StepMs) * time.Millisecond,
		MinOvershootDistance: s.config.Pointer.MinOvershootDistance,
		MaxOvershootFactor:   s.config.Pointer.MaxOvershootFactor,
		MaxArcFactor:         s.config.Pointer.MaxArcFactor,
	}
	if args.BoundsWidth > 0 && args.BoundsHeight > 0 {
		pl.Bounds = pointer.Rect{Max: pointer.Point{X: args.BoundsWidth - 1, Y: args.BoundsHeight - 1}}
	}
	if args.Seed != nil {
		pl.Rand = rand.New(rand.NewPCG(*args.Seed, *args.Seed))
	}

	steps := pl.Plan(
		pointer.Point{X: args.FromX, Y: args.FromY},
		pointer.Point{X: args.ToX, Y: args.ToY},
		time.Duration(durationMs)*time.Millisecond,
	)

	out := PlanPointerPathOutput{Steps: make([]PathStep, 0, len(steps))}
	for _, st := range steps {
		ms := int(st.Delay / time.Millisecond)
		out.TotalMs += ms
		out.Steps = append(out.Steps, PathStep{X: st.Pos.X, Y: st.Pos.Y, DelayMs: ms})
	}
	return nil, out, nil
}
