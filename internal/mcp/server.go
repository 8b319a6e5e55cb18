// Package mcp exposes glimpse's capture and matching operations as an MCP
// server over stdio, so agent hosts can inspect windows without shelling
// out to the CLI.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/glimpse/internal/config"
	"github.com/1broseidon/glimpse/internal/native"
	"github.com/1broseidon/glimpse/internal/raster"
)

const (
	ServerName    = "glimpse"
	ServerVersion = "0.1.0"
)

// automation is the slice of the native service the tools consume. Narrow on
// purpose so tests can substitute a fake without a window system present.
type automation interface {
	Windows(ctx context.Context) ([]native.WindowHandle, error)
	Title(ctx context.Context, h native.WindowHandle) (string, error)
	WindowRect(ctx context.Context, h native.WindowHandle) (native.Rect, error)
	Focused(ctx context.Context, h native.WindowHandle) (bool, error)
	CaptureWindow(ctx context.Context, h native.WindowHandle) (*raster.Raster, error)
	DisplayCount(ctx context.Context) (int, error)
	CaptureDisplay(ctx context.Context, index int) (*raster.Raster, error)
	Limiter() *raster.Limiter
}

// Server is the MCP server for glimpse window inspection.
type Server struct {
	mcpServer *mcpsdk.Server
	auto      automation
	config    *config.Config
	logger    *slog.Logger
}

// NewServer wires the native service into an MCP server. The service's
// worker thread starts on the first tool call, not here.
func NewServer(auto automation, cfg *config.Config, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{auto: auto, config: cfg, logger: logger}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server starting", "name", ServerName, "version", ServerVersion)
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List visible top-level windows with their handles and titles. Handles are opaque strings; pass them back to the other window tools.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "window_info",
		Description: "Get a window's title, screen rectangle and focus state by handle.",
	}, s.handleWindowInfo)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "capture_window",
		Description: "Capture a window's current contents and return it as a base64-encoded PNG with its dimensions. Fails when the window is minimized or gone.",
	}, s.handleCaptureWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_displays",
		Description: "Report how many displays are attached. Valid capture_display indexes are 0 through count-1.",
	}, s.handleListDisplays)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "capture_display",
		Description: "Capture an entire display by zero-based index and return it as a base64-encoded PNG with its dimensions.",
	}, s.handleCaptureDisplay)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "find_color",
		Description: "Find every pixel of an exact color in a window, display or provided PNG. Returns absolute coordinates in row-major order.",
	}, s.handleFindColor)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "extract_features",
		Description: "Find every pixel of an exact color and cluster nearby hits into features usable with find_feature and check_feature.",
	}, s.handleExtractFeatures)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "find_feature",
		Description: "Slide a feature over a window, display or provided PNG and return every position where it matches within the color and mismatch tolerances.",
	}, s.handleFindFeature)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "check_feature",
		Description: "Score how well a feature matches at a fixed anchor position. Returns the matched fraction in [0,1].",
	}, s.handleCheckFeature)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_region",
		Description: "Sample a rectangular region into a feature with region-relative coordinates, for later matching.",
	}, s.handleGetRegion)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "colour_frequencies",
		Description: "Count exact color occurrences within a rectangular region. Returns a histogram sorted by descending count.",
	}, s.handleColourFrequencies)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "plan_pointer_path",
		Description: "Plan a human-like pointer path between two points: a curved, eased step sequence with optional overshoot, each step carrying its delay.",
	}, s.handlePlanPointerPath)
}
