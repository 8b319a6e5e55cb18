//go:build linux

package native

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/kbinani/screenshot"

	"github.com/1broseidon/glimpse/internal/raster"
	"github.com/1broseidon/glimpse/internal/x11"
)

const (
	backendSupported = true
	backendName      = "x11"
)

// x11Backend adapts the X11 connection to the worker's backend surface. The
// connection is created on the worker thread and never leaves it.
type x11Backend struct {
	conn    *x11.Connection
	limiter *raster.Limiter
}

var _ backend = (*x11Backend)(nil)

func openBackend(limiter *raster.Limiter) (backend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, err
	}
	return &x11Backend{conn: conn, limiter: limiter}, nil
}

func (b *x11Backend) enumerate() ([]WindowHandle, error) {
	wins, err := b.conn.TopLevelWindows()
	if err != nil {
		return nil, err
	}
	handles := make([]WindowHandle, 0, len(wins))
	for _, w := range wins {
		handles = append(handles, WindowHandle(w))
	}
	return handles, nil
}

func (b *x11Backend) title(h WindowHandle) (string, error) {
	return b.conn.WindowTitle(xproto.Window(h)), nil
}

func (b *x11Backend) rect(h WindowHandle) (Rect, error) {
	left, top, right, bottom, err := b.conn.WindowRect(xproto.Window(h))
	if err != nil {
		return Rect{}, staleErr(err)
	}
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}, nil
}

func (b *x11Backend) focused(h WindowHandle) (bool, error) {
	focused, err := b.conn.FocusedWindow()
	if err != nil {
		return false, err
	}
	return focused == xproto.Window(h), nil
}

func (b *x11Backend) captureWindow(h WindowHandle) (*raster.Raster, error) {
	win := xproto.Window(h)

	viewable, err := b.conn.WindowViewable(win)
	if err != nil {
		return nil, staleErr(err)
	}
	if !viewable {
		return nil, ErrWindowMinimized
	}

	width, height, bgra, err := b.conn.CaptureWindow(win)
	if err != nil {
		return nil, staleErr(err)
	}
	return b.limiter.FromBGRA(width, height, bgra)
}

func (b *x11Backend) displayCount() (int, error) {
	return screenshot.NumActiveDisplays(), nil
}

func (b *x11Backend) captureDisplay(index int) (*raster.Raster, error) {
	if index < 0 || index >= screenshot.NumActiveDisplays() {
		return nil, ErrDisplayNotFound
	}
	img, err := screenshot.CaptureDisplay(index)
	if err != nil {
		return nil, fmt.Errorf("failed to capture display %d: %w", index, err)
	}
	return b.limiter.FromImage(img)
}

func (b *x11Backend) close() {
	b.conn.Close()
}

// staleErr maps the X errors that mean "that ID is no longer valid" onto
// ErrWindowGone so callers can tell a vanished window from an X failure.
func staleErr(err error) error {
	var winErr xproto.WindowError
	var drawErr xproto.DrawableError
	if errors.As(err, &winErr) || errors.As(err, &drawErr) {
		return fmt.Errorf("%w: %v", ErrWindowGone, err)
	}
	return err
}
