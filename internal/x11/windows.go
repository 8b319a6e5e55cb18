package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// TopLevelWindows returns the root's children that are mapped and carry a
// non-empty title, in server enumeration order.
func (c *Connection) TopLevelWindows() ([]xproto.Window, error) {
	tree, err := xproto.QueryTree(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to query window tree: %w", err)
	}

	var windows []xproto.Window
	for _, child := range tree.Children {
		attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), child).Reply()
		if err != nil || attrs.MapState != xproto.MapStateViewable {
			continue
		}
		if c.WindowTitle(child) == "" {
			continue
		}
		windows = append(windows, child)
	}

	return windows, nil
}

// WindowTitle returns the window's title, preferring the EWMH name and
// falling back to the ICCCM one. Windows without a title yield "".
func (c *Connection) WindowTitle(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	return ""
}

// WindowRect returns the window's absolute screen rectangle.
func (c *Connection) WindowRect(windowID xproto.Window) (left, top, right, bottom int, err error) {
	conn := c.XUtil.Conn()

	geom, err := xproto.GetGeometry(conn, xproto.Drawable(windowID)).Reply()
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to get window geometry: %w", err)
	}

	translate, err := xproto.TranslateCoordinates(conn, windowID, c.Root, 0, 0).Reply()
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to translate window coordinates: %w", err)
	}

	left = int(translate.DstX)
	top = int(translate.DstY)
	return left, top, left + int(geom.Width), top + int(geom.Height), nil
}

// WindowViewable reports whether the window is currently mapped on screen.
// Iconified windows are unmapped by the window manager, so this doubles as
// the minimized check.
func (c *Connection) WindowViewable(windowID xproto.Window) (bool, error) {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	if err != nil {
		return false, fmt.Errorf("failed to get window attributes: %w", err)
	}
	return attrs.MapState == xproto.MapStateViewable, nil
}

// FocusedWindow returns the window currently holding input focus.
func (c *Connection) FocusedWindow() (xproto.Window, error) {
	reply, err := xproto.GetInputFocus(c.XUtil.Conn()).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to get input focus: %w", err)
	}
	return reply.Focus, nil
}

// CaptureWindow grabs the window's current pixels as a BGRA buffer of the
// window's full geometry.
func (c *Connection) CaptureWindow(windowID xproto.Window) (width, height uint32, bgra []byte, err error) {
	conn := c.XUtil.Conn()

	geom, err := xproto.GetGeometry(conn, xproto.Drawable(windowID)).Reply()
	if err != nil {
		return 0, 0, nil, fmt.Errorf("failed to get window geometry: %w", err)
	}

	const allPlanes = 0xFFFFFFFF
	img, err := xproto.GetImage(
		conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(windowID),
		0, 0,
		geom.Width, geom.Height,
		allPlanes,
	).Reply()
	if err != nil {
		return 0, 0, nil, fmt.Errorf("failed to get window image: %w", err)
	}

	return uint32(geom.Width), uint32(geom.Height), img.Data, nil
}
