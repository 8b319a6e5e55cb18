package native

import (
	"fmt"
	"strconv"
	"strings"
)

// WindowHandle names a live OS window. Handles are opaque, copyable and
// equality-comparable; they carry no liveness guarantee, so the window they
// name may close or move at any time and staleness surfaces as an error on
// use, never earlier.
type WindowHandle uint64

// String renders the handle the way platform tools print it.
func (h WindowHandle) String() string {
	return fmt.Sprintf("0x%x", uint64(h))
}

// ParseWindowHandle reverses String. Both 0x-prefixed hex and plain decimal
// are accepted.
func ParseWindowHandle(s string) (WindowHandle, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid window handle %q", s)
	}
	return WindowHandle(v), nil
}

// Rect is a window's bounding rectangle in screen coordinates.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Width returns the rectangle's horizontal extent.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the rectangle's vertical extent.
func (r Rect) Height() int { return r.Bottom - r.Top }
