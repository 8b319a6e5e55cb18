// Package raster holds decoded window captures as immutable RGBA pixel grids.
//
// Colors are packed into a single uint32 in RGBA channel order, so opaque red
// is 0xFF0000FF. Rasters are row-major with the origin at the top left and are
// never mutated after construction, which makes concurrent reads safe without
// copying.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"sync/atomic"
)

// ErrTooManyRasters is returned when constructing a raster would exceed the
// limiter's cap on simultaneously live captures.
var ErrTooManyRasters = errors.New("too many live rasters")

// Pack combines four color channels into packed RGBA form.
func Pack(r, g, b, a uint8) uint32 {
	return uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a)
}

// Unpack splits a packed color back into its channels.
func Unpack(c uint32) (r, g, b, a uint8) {
	return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Raster is a width x height grid of RGBA pixels.
type Raster struct {
	width   uint32
	height  uint32
	pix     []uint8
	release func()
	closed  atomic.Bool
}

// New wraps pix as a raster. The buffer must hold exactly width*height 4-byte
// RGBA pixels; the raster takes ownership of it.
func New(width, height uint32, pix []uint8) (*Raster, error) {
	want := int(width) * int(height) * 4
	if len(pix) != want {
		return nil, fmt.Errorf("pixel buffer is %d bytes, want %d for %dx%d", len(pix), want, width, height)
	}
	return &Raster{width: width, height: height, pix: pix}, nil
}

// FromImage copies img into an untracked raster.
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return &Raster{
		width:  uint32(b.Dx()),
		height: uint32(b.Dy()),
		pix:    rgba.Pix,
	}
}

// FromBGRA converts a native BGRA buffer, as produced by GDI bitmaps and X11
// ZPixmap replies, into an untracked raster. The data is copied; the caller
// keeps ownership of its buffer.
func FromBGRA(width, height uint32, data []byte) (*Raster, error) {
	want := int(width) * int(height) * 4
	if len(data) < want {
		return nil, fmt.Errorf("BGRA buffer is %d bytes, want %d for %dx%d", len(data), want, width, height)
	}
	pix := make([]uint8, want)
	copy(pix, data[:want])
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
	return &Raster{width: width, height: height, pix: pix}, nil
}

// Width returns the raster width in pixels.
func (r *Raster) Width() uint32 { return r.width }

// Height returns the raster height in pixels.
func (r *Raster) Height() uint32 { return r.height }

// InBounds reports whether (x, y) lies inside the raster.
func (r *Raster) InBounds(x, y uint32) bool {
	return x < r.width && y < r.height
}

// RGBAAt returns the packed color at (x, y). The second return is false when
// the point lies outside the raster.
func (r *Raster) RGBAAt(x, y uint32) (uint32, bool) {
	if x >= r.width || y >= r.height {
		return 0, false
	}
	i := (int(y)*int(r.width) + int(x)) * 4
	return Pack(r.pix[i], r.pix[i+1], r.pix[i+2], r.pix[i+3]), true
}

// Clone returns an untracked deep copy of the raster.
func (r *Raster) Clone() *Raster {
	pix := make([]uint8, len(r.pix))
	copy(pix, r.pix)
	return &Raster{width: r.width, height: r.height, pix: pix}
}

// ToImage copies the raster into a standard library image for encoding.
func (r *Raster) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(r.width), int(r.height)))
	copy(img.Pix, r.pix)
	return img
}

// Close releases the raster's limiter slot, if it holds one. Closing twice,
// or closing an untracked raster, is a no-op.
func (r *Raster) Close() {
	if r.release == nil || !r.closed.CompareAndSwap(false, true) {
		return
	}
	r.release()
}

// Limiter caps the number of simultaneously live rasters produced by the
// capture and decode paths, so a runaway caller exhausts its budget instead
// of the process memory. The zero value is unusable; construct with
// NewLimiter.
type Limiter struct {
	max  int
	mu   sync.Mutex
	live int
}

// NewLimiter returns a limiter admitting at most max live rasters.
func NewLimiter(max int) *Limiter {
	return &Limiter{max: max}
}

// Live reports how many tracked rasters are currently open.
func (l *Limiter) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live
}

func (l *Limiter) acquire() (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.live >= l.max {
		return nil, ErrTooManyRasters
	}
	l.live++
	return l.releaseOne, nil
}

func (l *Limiter) releaseOne() {
	l.mu.Lock()
	l.live--
	l.mu.Unlock()
}

// New is like the package-level New, with the raster counted against the
// limiter until closed.
func (l *Limiter) New(width, height uint32, pix []uint8) (*Raster, error) {
	release, err := l.acquire()
	if err != nil {
		return nil, err
	}
	r, err := New(width, height, pix)
	if err != nil {
		release()
		return nil, err
	}
	r.release = release
	return r, nil
}

// FromBGRA is like the package-level FromBGRA, with the raster counted
// against the limiter until closed.
func (l *Limiter) FromBGRA(width, height uint32, data []byte) (*Raster, error) {
	release, err := l.acquire()
	if err != nil {
		return nil, err
	}
	r, err := FromBGRA(width, height, data)
	if err != nil {
		release()
		return nil, err
	}
	r.release = release
	return r, nil
}

// FromImage is like the package-level FromImage, with the raster counted
// against the limiter until closed.
func (l *Limiter) FromImage(img image.Image) (*Raster, error) {
	release, err := l.acquire()
	if err != nil {
		return nil, err
	}
	r := FromImage(img)
	r.release = release
	return r, nil
}
