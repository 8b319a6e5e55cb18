package raster

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestPackUnpack(t *testing.T) {
	if got := Pack(0xFF, 0x00, 0x00, 0xFF); got != 0xFF0000FF {
		t.Fatalf("expected opaque red 0xFF0000FF, got 0x%08X", got)
	}
	r, g, b, a := Unpack(0x11223344)
	if r != 0x11 || g != 0x22 || b != 0x33 || a != 0x44 {
		t.Fatalf("unexpected channels: %02X %02X %02X %02X", r, g, b, a)
	}
}

func TestNewValidatesBufferLength(t *testing.T) {
	if _, err := New(2, 2, make([]uint8, 15)); err == nil {
		t.Fatalf("expected error for short buffer")
	}
	r, err := New(2, 2, make([]uint8, 16))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Width() != 2 || r.Height() != 2 {
		t.Fatalf("expected 2x2, got %dx%d", r.Width(), r.Height())
	}
}

func TestFromBGRASwapsChannels(t *testing.T) {
	// One red pixel in BGRA byte order.
	r, err := FromBGRA(1, 1, []byte{0x00, 0x00, 0xFF, 0xFF})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, ok := r.RGBAAt(0, 0)
	if !ok {
		t.Fatalf("expected pixel in bounds")
	}
	if c != 0xFF0000FF {
		t.Fatalf("expected 0xFF0000FF, got 0x%08X", c)
	}
}

func TestFromBGRACopiesInput(t *testing.T) {
	data := []byte{0x00, 0x00, 0xFF, 0xFF}
	r, err := FromBGRA(1, 1, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data[2] = 0x00
	if c, _ := r.RGBAAt(0, 0); c != 0xFF0000FF {
		t.Fatalf("raster aliased the caller's buffer: got 0x%08X", c)
	}
}

func TestRGBAAtOutOfBounds(t *testing.T) {
	r, err := New(2, 2, make([]uint8, 16))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := r.RGBAAt(2, 0); ok {
		t.Fatalf("expected x=2 out of bounds on 2x2")
	}
	if _, ok := r.RGBAAt(0, 2); ok {
		t.Fatalf("expected y=2 out of bounds on 2x2")
	}
	if !r.InBounds(1, 1) {
		t.Fatalf("expected (1,1) in bounds")
	}
}

func TestFromImageToImageRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(2, 1, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xFF})

	r := FromImage(img)
	c, ok := r.RGBAAt(2, 1)
	if !ok || c != Pack(0x10, 0x20, 0x30, 0xFF) {
		t.Fatalf("expected 0x102030FF at (2,1), got 0x%08X ok=%v", c, ok)
	}

	out := r.ToImage()
	if got := out.RGBAAt(2, 1); got != (color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xFF}) {
		t.Fatalf("round trip lost pixel: %v", got)
	}
}

func TestFromImageNonZeroOrigin(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 5, 8, 7))
	img.SetRGBA(5, 5, color.RGBA{R: 0xAA, A: 0xFF})

	r := FromImage(img)
	if r.Width() != 3 || r.Height() != 2 {
		t.Fatalf("expected 3x2, got %dx%d", r.Width(), r.Height())
	}
	if c, _ := r.RGBAAt(0, 0); c != Pack(0xAA, 0, 0, 0xFF) {
		t.Fatalf("expected translated origin pixel, got 0x%08X", c)
	}
}

func TestLimiterCap(t *testing.T) {
	l := NewLimiter(2)

	a, err := l.New(1, 1, make([]uint8, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := l.New(1, 1, make([]uint8, 4)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := l.New(1, 1, make([]uint8, 4)); !errors.Is(err, ErrTooManyRasters) {
		t.Fatalf("expected ErrTooManyRasters, got %v", err)
	}

	a.Close()
	if _, err := l.New(1, 1, make([]uint8, 4)); err != nil {
		t.Fatalf("expected slot after close, got %v", err)
	}
}

func TestLimiterDoesNotLeakSlotOnBadBuffer(t *testing.T) {
	l := NewLimiter(1)
	if _, err := l.New(2, 2, make([]uint8, 3)); err == nil {
		t.Fatalf("expected error for short buffer")
	}
	if l.Live() != 0 {
		t.Fatalf("expected slot released on failed construction, live=%d", l.Live())
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	l := NewLimiter(1)
	r, err := l.New(1, 1, make([]uint8, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Close()
	r.Close()
	if l.Live() != 0 {
		t.Fatalf("expected live=0 after double close, got %d", l.Live())
	}

	// Untracked rasters tolerate Close too.
	u, _ := New(1, 1, make([]uint8, 4))
	u.Close()
}

func TestCloneIsIndependent(t *testing.T) {
	l := NewLimiter(1)
	r, err := l.FromBGRA(1, 1, []byte{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := r.Clone()
	r.Close()

	if l.Live() != 0 {
		t.Fatalf("clone must not hold a limiter slot, live=%d", l.Live())
	}
	want, _ := r.RGBAAt(0, 0)
	got, _ := c.RGBAAt(0, 0)
	if got != want {
		t.Fatalf("clone pixel mismatch: 0x%08X vs 0x%08X", got, want)
	}
}
