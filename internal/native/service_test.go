package native

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/1broseidon/glimpse/internal/raster"
)

// fakeBackend stands in for a platform backend. The gate channel, when set,
// makes enumerate block until the channel is closed.
type fakeBackend struct {
	limiter   *raster.Limiter
	handles   []WindowHandle
	titles    map[WindowHandle]string
	rects     map[WindowHandle]Rect
	focusedOn WindowHandle
	minimized map[WindowHandle]bool
	gate      chan struct{}

	closed atomic.Bool
}

func (f *fakeBackend) enumerate() ([]WindowHandle, error) {
	if f.gate != nil {
		<-f.gate
	}
	return f.handles, nil
}

func (f *fakeBackend) title(h WindowHandle) (string, error) {
	return f.titles[h], nil
}

func (f *fakeBackend) rect(h WindowHandle) (Rect, error) {
	r, ok := f.rects[h]
	if !ok {
		return Rect{}, ErrWindowGone
	}
	return r, nil
}

func (f *fakeBackend) focused(h WindowHandle) (bool, error) {
	return h == f.focusedOn, nil
}

func (f *fakeBackend) captureWindow(h WindowHandle) (*raster.Raster, error) {
	if f.minimized[h] {
		return nil, ErrWindowMinimized
	}
	if _, ok := f.rects[h]; !ok {
		return nil, ErrWindowGone
	}
	return f.limiter.New(2, 2, make([]uint8, 16))
}

func (f *fakeBackend) displayCount() (int, error) { return 1, nil }

func (f *fakeBackend) captureDisplay(index int) (*raster.Raster, error) {
	if index != 0 {
		return nil, ErrDisplayNotFound
	}
	return f.limiter.New(4, 4, make([]uint8, 64))
}

func (f *fakeBackend) close() { f.closed.Store(true) }

func newFakeService(t *testing.T, opts Options, fake *fakeBackend) *Service {
	t.Helper()
	return newService(opts, func(limiter *raster.Limiter) (backend, error) {
		fake.limiter = limiter
		return fake, nil
	})
}

func TestServiceRoundTrip(t *testing.T) {
	fake := &fakeBackend{
		handles:   []WindowHandle{0x10, 0x20},
		titles:    map[WindowHandle]string{0x10: "editor", 0x20: ""},
		rects:     map[WindowHandle]Rect{0x10: {Left: 5, Top: 10, Right: 105, Bottom: 60}},
		focusedOn: 0x10,
	}
	svc := newFakeService(t, Options{}, fake)
	ctx := context.Background()

	windows, err := svc.Windows(ctx)
	if err != nil {
		t.Fatalf("Windows() error = %v", err)
	}
	if len(windows) != 2 || windows[0] != 0x10 || windows[1] != 0x20 {
		t.Errorf("Windows() = %v, want [0x10 0x20]", windows)
	}

	title, err := svc.Title(ctx, 0x10)
	if err != nil {
		t.Fatalf("Title() error = %v", err)
	}
	if title != "editor" {
		t.Errorf("Title() = %q, want %q", title, "editor")
	}

	rect, err := svc.WindowRect(ctx, 0x10)
	if err != nil {
		t.Fatalf("WindowRect() error = %v", err)
	}
	if rect.Width() != 100 || rect.Height() != 50 {
		t.Errorf("WindowRect() = %+v, want 100x50", rect)
	}

	focused, err := svc.Focused(ctx, 0x10)
	if err != nil {
		t.Fatalf("Focused() error = %v", err)
	}
	if !focused {
		t.Error("Focused(0x10) = false, want true")
	}

	if _, err := svc.WindowRect(ctx, 0x99); !errors.Is(err, ErrWindowGone) {
		t.Errorf("WindowRect(stale) error = %v, want ErrWindowGone", err)
	}
}

func TestServiceStartsWorkerOnce(t *testing.T) {
	var opens atomic.Int32
	fake := &fakeBackend{handles: []WindowHandle{0x1}}
	svc := newService(Options{}, func(limiter *raster.Limiter) (backend, error) {
		opens.Add(1)
		fake.limiter = limiter
		return fake, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Windows(context.Background()); err != nil {
				t.Errorf("Windows() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := opens.Load(); got != 1 {
		t.Errorf("backend opened %d times, want 1", got)
	}
}

func TestServiceOpenFailureIsPermanent(t *testing.T) {
	var opens atomic.Int32
	openErr := fmt.Errorf("failed to connect to X11: no display")
	svc := newService(Options{}, func(*raster.Limiter) (backend, error) {
		opens.Add(1)
		return nil, openErr
	})

	for i := 0; i < 3; i++ {
		if _, err := svc.Windows(context.Background()); !errors.Is(err, openErr) {
			t.Fatalf("Windows() error = %v, want %v", err, openErr)
		}
	}
	if got := opens.Load(); got != 1 {
		t.Errorf("backend opened %d times, want 1", got)
	}
}

func TestServiceShutdown(t *testing.T) {
	fake := &fakeBackend{handles: []WindowHandle{0x1}}
	svc := newFakeService(t, Options{}, fake)
	ctx := context.Background()

	if _, err := svc.Windows(ctx); err != nil {
		t.Fatalf("Windows() error = %v", err)
	}
	if err := svc.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	<-svc.exited
	if !fake.closed.Load() {
		t.Error("backend not closed after shutdown")
	}

	if _, err := svc.Windows(ctx); !errors.Is(err, ErrStopped) {
		t.Errorf("Windows() after shutdown error = %v, want ErrStopped", err)
	}
	if _, err := svc.CaptureWindow(ctx, 0x1); !errors.Is(err, ErrStopped) {
		t.Errorf("CaptureWindow() after shutdown error = %v, want ErrStopped", err)
	}
}

func TestServiceCaptureMinimizedWindow(t *testing.T) {
	fake := &fakeBackend{
		rects:     map[WindowHandle]Rect{0x1: {Right: 10, Bottom: 10}},
		minimized: map[WindowHandle]bool{0x1: true},
	}
	svc := newFakeService(t, Options{}, fake)

	if _, err := svc.CaptureWindow(context.Background(), 0x1); !errors.Is(err, ErrWindowMinimized) {
		t.Errorf("CaptureWindow(minimized) error = %v, want ErrWindowMinimized", err)
	}
}

func TestServiceCaptureHonorsRasterLimit(t *testing.T) {
	fake := &fakeBackend{rects: map[WindowHandle]Rect{0x1: {Right: 10, Bottom: 10}}}
	svc := newFakeService(t, Options{RasterLimit: 1}, fake)
	ctx := context.Background()

	first, err := svc.CaptureWindow(ctx, 0x1)
	if err != nil {
		t.Fatalf("CaptureWindow() error = %v", err)
	}

	if _, err := svc.CaptureWindow(ctx, 0x1); !errors.Is(err, raster.ErrTooManyRasters) {
		t.Fatalf("CaptureWindow() at limit error = %v, want ErrTooManyRasters", err)
	}

	first.Close()
	second, err := svc.CaptureWindow(ctx, 0x1)
	if err != nil {
		t.Fatalf("CaptureWindow() after release error = %v", err)
	}
	second.Close()

	if live := svc.Limiter().Live(); live != 0 {
		t.Errorf("Live() = %d, want 0", live)
	}
}

func TestServiceCaptureDisplay(t *testing.T) {
	fake := &fakeBackend{}
	svc := newFakeService(t, Options{}, fake)
	ctx := context.Background()

	n, err := svc.DisplayCount(ctx)
	if err != nil {
		t.Fatalf("DisplayCount() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DisplayCount() = %d, want 1", n)
	}

	r, err := svc.CaptureDisplay(ctx, 0)
	if err != nil {
		t.Fatalf("CaptureDisplay() error = %v", err)
	}
	defer r.Close()
	if r.Width() != 4 || r.Height() != 4 {
		t.Errorf("CaptureDisplay() = %dx%d, want 4x4", r.Width(), r.Height())
	}

	if _, err := svc.CaptureDisplay(ctx, 5); !errors.Is(err, ErrDisplayNotFound) {
		t.Errorf("CaptureDisplay(5) error = %v, want ErrDisplayNotFound", err)
	}
}

func TestServiceContextCancelAbandonsCall(t *testing.T) {
	gate := make(chan struct{})
	fake := &fakeBackend{handles: []WindowHandle{0x1}, gate: gate}
	svc := newFakeService(t, Options{}, fake)

	// Warm the worker up with the gate open so start() is not what blocks.
	close(gate)
	if _, err := svc.Windows(context.Background()); err != nil {
		t.Fatalf("Windows() error = %v", err)
	}

	fake.gate = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Windows(ctx)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Windows() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled call did not return")
	}

	// The worker is still wedged on the gated call. Releasing it must leave
	// the service healthy for the next request.
	close(fake.gate)
	if _, err := svc.Windows(context.Background()); err != nil {
		t.Fatalf("Windows() after abandoned call error = %v", err)
	}
}

func TestServiceTitleEmptyIsNotError(t *testing.T) {
	fake := &fakeBackend{titles: map[WindowHandle]string{}}
	svc := newFakeService(t, Options{}, fake)

	title, err := svc.Title(context.Background(), 0x42)
	if err != nil {
		t.Fatalf("Title() error = %v", err)
	}
	if title != "" {
		t.Errorf("Title() = %q, want empty", title)
	}
}

func TestWindowHandleString(t *testing.T) {
	if got := WindowHandle(0x2a00003).String(); got != "0x2a00003" {
		t.Errorf("String() = %q, want %q", got, "0x2a00003")
	}
}

func TestParseWindowHandle(t *testing.T) {
	h, err := ParseWindowHandle(" 0x2a ")
	if err != nil || h != 0x2a {
		t.Fatalf("ParseWindowHandle(\" 0x2a \") = %v, %v; want 0x2a", h, err)
	}
	h, err = ParseWindowHandle("42")
	if err != nil || h != 42 {
		t.Fatalf("ParseWindowHandle(\"42\") = %v, %v; want 42", h, err)
	}
	if _, err := ParseWindowHandle("zzz"); err == nil {
		t.Fatal("ParseWindowHandle(\"zzz\") succeeded, want error")
	}
}
