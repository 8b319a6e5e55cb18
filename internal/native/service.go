// Package native serializes all window-system calls onto a single
// OS-locked worker thread. Platform APIs for enumeration, geometry, focus
// and capture are thread-affine on every supported backend, so the service
// owns the one thread allowed to touch them and everything else talks to
// that thread through typed requests.
package native

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/1broseidon/glimpse/internal/raster"
)

// DefaultRasterLimit caps simultaneously live captures when Options leaves
// RasterLimit unset.
const DefaultRasterLimit = 20

// Options configure a Service. The zero value is usable.
type Options struct {
	// Logger receives worker lifecycle logs. Defaults to slog.Default().
	Logger *slog.Logger

	// RasterLimit caps how many captures may be live at once. Values at
	// or below zero select DefaultRasterLimit.
	RasterLimit int

	// Limiter overrides the raster accounting entirely, letting a caller
	// share one budget between captured and decoded images. When set,
	// RasterLimit is ignored.
	Limiter *raster.Limiter
}

// Service owns the single OS thread allowed to touch native window APIs and
// serializes all callers onto it. Construct one per process with NewService
// and share it by pointer; the worker thread starts lazily on the first
// request and every method is safe for concurrent use.
type Service struct {
	logger  *slog.Logger
	limiter *raster.Limiter
	open    opener

	startOnce sync.Once
	startErr  error
	requests  chan message
	exited    chan struct{}
}

// NewService returns a service backed by the current platform's window
// system. No native resources are touched until the first request.
func NewService(opts Options) *Service {
	return newService(opts, openBackend)
}

func newService(opts Options, open opener) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limiter := opts.Limiter
	if limiter == nil {
		limit := opts.RasterLimit
		if limit <= 0 {
			limit = DefaultRasterLimit
		}
		limiter = raster.NewLimiter(limit)
	}
	return &Service{
		logger:   logger,
		limiter:  limiter,
		open:     open,
		requests: make(chan message),
		exited:   make(chan struct{}),
	}
}

// Limiter exposes the raster budget shared by this service's captures.
func (s *Service) Limiter() *raster.Limiter { return s.limiter }

// message is what the worker receives. Concrete requests are generic in
// their result type, so a reply of the wrong shape cannot be constructed.
type message interface {
	// execute runs the command on the worker thread and reports whether
	// the worker should stop afterwards.
	execute(b backend) (stop bool)
}

type outcome[T any] struct {
	value T
	err   error
}

// request carries one command and its private reply channel. The channel is
// buffered so the worker never blocks on a caller that gave up waiting.
type request[T any] struct {
	do    func(backend) (T, error)
	reply chan outcome[T]
	stop  bool
}

func (r request[T]) execute(b backend) bool {
	v, err := r.do(b)
	r.reply <- outcome[T]{value: v, err: err}
	return r.stop
}

// start spawns the worker exactly once. The backend is opened on the locked
// thread; an open failure becomes the service's permanent error. Platforms
// without a backend fail here without ever creating a thread.
func (s *Service) start() error {
	s.startOnce.Do(func() {
		if !backendSupported {
			s.startErr = ErrUnsupportedPlatform
			close(s.exited)
			return
		}
		ready := make(chan error, 1)
		go s.run(ready)
		s.startErr = <-ready
	})
	return s.startErr
}

func (s *Service) run(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.exited)

	b, err := s.open(s.limiter)
	if err != nil {
		ready <- err
		return
	}
	defer b.close()

	s.logger.Debug("native worker started", "backend", backendName)
	ready <- nil

	for msg := range s.requests {
		if msg.execute(b) {
			s.logger.Debug("native worker stopped")
			return
		}
	}
}

// call sends one typed request and blocks for its reply. Cancelling ctx
// abandons the wait; the worker still completes the native call and the
// orphaned reply is dropped through the channel's buffer.
func call[T any](ctx context.Context, s *Service, stop bool, do func(backend) (T, error)) (T, error) {
	var zero T
	if err := s.start(); err != nil {
		return zero, err
	}

	req := request[T]{do: do, reply: make(chan outcome[T], 1), stop: stop}
	select {
	case s.requests <- req:
	case <-s.exited:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case out := <-req.reply:
		return out.value, out.err
	case <-s.exited:
		// The worker replies before exiting, so a shutdown racing this
		// wait may have already delivered our answer.
		select {
		case out := <-req.reply:
			return out.value, out.err
		default:
			return zero, ErrStopped
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Windows lists the visible top-level windows that have a non-empty title.
// Enumeration order is whatever the platform reports and callers must treat
// it as arbitrary.
func (s *Service) Windows(ctx context.Context) ([]WindowHandle, error) {
	return call(ctx, s, false, func(b backend) ([]WindowHandle, error) {
		return b.enumerate()
	})
}

// Title returns the window's current title, or "" when the platform reports
// none.
func (s *Service) Title(ctx context.Context, h WindowHandle) (string, error) {
	return call(ctx, s, false, func(b backend) (string, error) {
		return b.title(h)
	})
}

// WindowRect returns the window's bounding rectangle in screen coordinates.
func (s *Service) WindowRect(ctx context.Context, h WindowHandle) (Rect, error) {
	return call(ctx, s, false, func(b backend) (Rect, error) {
		return b.rect(h)
	})
}

// Focused reports whether h currently holds the input focus.
func (s *Service) Focused(ctx context.Context, h WindowHandle) (bool, error) {
	return call(ctx, s, false, func(b backend) (bool, error) {
		return b.focused(h)
	})
}

// CaptureWindow grabs the window's current contents. The returned raster
// counts against the service's limit until it is closed. Minimized windows
// are rejected with ErrWindowMinimized.
func (s *Service) CaptureWindow(ctx context.Context, h WindowHandle) (*raster.Raster, error) {
	return call(ctx, s, false, func(b backend) (*raster.Raster, error) {
		return b.captureWindow(h)
	})
}

// DisplayCount returns the number of attached displays.
func (s *Service) DisplayCount(ctx context.Context) (int, error) {
	return call(ctx, s, false, func(b backend) (int, error) {
		return b.displayCount()
	})
}

// CaptureDisplay grabs an entire display by zero-based index. The returned
// raster counts against the service's limit until it is closed.
func (s *Service) CaptureDisplay(ctx context.Context, index int) (*raster.Raster, error) {
	return call(ctx, s, false, func(b backend) (*raster.Raster, error) {
		return b.captureDisplay(index)
	})
}

// Shutdown stops the worker thread after it acknowledges. Requests issued
// afterwards fail with ErrStopped. Only needed when deterministic teardown
// matters; abandoning the service leaks nothing but the thread.
func (s *Service) Shutdown(ctx context.Context) error {
	_, err := call(ctx, s, true, func(backend) (struct{}, error) {
		return struct{}{}, nil
	})
	return err
}
