package native

import "github.com/1broseidon/glimpse/internal/raster"

// backend is the per-platform implementation surface. Every method runs on
// the service's worker thread; implementations own thread-affine native
// state and are never called concurrently.
type backend interface {
	enumerate() ([]WindowHandle, error)
	title(h WindowHandle) (string, error)
	rect(h WindowHandle) (Rect, error)
	focused(h WindowHandle) (bool, error)
	captureWindow(h WindowHandle) (*raster.Raster, error)
	displayCount() (int, error)
	captureDisplay(index int) (*raster.Raster, error)
	close()
}

// opener creates the platform backend. It runs on the already-locked worker
// thread so that thread-affine connections are born on the right thread.
type opener func(limiter *raster.Limiter) (backend, error)
