//go:build !linux && !windows

package native

import "github.com/1broseidon/glimpse/internal/raster"

const (
	backendSupported = false
	backendName      = "none"
)

func openBackend(*raster.Limiter) (backend, error) {
	return nil, ErrUnsupportedPlatform
}
