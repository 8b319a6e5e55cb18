package native

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedPlatform answers every request on platforms without a
	// native backend.
	ErrUnsupportedPlatform = errors.New("platform has no native window backend")

	// ErrWindowMinimized rejects captures of iconified windows, whose
	// pixel contents are not meaningful.
	ErrWindowMinimized = errors.New("window is minimized")

	// ErrWindowGone marks a handle whose window no longer exists.
	ErrWindowGone = errors.New("window no longer exists")

	// ErrDisplayNotFound rejects captures of display indexes that are not
	// attached.
	ErrDisplayNotFound = errors.New("display not found")

	// ErrStopped answers requests issued against a service whose worker
	// has shut down.
	ErrStopped = errors.New("native service stopped")
)

// CallError reports a single failed native call, preserving the OS error
// code the platform produced so callers can distinguish a stale handle from
// a systemic failure.
type CallError struct {
	Op   string
	Code uintptr
	Err  error
}

func (e *CallError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	case e.Code != 0:
		return fmt.Sprintf("%s failed with code %d", e.Op, e.Code)
	default:
		return fmt.Sprintf("%s failed", e.Op)
	}
}

func (e *CallError) Unwrap() error { return e.Err }
