//go:build windows

package native

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/kbinani/screenshot"

	"github.com/1broseidon/glimpse/internal/raster"
)

const (
	backendSupported = true
	backendName      = "winapi"
)

var (
	user32 = syscall.NewLazyDLL("user32.dll")
	gdi32  = syscall.NewLazyDLL("gdi32.dll")

	procEnumWindows         = user32.NewProc("EnumWindows")
	procIsWindowVisible     = user32.NewProc("IsWindowVisible")
	procGetWindowTextW      = user32.NewProc("GetWindowTextW")
	procGetWindowRect       = user32.NewProc("GetWindowRect")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procIsIconic            = user32.NewProc("IsIconic")
	procIsWindow            = user32.NewProc("IsWindow")
	procGetWindowDC         = user32.NewProc("GetWindowDC")
	procReleaseDC           = user32.NewProc("ReleaseDC")

	procCreateCompatibleDC     = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC               = gdi32.NewProc("DeleteDC")
	procCreateCompatibleBitmap = gdi32.NewProc("CreateCompatibleBitmap")
	procDeleteObject           = gdi32.NewProc("DeleteObject")
	procSelectObject           = gdi32.NewProc("SelectObject")
	procBitBlt                 = gdi32.NewProc("BitBlt")
	procGetDIBits              = gdi32.NewProc("GetDIBits")
)

const (
	srcCopy      = 0x00CC0020
	dibRGBColors = 0
)

type winRect struct {
	Left, Top, Right, Bottom int32
}

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}

// enumResult collects handles during an EnumWindows pass. Only the worker
// thread enumerates, so plain package state is safe; the callback itself is
// created once because callbacks are a finite process-wide resource.
var enumResult []WindowHandle

var enumCallback = syscall.NewCallback(func(hwnd, _ uintptr) uintptr {
	if !winBool(procIsWindowVisible.Call(hwnd)) {
		return 1
	}
	if windowText(hwnd) == "" {
		return 1
	}
	enumResult = append(enumResult, WindowHandle(hwnd))
	return 1
})

// winBackend drives the GDI window surface. All calls happen on the worker
// thread.
type winBackend struct {
	limiter *raster.Limiter
}

var _ backend = (*winBackend)(nil)

func openBackend(limiter *raster.Limiter) (backend, error) {
	return &winBackend{limiter: limiter}, nil
}

func winBool(ret uintptr, _ uintptr, _ error) bool { return ret != 0 }

func lastErrno(err error) uintptr {
	if e, ok := err.(syscall.Errno); ok {
		return uintptr(e)
	}
	return 0
}

func windowText(hwnd uintptr) string {
	var buf [512]uint16
	n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return syscall.UTF16ToString(buf[:n])
}

func (b *winBackend) enumerate() ([]WindowHandle, error) {
	enumResult = nil
	ret, _, callErr := procEnumWindows.Call(enumCallback, 0)
	if ret == 0 {
		return nil, &CallError{Op: "EnumWindows", Code: lastErrno(callErr)}
	}
	handles := enumResult
	enumResult = nil
	return handles, nil
}

func (b *winBackend) title(h WindowHandle) (string, error) {
	return windowText(uintptr(h)), nil
}

func (b *winBackend) rect(h WindowHandle) (Rect, error) {
	var rc winRect
	ret, _, callErr := procGetWindowRect.Call(uintptr(h), uintptr(unsafe.Pointer(&rc)))
	if ret == 0 {
		return Rect{}, &CallError{Op: "GetWindowRect", Code: lastErrno(callErr)}
	}
	return Rect{Left: int(rc.Left), Top: int(rc.Top), Right: int(rc.Right), Bottom: int(rc.Bottom)}, nil
}

func (b *winBackend) focused(h WindowHandle) (bool, error) {
	fg, _, _ := procGetForegroundWindow.Call()
	return fg == uintptr(h), nil
}

func (b *winBackend) captureWindow(h WindowHandle) (*raster.Raster, error) {
	hwnd := uintptr(h)

	rc, err := b.rect(h)
	if err != nil {
		return nil, err
	}
	if winBool(procIsIconic.Call(hwnd)) {
		return nil, ErrWindowMinimized
	}
	if !winBool(procIsWindow.Call(hwnd)) {
		return nil, ErrWindowGone
	}

	width := rc.Width()
	height := rc.Height()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("window rectangle %dx%d has no area", width, height)
	}

	windowDC, _, callErr := procGetWindowDC.Call(hwnd)
	if windowDC == 0 {
		return nil, &CallError{Op: "GetWindowDC", Code: lastErrno(callErr)}
	}
	defer procReleaseDC.Call(hwnd, windowDC)

	memDC, _, callErr := procCreateCompatibleDC.Call(windowDC)
	if memDC == 0 {
		return nil, &CallError{Op: "CreateCompatibleDC", Code: lastErrno(callErr)}
	}
	defer procDeleteDC.Call(memDC)

	bitmap, _, callErr := procCreateCompatibleBitmap.Call(windowDC, uintptr(width), uintptr(height))
	if bitmap == 0 {
		return nil, &CallError{Op: "CreateCompatibleBitmap", Code: lastErrno(callErr)}
	}
	defer procDeleteObject.Call(bitmap)

	prev, _, _ := procSelectObject.Call(memDC, bitmap)
	ret, _, callErr := procBitBlt.Call(memDC, 0, 0, uintptr(width), uintptr(height), windowDC, 0, 0, srcCopy)
	// The bitmap must be deselected before GetDIBits reads it.
	procSelectObject.Call(memDC, prev)
	if ret == 0 {
		return nil, &CallError{Op: "BitBlt", Code: lastErrno(callErr)}
	}

	info := bitmapInfo{
		Header: bitmapInfoHeader{
			Size:     uint32(unsafe.Sizeof(bitmapInfoHeader{})),
			Width:    int32(width),
			Height:   -int32(height), // negative for top-down rows
			Planes:   1,
			BitCount: 32,
		},
	}
	buf := make([]byte, width*height*4)
	ret, _, callErr = procGetDIBits.Call(memDC, bitmap, 0, uintptr(height),
		uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&info)), dibRGBColors)
	if ret == 0 {
		return nil, &CallError{Op: "GetDIBits", Code: lastErrno(callErr)}
	}

	return b.limiter.FromBGRA(uint32(width), uint32(height), buf)
}

func (b *winBackend) displayCount() (int, error) {
	return screenshot.NumActiveDisplays(), nil
}

func (b *winBackend) captureDisplay(index int) (*raster.Raster, error) {
	if index < 0 || index >= screenshot.NumActiveDisplays() {
		return nil, ErrDisplayNotFound
	}
	img, err := screenshot.CaptureDisplay(index)
	if err != nil {
		return nil, fmt.Errorf("failed to capture display %d: %w", index, err)
	}
	return b.limiter.FromImage(img)
}

func (b *winBackend) close() {}
