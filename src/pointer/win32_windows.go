//go:build windows

package pointer

import (
	"fmt"
	"image"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	procGetCursorPos = user32.NewProc("GetCursorPos")
)

type win32Point struct {
	X int32
	Y int32
}

// Win32Source reads the cursor with user32!GetCursorPos.
type Win32Source struct{}

func newWin32Source() Source { return Win32Source{} }

func (Win32Source) Open() error {
	return procGetCursorPos.Find()
}

func (Win32Source) Position() (image.Point, error) {
	var pt win32Point
	r, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if r == 0 {
		return image.Point{}, fmt.Errorf("GetCursorPos: %w", err)
	}
	return image.Pt(int(pt.X), int(pt.Y)), nil
}

func (Win32Source) Close() error { return nil }
