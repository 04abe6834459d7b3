//go:build !windows

package pointer

import (
	"errors"
	"image"
)

type win32Unsupported struct{}

func newWin32Source() Source { return win32Unsupported{} }

func (win32Unsupported) Open() error { return errors.New("win32 pointer source requires windows") }

func (win32Unsupported) Position() (image.Point, error) { return image.Point{}, ErrNoPosition }

func (win32Unsupported) Close() error { return nil }
