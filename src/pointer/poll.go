package pointer

import (
	"errors"
	"image"

	"github.com/go-vgo/robotgo"
)

// PollSource asks the OS for the cursor position on every sample.
type PollSource struct{}

func (PollSource) Open() error {
	w, h := robotgo.GetScreenSize()
	if w <= 0 || h <= 0 {
		return errors.New("robotgo: no screen available")
	}
	return nil
}

func (PollSource) Position() (image.Point, error) {
	x, y := robotgo.GetMousePos()
	return image.Pt(x, y), nil
}

func (PollSource) Close() error { return nil }
