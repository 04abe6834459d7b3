package scale

import (
	"errors"
	"image"

	"github.com/kbinani/screenshot"
)

// DisplayFunc returns a Func that compares the primary display's bounds with
// the reference resolution.
func DisplayFunc(ref image.Point) Func {
	return func() (Factor, error) {
		if screenshot.NumActiveDisplays() == 0 {
			return Factor{}, errors.New("no active displays found")
		}
		return FromBounds(screenshot.GetDisplayBounds(0), ref)
	}
}
