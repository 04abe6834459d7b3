// Package hover implements the dwell-to-confirm state machine: it turns a
// stream of pointer samples into Show/Hide affordance events and confirmed
// actions.
//
// A Machine is not safe for concurrent use. Every method, and every timer
// callback it schedules, must run on the single goroutine that owns it (see
// package eventloop).
package hover

import (
	"errors"
	"fmt"
	"image"
	"time"
)

// ErrNotDisplayed rejects a click for a zone whose affordance is not shown.
var ErrNotDisplayed = errors.New("affordance not displayed")

// EventKind distinguishes affordance events.
type EventKind int

const (
	Show EventKind = iota + 1
	Hide
)

func (k EventKind) String() string {
	switch k {
	case Show:
		return "Show"
	case Hide:
		return "Hide"
	default:
		return "Unknown"
	}
}

// Event is delivered to the renderer. Rect is only set for Show.
type Event struct {
	Kind   EventKind
	ZoneID string
	Rect   image.Rectangle
}

func (e Event) String() string {
	if e.Kind == Show {
		return fmt.Sprintf("Show(%s, %v)", e.ZoneID, e.Rect)
	}
	return fmt.Sprintf("Hide(%s)", e.ZoneID)
}

// Config holds the tunable delays.
type Config struct {
	EnterDelay   time.Duration // dwell before Show
	AutoHide     time.Duration // delay after leaving all zones before Hide
	Continuation time.Duration // window after a click in which re-entry re-shows at once
}

// DefaultConfig returns the stock delays.
func DefaultConfig() Config {
	return Config{
		EnterDelay:   200 * time.Millisecond,
		AutoHide:     3000 * time.Millisecond,
		Continuation: 300 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.EnterDelay <= 0 {
		c.EnterDelay = d.EnterDelay
	}
	if c.AutoHide <= 0 {
		c.AutoHide = d.AutoHide
	}
	if c.Continuation <= 0 {
		c.Continuation = d.Continuation
	}
	return c
}

// Session is the mutable hover state. The empty string means "no zone".
type Session struct {
	CurrentZone           string
	DisplayedZone         string
	PointerOverAffordance bool
	LastActionZone        string
	LastActionAt          time.Time
	// AffordanceBounds are the bounds of the control currently displayed.
	AffordanceBounds image.Rectangle
	// LastAffordanceBounds survive a hide; the continuation path tests against them.
	LastAffordanceBounds image.Rectangle
}
