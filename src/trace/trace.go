// Package trace records hover transitions as a machine-readable event stream.
//
// The trace is separate from operational logging: it captures every show,
// hide, dispatch and stale-callback decision with its epoch so a session can
// be replayed and inspected after the fact with `hoverzones trace`.
package trace

import (
	"fmt"
	"image"
	"strings"
	"time"
)

// Kind classifies a trace event.
type Kind uint8

const (
	KindShow Kind = iota + 1
	KindHide
	KindDispatch
	KindReject
	KindStale
	KindReload
	KindEnable
	KindDisable
	KindShutdown
)

var kindNames = map[Kind]string{
	KindShow:     "show",
	KindHide:     "hide",
	KindDispatch: "dispatch",
	KindReject:   "reject",
	KindStale:    "stale",
	KindReload:   "reload",
	KindEnable:   "enable",
	KindDisable:  "disable",
	KindShutdown: "shutdown",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// ParseKind maps a name back to its Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown trace kind %q", s)
}

// Rect is a screen rectangle in trace form.
type Rect struct {
	MinX int `cbor:"1,keyasint"`
	MinY int `cbor:"2,keyasint"`
	MaxX int `cbor:"3,keyasint"`
	MaxY int `cbor:"4,keyasint"`
}

// FromRectangle converts an image.Rectangle.
func FromRectangle(r image.Rectangle) *Rect {
	return &Rect{MinX: r.Min.X, MinY: r.Min.Y, MaxX: r.Max.X, MaxY: r.Max.Y}
}

// Rectangle converts back to an image.Rectangle.
func (r *Rect) Rectangle() image.Rectangle {
	if r == nil {
		return image.Rectangle{}
	}
	return image.Rect(r.MinX, r.MinY, r.MaxX, r.MaxY)
}

// Event is one recorded transition. CBOR encoding uses integer keys.
type Event struct {
	Timestamp time.Time `cbor:"1,keyasint"`
	Kind      Kind      `cbor:"2,keyasint"`
	Epoch     uint64    `cbor:"3,keyasint"`
	ZoneID    string    `cbor:"4,keyasint,omitempty"`
	ActionID  string    `cbor:"5,keyasint,omitempty"`
	Rect      *Rect     `cbor:"6,keyasint,omitempty"`
	Timer     string    `cbor:"7,keyasint,omitempty"`
	Reason    string    `cbor:"8,keyasint,omitempty"`
}

func (e Event) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-8s epoch=%d", e.Timestamp.Format("15:04:05.000"), e.Kind, e.Epoch)
	if e.ZoneID != "" {
		fmt.Fprintf(&b, " zone=%s", e.ZoneID)
	}
	if e.ActionID != "" {
		fmt.Fprintf(&b, " action=%s", e.ActionID)
	}
	if e.Rect != nil {
		fmt.Fprintf(&b, " rect=%v", e.Rect.Rectangle())
	}
	if e.Timer != "" {
		fmt.Fprintf(&b, " timer=%s", e.Timer)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, " reason=%q", e.Reason)
	}
	return b.String()
}

// Recorder receives trace events. Implementations must not block.
type Recorder interface {
	Record(Event)
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(Event) {}

// Multi fans events out to several recorders.
type Multi []Recorder

func (m Multi) Record(e Event) {
	for _, r := range m {
		if r != nil {
			r.Record(e)
		}
	}
}

// Filter selects events for display.
type Filter struct {
	ZoneID string
	Kinds  []Kind
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Event) bool {
	if f.ZoneID != "" && e.ZoneID != f.ZoneID {
		return false
	}
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if e.Kind == k {
			return true
		}
	}
	return false
}
