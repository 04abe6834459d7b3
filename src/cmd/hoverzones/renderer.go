package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"

	"hover-confirm/src/dispatch"
	"hover-confirm/src/hover"
)

// headlessRenderer stands in for a real overlay: it prints affordance events
// and turns global mouse-down events inside the shown rectangle into clicks.
type headlessRenderer struct {
	out io.Writer

	mu    sync.Mutex
	shown *hover.Event
}

func newHeadlessRenderer(out io.Writer) *headlessRenderer {
	return &headlessRenderer{out: out}
}

// OnAffordance runs on the event loop goroutine.
func (r *headlessRenderer) OnAffordance(e hover.Event) {
	r.mu.Lock()
	if e.Kind == hover.Show {
		ev := e
		r.shown = &ev
	} else {
		r.shown = nil
	}
	r.mu.Unlock()
	fmt.Fprintln(r.out, e.String())
}

// hit returns the zone whose affordance contains p.
func (r *headlessRenderer) hit(p image.Point) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.shown == nil || !p.In(r.shown.Rect) {
		return "", false
	}
	return r.shown.ZoneID, true
}

// watchClicks forwards hits to click until ctx is done or clicks closes.
func (r *headlessRenderer) watchClicks(ctx context.Context, clicks <-chan image.Point, click func(string) dispatch.Result) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-clicks:
			if !ok {
				return
			}
			zone, ok := r.hit(p)
			if !ok {
				continue
			}
			res := click(zone)
			slog.Debug("affordance clicked", "zone", zone, "at", p, "result", res.String())
			fmt.Fprintln(r.out, res.String())
		}
	}
}
