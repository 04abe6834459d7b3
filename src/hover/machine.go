package hover

import (
	"image"
	"log/slog"
	"time"

	"hover-confirm/src/dispatch"
	"hover-confirm/src/scale"
	"hover-confirm/src/timers"
	"hover-confirm/src/trace"
	"hover-confirm/src/zones"
)

// Options wires a Machine to its collaborators.
type Options struct {
	Config     Config
	Index      *zones.Index
	Scale      scale.Provider
	Timers     *timers.Service
	Dispatcher *dispatch.Dispatcher
	Clock      timers.Clock
	// OnAffordance receives Show/Hide. Panics are recovered.
	OnAffordance func(Event)
	Trace        trace.Recorder
}

// Machine is the hover state machine.
type Machine struct {
	cfg        Config
	index      *zones.Index
	scale      scale.Provider
	timers     *timers.Service
	dispatcher *dispatch.Dispatcher
	clock      timers.Clock
	onEvent    func(Event)
	trace      trace.Recorder

	s Session
	// rect of CurrentZone that contained the latest sample
	currentRect image.Rectangle
	// rect the displayed affordance was shown for
	shownRect image.Rectangle
}

// New creates a Machine in the Idle state.
func New(opts Options) *Machine {
	m := &Machine{
		cfg:        opts.Config.withDefaults(),
		index:      opts.Index,
		scale:      opts.Scale,
		timers:     opts.Timers,
		dispatcher: opts.Dispatcher,
		clock:      opts.Clock,
		onEvent:    opts.OnAffordance,
		trace:      opts.Trace,
	}
	if m.index == nil {
		m.index = zones.NewIndex()
	}
	if m.scale == nil {
		m.scale = scale.Static(scale.Identity)
	}
	if m.clock == nil {
		m.clock = timers.Real()
	}
	if m.dispatcher == nil {
		m.dispatcher = dispatch.New(time.Second, m.clock.Now, nil)
	}
	if m.trace == nil {
		m.trace = trace.Nop{}
	}
	if m.timers == nil {
		m.timers = timers.NewService(m.clock, func(f func()) { f() }, m.index.Epoch)
	}
	m.timers.OnStale(func(h timers.Handle) {
		m.record(trace.Event{Kind: trace.KindStale, Epoch: h.Epoch, Timer: string(h.Name)})
	})
	return m
}

// Session returns a copy of the current session.
func (m *Machine) Session() Session { return m.s }

// Config returns the effective delays.
func (m *Machine) Config() Config { return m.cfg }

// OnSample advances the machine with a new pointer position.
func (m *Machine) OnSample(p image.Point) {
	epoch := m.index.Epoch()
	match, ok := m.index.Match(p, m.scale.Current())
	z := ""
	if ok {
		z = match.ZoneID
	}

	if m.s.DisplayedZone != "" {
		m.s.PointerOverAffordance = p.In(m.s.AffordanceBounds)
		if m.s.PointerOverAffordance {
			m.timers.CancelName(timers.Hide)
		}
	} else {
		m.s.PointerOverAffordance = false
	}

	if z == m.s.CurrentZone {
		if ok {
			m.currentRect = match.Rect
		}
		if m.tryContinuation(p) {
			return
		}
		m.rearmHide(epoch)
		return
	}

	// The pointer is over an affordance that belongs to another zone: keep it.
	if m.s.DisplayedZone != "" && m.s.DisplayedZone != z && m.s.PointerOverAffordance {
		m.timers.CancelName(timers.Enter)
		return
	}

	m.timers.CancelName(timers.Enter)
	m.timers.CancelName(timers.Hide)
	m.s.CurrentZone = z
	m.currentRect = match.Rect

	if m.tryContinuation(p) {
		return
	}
	if z != "" {
		m.timers.CancelName(timers.Continuation)
	}

	switch {
	case z == "":
		if m.s.DisplayedZone != "" && !m.s.PointerOverAffordance {
			m.scheduleHide(epoch)
		}
	case m.s.DisplayedZone == z:
		// back inside the displayed zone; the hide timer is already cancelled
	case m.s.DisplayedZone != "":
		m.hideNow("zone changed")
		m.scheduleShow(z, epoch)
	default:
		m.scheduleShow(z, epoch)
	}
}

// OnClick reports a click on the displayed affordance of zoneID. The action is
// confirmed through the dispatcher, the affordance is hidden at once and the
// continuation window opens.
func (m *Machine) OnClick(zoneID string) dispatch.Result {
	now := m.clock.Now()
	epoch := m.index.Epoch()
	if m.s.DisplayedZone == "" || (zoneID != "" && zoneID != m.s.DisplayedZone) {
		slog.Debug("click ignored", "zone", zoneID, "displayed", m.s.DisplayedZone)
		return dispatch.Result{Outcome: dispatch.Rejected, ZoneID: zoneID, Reason: ErrNotDisplayed, At: now}
	}
	zoneID = m.s.DisplayedZone
	zone, ok := m.index.Snapshot().Lookup(zoneID)
	if !ok {
		m.hideNow("zone gone")
		return dispatch.Result{Outcome: dispatch.Rejected, ZoneID: zoneID, Reason: ErrNotDisplayed, At: now}
	}

	res := m.dispatcher.Confirm(zoneID, zone.ActionID)
	kind := trace.KindDispatch
	reason := ""
	if res.Outcome == dispatch.Rejected {
		kind = trace.KindReject
		reason = res.Reason.Error()
	}
	m.record(trace.Event{Kind: kind, Epoch: epoch, ZoneID: zoneID, ActionID: zone.ActionID, Reason: reason})

	m.s.LastActionZone = zoneID
	m.s.LastActionAt = now
	m.hideNow("clicked")
	m.timers.CancelName(timers.Enter)
	m.timers.Schedule(timers.Continuation, m.cfg.Continuation, epoch, func() {
		slog.Debug("continuation window closed", "zone", zoneID)
	})
	return res
}

// SetAffordanceBounds records where the renderer actually placed the control.
func (m *Machine) SetAffordanceBounds(r image.Rectangle) {
	if m.s.DisplayedZone == "" || r.Empty() {
		return
	}
	m.s.AffordanceBounds = r
	m.s.LastAffordanceBounds = r
}

// OnReload must be called after the index has been reloaded. Pending timers
// are dropped and the next sample is evaluated from scratch; an affordance
// whose zone is gone or disabled, or no longer covers the shown rect, is
// hidden.
func (m *Machine) OnReload() {
	snap := m.index.Snapshot()
	m.timers.CancelAll()
	if d := m.s.DisplayedZone; d != "" {
		z, ok := snap.Lookup(d)
		switch {
		case !ok || !z.Enabled:
			m.hideNow("zone removed")
		case !m.covers(z, m.shownRect):
			m.hideNow("zone moved")
		}
	}
	m.s.CurrentZone = ""
	m.currentRect = image.Rectangle{}
	m.record(trace.Event{Kind: trace.KindReload, Epoch: snap.Epoch})
}

// Reset cancels every timer, force-hides the affordance, clears the session
// and bumps the epoch so that callbacks already queued become no-ops.
func (m *Machine) Reset() uint64 {
	m.timers.CancelAll()
	m.hideNow("reset")
	m.s = Session{}
	m.currentRect = image.Rectangle{}
	return m.index.Invalidate()
}

// covers reports whether r lies inside one of z's rects at the current scale.
func (m *Machine) covers(z zones.Zone, r image.Rectangle) bool {
	f := m.scale.Current()
	for _, zr := range z.Rects {
		if r.In(zones.ScaleRect(zr, f)) {
			return true
		}
	}
	return false
}

func (m *Machine) scheduleShow(z string, epoch uint64) {
	m.timers.Schedule(timers.Enter, m.cfg.EnterDelay, epoch, func() {
		if m.s.CurrentZone != z {
			return
		}
		m.show(z, m.currentRect, "dwell")
	})
}

func (m *Machine) scheduleHide(epoch uint64) {
	m.timers.Schedule(timers.Hide, m.cfg.AutoHide, epoch, func() {
		if m.s.PointerOverAffordance {
			slog.Debug("auto-hide suppressed, pointer over affordance", "zone", m.s.DisplayedZone)
			return
		}
		m.hideNow("auto-hide")
	})
}

// rearmHide covers a displayed affordance that the pointer has left while
// already outside its zone, e.g. after a suppressed auto-hide.
func (m *Machine) rearmHide(epoch uint64) {
	if m.s.DisplayedZone == "" || m.s.PointerOverAffordance || m.s.CurrentZone == m.s.DisplayedZone {
		return
	}
	if _, pending := m.timers.Pending(timers.Hide); pending {
		return
	}
	m.scheduleHide(epoch)
}

// tryContinuation re-shows the last confirmed zone when the pointer is back inside
// its affordance bounds while the continuation window is open.
func (m *Machine) tryContinuation(p image.Point) bool {
	if m.s.DisplayedZone != "" || m.s.LastActionZone == "" {
		return false
	}
	if _, pending := m.timers.Pending(timers.Continuation); !pending {
		return false
	}
	if !p.In(m.s.LastAffordanceBounds) {
		return false
	}
	z, ok := m.index.Snapshot().Lookup(m.s.LastActionZone)
	if !ok || !z.Enabled {
		return false
	}
	m.timers.CancelName(timers.Continuation)
	m.timers.CancelName(timers.Enter)
	m.show(z.ID, m.s.LastAffordanceBounds, "continuation")
	m.s.PointerOverAffordance = true
	return true
}

func (m *Machine) show(z string, rect image.Rectangle, cause string) {
	if m.s.DisplayedZone == z {
		return
	}
	if m.s.DisplayedZone != "" {
		m.hideNow("replaced")
	}
	m.timers.CancelName(timers.Hide)
	m.s.DisplayedZone = z
	m.shownRect = rect
	m.s.AffordanceBounds = rect
	m.s.LastAffordanceBounds = rect
	m.s.LastActionZone = z
	slog.Debug("affordance shown", "zone", z, "rect", rect, "cause", cause)
	m.record(trace.Event{Kind: trace.KindShow, Epoch: m.index.Epoch(), ZoneID: z, Rect: trace.FromRectangle(rect), Reason: cause})
	m.emit(Event{Kind: Show, ZoneID: z, Rect: rect})
}

func (m *Machine) hideNow(cause string) {
	z := m.s.DisplayedZone
	if z == "" {
		return
	}
	m.timers.CancelName(timers.Hide)
	m.s.DisplayedZone = ""
	m.shownRect = image.Rectangle{}
	m.s.PointerOverAffordance = false
	m.s.AffordanceBounds = image.Rectangle{}
	slog.Debug("affordance hidden", "zone", z, "cause", cause)
	m.record(trace.Event{Kind: trace.KindHide, Epoch: m.index.Epoch(), ZoneID: z, Reason: cause})
	m.emit(Event{Kind: Hide, ZoneID: z})
}

func (m *Machine) emit(e Event) {
	if m.onEvent == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("affordance callback panicked", "event", e.String(), "panic", r)
		}
	}()
	m.onEvent(e)
}

func (m *Machine) record(e trace.Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = m.clock.Now()
	}
	m.trace.Record(e)
}
