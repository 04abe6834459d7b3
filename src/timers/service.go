// Package timers provides named, epoch-tagged deferred callbacks that always
// run on the goroutine owning the hover state.
package timers

import (
	"log/slog"
	"time"
)

// Name identifies a timer slot. Only one handle per name is active.
type Name string

const (
	Enter        Name = "enterTimer"
	Hide         Name = "hideTimer"
	Continuation Name = "continuationTimer"
)

// Handle identifies one scheduled callback.
type Handle struct {
	ID       uint64
	Name     Name
	Deadline time.Time
	Epoch    uint64
}

type entry struct {
	handle Handle
	timer  Timer
	cb     func()
}

// Service schedules callbacks through a Clock and delivers them via post,
// which must enqueue onto the owning goroutine. All methods must be called on
// that goroutine; a cancel that runs before the posted fire wins.
type Service struct {
	clock   Clock
	post    func(func())
	epoch   func() uint64
	active  map[Name]*entry
	seq     uint64
	stale   uint64
	onStale func(Handle)
}

// NewService creates a Service. epoch reports the current epoch; callbacks
// scheduled under a different epoch are dropped when they fire.
func NewService(clock Clock, post func(func()), epoch func() uint64) *Service {
	if clock == nil {
		clock = Real()
	}
	return &Service{
		clock:  clock,
		post:   post,
		epoch:  epoch,
		active: make(map[Name]*entry, 3),
	}
}

// Schedule runs cb after delay unless cancelled, replacing any timer already
// scheduled under name.
func (s *Service) Schedule(name Name, delay time.Duration, epoch uint64, cb func()) Handle {
	s.CancelName(name)

	s.seq++
	h := Handle{ID: s.seq, Name: name, Deadline: s.clock.Now().Add(delay), Epoch: epoch}
	e := &entry{handle: h, cb: cb}
	e.timer = s.clock.AfterFunc(delay, func() {
		s.post(func() { s.fire(h) })
	})
	s.active[name] = e
	return h
}

// Cancel stops h if it is still the active handle for its name.
func (s *Service) Cancel(h Handle) bool {
	e, ok := s.active[h.Name]
	if !ok || e.handle.ID != h.ID {
		return false
	}
	e.timer.Stop()
	delete(s.active, h.Name)
	return true
}

// CancelName stops whatever is scheduled under name.
func (s *Service) CancelName(name Name) bool {
	e, ok := s.active[name]
	if !ok {
		return false
	}
	return s.Cancel(e.handle)
}

// CancelAll stops every active timer.
func (s *Service) CancelAll() {
	for name := range s.active {
		s.CancelName(name)
	}
}

// Pending returns the active handle for name.
func (s *Service) Pending(name Name) (Handle, bool) {
	e, ok := s.active[name]
	if !ok {
		return Handle{}, false
	}
	return e.handle, true
}

// OnStale registers a hook run when the epoch guard drops a callback.
func (s *Service) OnStale(fn func(Handle)) { s.onStale = fn }

// StaleCount is the number of callbacks dropped by the epoch guard.
func (s *Service) StaleCount() uint64 { return s.stale }

func (s *Service) fire(h Handle) {
	e, ok := s.active[h.Name]
	if !ok || e.handle.ID != h.ID {
		slog.Debug("cancelled timer fired late", "timer", string(h.Name), "id", h.ID)
		return
	}
	delete(s.active, h.Name)

	if cur := s.epoch(); cur != h.Epoch {
		s.stale++
		slog.Debug("stale timer callback ignored", "timer", string(h.Name), "scheduled_epoch", h.Epoch, "epoch", cur)
		if s.onStale != nil {
			s.onStale(h)
		}
		return
	}
	e.cb()
}
