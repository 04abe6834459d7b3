// Package pointer samples the global pointer position on a background
// goroutine and publishes only the latest value.
package pointer

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrSamplerUnavailable is reported once when the OS pointer facility
	// cannot be initialized or stops answering.
	ErrSamplerUnavailable = errors.New("pointer sampler unavailable")
	// ErrNoPosition means the source has not observed the pointer yet.
	ErrNoPosition = errors.New("pointer position not known yet")
	// ErrStopTimeout is returned when the sampler goroutine did not exit in time.
	ErrStopTimeout = errors.New("pointer sampler did not stop in time")
)

// DefaultInterval is the sampling cadence used when none is given.
const DefaultInterval = 100 * time.Millisecond

// Source reads the OS pointer position.
type Source interface {
	Open() error
	Position() (image.Point, error)
	Close() error
}

// Sample is one published pointer position.
type Sample struct {
	Point image.Point
	Seq   uint64
	At    time.Time
}

// Cell is a single-slot, overwrite-on-write mailbox. Store never blocks.
type Cell struct {
	v     atomic.Pointer[Sample]
	seq   atomic.Uint64
	ready chan struct{}
}

// NewCell returns an empty Cell.
func NewCell() *Cell {
	return &Cell{ready: make(chan struct{}, 1)}
}

// Store publishes p, replacing any unread value.
func (c *Cell) Store(p image.Point, at time.Time) {
	s := &Sample{Point: p, Seq: c.seq.Add(1), At: at}
	c.v.Store(s)
	select {
	case c.ready <- struct{}{}:
	default:
	}
}

// Load returns the latest sample.
func (c *Cell) Load() (Sample, bool) {
	s := c.v.Load()
	if s == nil {
		return Sample{}, false
	}
	return *s, true
}

// Ready is signalled after each Store (coalesced).
func (c *Cell) Ready() <-chan struct{} { return c.ready }

// Sampler polls a Source at a fixed cadence.
type Sampler struct {
	src           Source
	cell          *Cell
	onUnavailable func(error)

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewSampler creates a sampler publishing into cell. onUnavailable is called
// at most once, from the sampler goroutine.
func NewSampler(src Source, cell *Cell, onUnavailable func(error)) *Sampler {
	return &Sampler{
		src:           src,
		cell:          cell,
		onUnavailable: onUnavailable,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start begins sampling every interval. Calling Start again has no effect.
func (s *Sampler) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s.startOnce.Do(func() {
		go s.loop(interval)
	})
}

func (s *Sampler) loop(interval time.Duration) {
	defer close(s.done)

	if err := s.src.Open(); err != nil {
		s.unavailable(err)
		return
	}
	defer func() {
		if err := s.src.Close(); err != nil {
			slog.Debug("pointer source close failed", "err", err)
		}
	}()
	slog.Info("pointer sampler started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			slog.Info("pointer sampler stopped")
			return
		case now := <-ticker.C:
			p, err := s.src.Position()
			if errors.Is(err, ErrNoPosition) {
				continue
			}
			if err != nil {
				s.unavailable(err)
				return
			}
			s.cell.Store(p, now)
		}
	}
}

func (s *Sampler) unavailable(err error) {
	err = fmt.Errorf("%w: %v", ErrSamplerUnavailable, err)
	slog.Error("pointer sampler disabled", "err", err)
	if s.onUnavailable != nil {
		s.onUnavailable(err)
	}
}

// Stop terminates the loop and waits up to timeout for it to exit. Safe to
// call multiple times, and before Start.
func (s *Sampler) Stop(timeout time.Duration) error {
	s.stopOnce.Do(func() { close(s.stop) })
	// Never started: nothing to join, and Start becomes a no-op.
	s.startOnce.Do(func() { close(s.done) })
	select {
	case <-s.done:
		return nil
	case <-time.After(timeout):
		return ErrStopTimeout
	}
}

// Done is closed when the sampler goroutine has exited.
func (s *Sampler) Done() <-chan struct{} { return s.done }
