// Package scale maps reference-resolution coordinates onto the real display.
package scale

import (
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"
)

// Factor is the reference-to-screen mapping at a point in time.
type Factor struct {
	X          float64
	Y          float64
	ComputedAt time.Time
}

// Identity is the 1:1 mapping used until a real factor is known.
var Identity = Factor{X: 1, Y: 1}

// Func computes a fresh Factor. It may be slow.
type Func func() (Factor, error)

// Provider supplies the current Factor.
type Provider interface {
	Current() Factor
}

// Static always returns the same factor.
type Static Factor

func (s Static) Current() Factor { return Factor(s) }

// ErrInvalidReference is returned when the reference resolution is not positive.
var ErrInvalidReference = errors.New("reference resolution must be positive")

// FromBounds derives a Factor from the real screen bounds and the reference resolution.
func FromBounds(screen image.Rectangle, ref image.Point) (Factor, error) {
	if ref.X <= 0 || ref.Y <= 0 {
		return Factor{}, ErrInvalidReference
	}
	if screen.Dx() <= 0 || screen.Dy() <= 0 {
		return Factor{}, errors.New("screen bounds are empty")
	}
	return Factor{
		X: float64(screen.Dx()) / float64(ref.X),
		Y: float64(screen.Dy()) / float64(ref.Y),
	}, nil
}

// Cached memoizes a Func for ttl. On failure the last good factor is kept
// (Identity if there never was one).
type Cached struct {
	fn   Func
	ttl  time.Duration
	now  func() time.Time
	mu   sync.Mutex
	last Factor
	have bool
	bad  bool
}

// NewCached wraps fn with a TTL cache. now defaults to time.Now.
func NewCached(fn Func, ttl time.Duration, now func() time.Time) *Cached {
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	return &Cached{fn: fn, ttl: ttl, now: now}
}

// Current returns the cached factor, recomputing it once the TTL has expired.
func (c *Cached) Current() Factor {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.have && now.Sub(c.last.ComputedAt) < c.ttl {
		return c.last
	}

	f, err := c.fn()
	if err != nil {
		if !c.bad {
			slog.Warn("scale query failed, keeping previous factor", "err", err)
			c.bad = true
		}
		if c.last.X <= 0 || c.last.Y <= 0 {
			c.last = Identity
		}
		// Retry after another TTL rather than on every sample.
		c.last.ComputedAt = now
		c.have = true
		return c.last
	}
	if c.bad {
		slog.Info("scale query recovered", "x", f.X, "y", f.Y)
		c.bad = false
	}
	f.ComputedAt = now
	c.last = f
	c.have = true
	return f
}

// Invalidate forces the next Current call to recompute.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.have = false
	c.mu.Unlock()
}

// Reset swaps the underlying Func, e.g. after the reference resolution changed.
func (c *Cached) Reset(fn Func) {
	c.mu.Lock()
	c.fn = fn
	c.have = false
	c.mu.Unlock()
}
