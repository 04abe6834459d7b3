package zones

import (
	"image"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"hover-confirm/src/scale"
)

// Match is the result of a successful point lookup.
type Match struct {
	ZoneID   string
	ActionID string
	// Rect is the matched rectangle scaled to screen coordinates.
	Rect image.Rectangle
}

// Index holds the current Snapshot. Readers never lock; writers are serialized
// so that epochs are strictly increasing.
type Index struct {
	cur atomic.Pointer[Snapshot]
	mu  sync.Mutex
}

// NewIndex returns an empty index at epoch 0.
func NewIndex() *Index {
	ix := &Index{}
	ix.cur.Store(newSnapshot(0, nil))
	return ix
}

// Snapshot returns the current snapshot.
func (ix *Index) Snapshot() *Snapshot { return ix.cur.Load() }

// Epoch returns the current epoch.
func (ix *Index) Epoch() uint64 { return ix.cur.Load().Epoch }

// Reload validates defs and swaps in a new snapshot. Skipped zones are logged
// and returned; they never fail the reload.
func (ix *Index) Reload(defs []Definition) (uint64, []*ConfigError) {
	zs, skipped := Build(defs)
	for _, e := range skipped {
		slog.Warn("zone skipped", "zone", e.ZoneID, "index", e.Index, "reason", e.Reason)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	epoch := ix.cur.Load().Epoch + 1
	ix.cur.Store(newSnapshot(epoch, zs))
	slog.Info("zones reloaded", "epoch", epoch, "zones", len(zs), "skipped", len(skipped))
	return epoch, skipped
}

// Invalidate republishes the current zones under a new epoch. Anything
// computed against an older epoch becomes stale.
func (ix *Index) Invalidate() uint64 {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	old := ix.cur.Load()
	epoch := old.Epoch + 1
	ix.cur.Store(newSnapshot(epoch, old.Zones))
	return epoch
}

// Match finds the preferred enabled zone containing p under scale f.
func (ix *Index) Match(p image.Point, f scale.Factor) (Match, bool) {
	return ix.cur.Load().Match(p, f)
}

// Match finds the preferred enabled zone containing p under scale f.
func (s *Snapshot) Match(p image.Point, f scale.Factor) (Match, bool) {
	for _, i := range s.pref {
		z := s.Zones[i]
		if !z.Enabled {
			continue
		}
		for _, r := range z.Rects {
			sr := ScaleRect(r, f)
			if p.In(sr) {
				return Match{ZoneID: z.ID, ActionID: z.ActionID, Rect: sr}, true
			}
		}
	}
	return Match{}, false
}

// ScaleRect maps a reference-resolution rectangle to screen coordinates.
func ScaleRect(r image.Rectangle, f scale.Factor) image.Rectangle {
	return image.Rect(
		int(math.Round(float64(r.Min.X)*f.X)),
		int(math.Round(float64(r.Min.Y)*f.Y)),
		int(math.Round(float64(r.Max.X)*f.X)),
		int(math.Round(float64(r.Max.Y)*f.Y)),
	)
}
