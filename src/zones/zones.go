package zones

import (
	"fmt"
	"image"
	"sort"
	"strings"
)

// Definition is one zone as delivered by the settings layer, before validation.
type Definition struct {
	ID       string
	Rects    []image.Rectangle // reference-resolution coordinates
	ActionID string
	Enabled  bool
	Priority int
}

// Zone is a validated, immutable zone. Lower Priority wins on overlap;
// Order (declaration order) breaks ties.
type Zone struct {
	ID       string
	Rects    []image.Rectangle
	ActionID string
	Enabled  bool
	Priority int
	Order    int
}

// Snapshot is the zone list published under one epoch. Never mutated after publish.
type Snapshot struct {
	Epoch uint64
	Zones []Zone
	byID  map[string]int
	pref  []int
}

// Lookup returns the zone with the given id.
func (s *Snapshot) Lookup(id string) (Zone, bool) {
	if s == nil {
		return Zone{}, false
	}
	i, ok := s.byID[id]
	if !ok {
		return Zone{}, false
	}
	return s.Zones[i], true
}

// ConfigError reports a zone definition that was skipped during reload.
type ConfigError struct {
	ZoneID string
	Index  int
	Reason string
}

func (e *ConfigError) Error() string {
	if e.ZoneID == "" {
		return fmt.Sprintf("zone #%d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("zone %q (#%d): %s", e.ZoneID, e.Index, e.Reason)
}

// Build validates definitions into zones. Invalid definitions are skipped and
// reported; a malformed rectangle skips the whole zone.
func Build(defs []Definition) ([]Zone, []*ConfigError) {
	var (
		out     []Zone
		skipped []*ConfigError
		seen    = make(map[string]bool, len(defs))
	)
	for i, d := range defs {
		id := strings.TrimSpace(d.ID)
		if id == "" {
			skipped = append(skipped, &ConfigError{Index: i, Reason: "missing id"})
			continue
		}
		if seen[id] {
			skipped = append(skipped, &ConfigError{ZoneID: id, Index: i, Reason: "duplicate id"})
			continue
		}
		if len(d.Rects) == 0 {
			skipped = append(skipped, &ConfigError{ZoneID: id, Index: i, Reason: "no rectangles"})
			continue
		}
		rects := make([]image.Rectangle, 0, len(d.Rects))
		var bad *ConfigError
		for j, r := range d.Rects {
			if r.Min.X > r.Max.X || r.Min.Y > r.Max.Y {
				bad = &ConfigError{ZoneID: id, Index: i, Reason: fmt.Sprintf("rect %d is inverted: %v", j, r)}
				break
			}
			if r.Empty() {
				bad = &ConfigError{ZoneID: id, Index: i, Reason: fmt.Sprintf("rect %d has zero area: %v", j, r)}
				break
			}
			rects = append(rects, r)
		}
		if bad != nil {
			skipped = append(skipped, bad)
			continue
		}
		seen[id] = true
		out = append(out, Zone{
			ID:       id,
			Rects:    rects,
			ActionID: strings.TrimSpace(d.ActionID),
			Enabled:  d.Enabled,
			Priority: d.Priority,
			Order:    i,
		})
	}
	return out, skipped
}

func newSnapshot(epoch uint64, zs []Zone) *Snapshot {
	byID := make(map[string]int, len(zs))
	for i, z := range zs {
		byID[z.ID] = i
	}
	return &Snapshot{Epoch: epoch, Zones: zs, byID: byID, pref: sortedByPreference(zs)}
}

// sortedByPreference returns indexes into zs ordered by (priority, order).
func sortedByPreference(zs []Zone) []int {
	idx := make([]int, len(zs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		za, zb := zs[idx[a]], zs[idx[b]]
		if za.Priority != zb.Priority {
			return za.Priority < zb.Priority
		}
		return za.Order < zb.Order
	})
	return idx
}
