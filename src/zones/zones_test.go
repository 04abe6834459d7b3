package zones

import (
	"errors"
	"image"
	"strings"
	"sync"
	"testing"

	"hover-confirm/src/scale"
)

var unit = scale.Factor{X: 1, Y: 1}

func TestBuildSkipsInvalid(t *testing.T) {
	defs := []Definition{
		{ID: "ok", Rects: []image.Rectangle{image.Rect(0, 0, 10, 10)}, Enabled: true},
		{ID: "", Rects: []image.Rectangle{image.Rect(0, 0, 10, 10)}},
		{ID: "ok", Rects: []image.Rectangle{image.Rect(0, 0, 10, 10)}},
		{ID: "empty"},
		{ID: "flat", Rects: []image.Rectangle{image.Rect(0, 0, 10, 0)}},
		{ID: "inverted", Rects: []image.Rectangle{{Min: image.Pt(10, 10), Max: image.Pt(0, 0)}}},
		{ID: "partly", Rects: []image.Rectangle{image.Rect(0, 0, 5, 5), image.Rect(3, 3, 3, 9)}},
	}

	zs, skipped := Build(defs)
	if len(zs) != 1 || zs[0].ID != "ok" {
		t.Fatalf("Build kept %+v, want only zone ok", zs)
	}

	want := []struct {
		index  int
		reason string
	}{
		{1, "missing id"},
		{2, "duplicate id"},
		{3, "no rectangles"},
		{4, "zero area"},
		{5, "inverted"},
		{6, "zero area"},
	}
	if len(skipped) != len(want) {
		t.Fatalf("skipped %d zones, want %d: %v", len(skipped), len(want), skipped)
	}
	for i, w := range want {
		if skipped[i].Index != w.index || !strings.Contains(skipped[i].Reason, w.reason) {
			t.Errorf("skipped[%d] = %v, want index %d reason containing %q", i, skipped[i], w.index, w.reason)
		}
		var ce *ConfigError
		if !errors.As(error(skipped[i]), &ce) {
			t.Errorf("skipped[%d] is not a *ConfigError", i)
		}
	}
}

func TestMatchPriorityAndOrder(t *testing.T) {
	overlap := []image.Rectangle{image.Rect(0, 0, 100, 100)}
	tests := []struct {
		name string
		defs []Definition
		want string
	}{
		{
			name: "lower priority wins",
			defs: []Definition{
				{ID: "a", Rects: overlap, Enabled: true, Priority: 5},
				{ID: "b", Rects: overlap, Enabled: true, Priority: 1},
			},
			want: "b",
		},
		{
			name: "tie broken by declaration order",
			defs: []Definition{
				{ID: "a", Rects: overlap, Enabled: true},
				{ID: "b", Rects: overlap, Enabled: true},
			},
			want: "a",
		},
		{
			name: "disabled zones never match",
			defs: []Definition{
				{ID: "a", Rects: overlap, Enabled: false, Priority: -1},
				{ID: "b", Rects: overlap, Enabled: true},
			},
			want: "b",
		},
		{
			name: "no match",
			defs: []Definition{{ID: "a", Rects: overlap, Enabled: false}},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix := NewIndex()
			ix.Reload(tt.defs)
			m, ok := ix.Match(image.Pt(50, 50), unit)
			if tt.want == "" {
				if ok {
					t.Fatalf("Match = %+v, want none", m)
				}
				return
			}
			if !ok || m.ZoneID != tt.want {
				t.Fatalf("Match = %+v (%v), want %s", m, ok, tt.want)
			}
		})
	}
}

func TestMatchMultiRectAndEdges(t *testing.T) {
	ix := NewIndex()
	ix.Reload([]Definition{{
		ID:       "A",
		ActionID: "act",
		Enabled:  true,
		Rects:    []image.Rectangle{image.Rect(0, 0, 100, 50), image.Rect(500, 500, 600, 550)},
	}})

	tests := []struct {
		p    image.Point
		ok   bool
		rect image.Rectangle
	}{
		{image.Pt(50, 25), true, image.Rect(0, 0, 100, 50)},
		{image.Pt(0, 0), true, image.Rect(0, 0, 100, 50)},
		{image.Pt(100, 25), false, image.Rectangle{}},
		{image.Pt(550, 520), true, image.Rect(500, 500, 600, 550)},
		{image.Pt(300, 300), false, image.Rectangle{}},
	}
	for _, tt := range tests {
		m, ok := ix.Match(tt.p, unit)
		if ok != tt.ok || m.Rect != tt.rect {
			t.Errorf("Match(%v) = %+v, %v; want rect %v, %v", tt.p, m, ok, tt.rect, tt.ok)
		}
		if ok && m.ActionID != "act" {
			t.Errorf("Match(%v).ActionID = %q", tt.p, m.ActionID)
		}
	}
}

func TestScaleRect(t *testing.T) {
	tests := []struct {
		f    scale.Factor
		want image.Rectangle
	}{
		{unit, image.Rect(0, 0, 100, 50)},
		{scale.Factor{X: 2, Y: 2}, image.Rect(0, 0, 200, 100)},
		{scale.Factor{X: 1.333, Y: 1.5}, image.Rect(0, 0, 133, 75)},
		{scale.Factor{X: 0.5, Y: 0.5}, image.Rect(0, 0, 50, 25)},
	}
	for _, tt := range tests {
		if got := ScaleRect(image.Rect(0, 0, 100, 50), tt.f); got != tt.want {
			t.Errorf("ScaleRect(%v) = %v, want %v", tt.f, got, tt.want)
		}
	}

	ix := NewIndex()
	ix.Reload([]Definition{{ID: "A", Enabled: true, Rects: []image.Rectangle{image.Rect(0, 0, 100, 50)}}})
	if _, ok := ix.Match(image.Pt(150, 75), unit); ok {
		t.Error("unscaled match outside the reference rectangle")
	}
	if _, ok := ix.Match(image.Pt(150, 75), scale.Factor{X: 2, Y: 2}); !ok {
		t.Error("scaled match missed")
	}
}

func TestReloadEpochs(t *testing.T) {
	ix := NewIndex()
	if ix.Epoch() != 0 {
		t.Fatalf("initial epoch = %d", ix.Epoch())
	}
	e1, _ := ix.Reload([]Definition{{ID: "A", Enabled: true, Rects: []image.Rectangle{image.Rect(0, 0, 1, 1)}}})
	e2, skipped := ix.Reload([]Definition{{ID: "B"}})
	if e1 != 1 || e2 != 2 {
		t.Fatalf("epochs = %d, %d; want 1, 2", e1, e2)
	}
	if len(skipped) != 1 || len(ix.Snapshot().Zones) != 0 {
		t.Fatalf("bad zone must be skipped, not fail the reload")
	}

	old := ix.Snapshot()
	e3 := ix.Invalidate()
	if e3 != 3 || ix.Epoch() != 3 {
		t.Fatalf("Invalidate epoch = %d", e3)
	}
	if old.Epoch != 2 {
		t.Fatal("published snapshot was mutated")
	}
}

func TestSnapshotLookup(t *testing.T) {
	ix := NewIndex()
	ix.Reload([]Definition{{ID: "A", ActionID: "x", Rects: []image.Rectangle{image.Rect(0, 0, 1, 1)}}})
	z, ok := ix.Snapshot().Lookup("A")
	if !ok || z.ActionID != "x" || z.Enabled {
		t.Fatalf("Lookup(A) = %+v, %v", z, ok)
	}
	if _, ok := ix.Snapshot().Lookup("missing"); ok {
		t.Fatal("Lookup(missing) succeeded")
	}
	var nilSnap *Snapshot
	if _, ok := nilSnap.Lookup("A"); ok {
		t.Fatal("nil snapshot lookup succeeded")
	}
}

// Readers racing a writer only ever see whole snapshots.
func TestConcurrentReloadAndMatch(t *testing.T) {
	ix := NewIndex()
	full := []Definition{
		{ID: "A", Enabled: true, Rects: []image.Rectangle{image.Rect(0, 0, 10, 10)}},
		{ID: "B", Enabled: true, Rects: []image.Rectangle{image.Rect(10, 0, 20, 10)}},
	}
	ix.Reload(full)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			ix.Reload(full)
		}
		close(stop)
	}()
	for {
		select {
		case <-stop:
			wg.Wait()
			return
		default:
		}
		s := ix.Snapshot()
		if len(s.Zones) != 2 {
			t.Fatalf("partial snapshot with %d zones", len(s.Zones))
		}
		if _, ok := s.Match(image.Pt(15, 5), unit); !ok {
			t.Fatal("match lost during reload")
		}
	}
}
