package pointer

import (
	"errors"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	gohook "github.com/robotn/gohook"
)

// HookSource tracks the pointer through the global input hook. Mouse-down
// events are forwarded on Clicks for renderers that need them, key events to
// the optional key handler.
type HookSource struct {
	pos    atomic.Pointer[image.Point]
	clicks chan image.Point
	onKey  atomic.Pointer[func(down bool, rawcode uint16)]
	mu     sync.Mutex
	events chan gohook.Event
	done   chan struct{}
}

// NewHookSource returns an unopened hook source.
func NewHookSource() *HookSource {
	return &HookSource{clicks: make(chan image.Point, 4)}
}

func (h *HookSource) Open() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.events != nil {
		return nil
	}

	slog.Debug("starting gohook event loop")
	evChan := gohook.Start()
	if evChan == nil {
		return errors.New("gohook.Start() returned nil channel")
	}
	h.events = evChan
	h.done = make(chan struct{})
	go h.consume(evChan, h.done)
	return nil
}

func (h *HookSource) consume(evChan chan gohook.Event, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in hook goroutine", "panic", r)
		}
	}()

	for ev := range evChan {
		switch ev.Kind {
		case gohook.MouseMove, gohook.MouseDrag:
			p := image.Pt(int(ev.X), int(ev.Y))
			h.pos.Store(&p)
		case gohook.MouseDown:
			p := image.Pt(int(ev.X), int(ev.Y))
			h.pos.Store(&p)
			select {
			case h.clicks <- p:
			default:
			}
		case gohook.KeyDown, gohook.KeyUp:
			if fn := h.onKey.Load(); fn != nil {
				(*fn)(ev.Kind == gohook.KeyDown, ev.Rawcode)
			}
		}
	}
	slog.Debug("hook event channel closed")
}

func (h *HookSource) Position() (image.Point, error) {
	p := h.pos.Load()
	if p == nil {
		return image.Point{}, ErrNoPosition
	}
	return *p, nil
}

func (h *HookSource) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.events == nil {
		return nil
	}
	gohook.End()
	h.events = nil
	return nil
}

// Clicks delivers mouse-down positions. Clicks are dropped when nobody reads.
func (h *HookSource) Clicks() <-chan image.Point { return h.clicks }

// SetKeyHandler installs fn for key events. It runs on the hook goroutine and
// must not block.
func (h *HookSource) SetKeyHandler(fn func(down bool, rawcode uint16)) {
	if fn == nil {
		h.onKey.Store(nil)
		return
	}
	h.onKey.Store(&fn)
}
