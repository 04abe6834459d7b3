// Package eventloop owns the hover state. One goroutine (Run) drains pointer
// samples, timer callbacks and API calls; it is the only writer of the hover
// session and the only caller of the affordance and action callbacks.
package eventloop

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"hover-confirm/src/dispatch"
	"hover-confirm/src/hover"
	"hover-confirm/src/pointer"
	"hover-confirm/src/scale"
	"hover-confirm/src/timers"
	"hover-confirm/src/trace"
	"hover-confirm/src/worker"
	"hover-confirm/src/zones"
)

var (
	// ErrLoopStopped is returned (or carried in a Result) once Run has exited.
	ErrLoopStopped = errors.New("event loop stopped")
	// ErrShutdownTimeout means Run did not exit within the Shutdown timeout.
	ErrShutdownTimeout = errors.New("event loop shutdown timed out")
)

// Options configures a Loop. Zero values fall back to defaults.
type Options struct {
	Hover          hover.Config
	SampleInterval time.Duration
	Cooldown       time.Duration
	ActionWorkers  int
	// StopTimeout bounds the sampler join on disable and shutdown.
	StopTimeout time.Duration
	// Enabled starts sampling as soon as Run begins.
	Enabled bool

	// NewSource opens a fresh pointer source on every enable. Defaults to
	// pointer.NewSource(SourceKind).
	NewSource  func() (pointer.Source, error)
	SourceKind string

	Index *zones.Index
	Zones []zones.Definition
	Scale scale.Provider
	Clock timers.Clock
	Trace trace.Recorder

	// OnAction runs on the action worker pool, never on the loop goroutine.
	OnAction func(ctx context.Context, actionID string)
	// OnAffordance and OnError run on the loop goroutine and must not call
	// back into the Loop synchronously.
	OnAffordance func(hover.Event)
	OnError      func(error)
}

// Loop is the state-owning execution context and the runtime API.
type Loop struct {
	opts    Options
	index   *zones.Index
	clock   timers.Clock
	trace   trace.Recorder
	pool    *worker.Pool
	timers  *timers.Service
	machine *hover.Machine

	tasks   chan func()
	done    chan struct{}
	runOnce sync.Once
	enabled atomic.Bool

	// loop goroutine only
	cell     *pointer.Cell
	sampler  *pointer.Sampler
	gen      uint64
	quitting bool
}

// New builds a Loop. Call Run to start it.
func New(opts Options) *Loop {
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = pointer.DefaultInterval
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = time.Second
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = time.Second
	}
	if opts.NewSource == nil {
		kind := opts.SourceKind
		opts.NewSource = func() (pointer.Source, error) { return pointer.NewSource(kind) }
	}
	if opts.Clock == nil {
		opts.Clock = timers.Real()
	}
	if opts.Trace == nil {
		opts.Trace = trace.Nop{}
	}
	if opts.Scale == nil {
		opts.Scale = scale.Static(scale.Identity)
	}

	l := &Loop{
		opts:  opts,
		index: opts.Index,
		clock: opts.Clock,
		trace: opts.Trace,
		pool:  worker.New(opts.ActionWorkers, opts.ActionWorkers),
		tasks: make(chan func(), 16),
		done:  make(chan struct{}),
	}
	if l.index == nil {
		l.index = zones.NewIndex()
	}
	if len(opts.Zones) > 0 {
		_, skipped := l.index.Reload(opts.Zones)
		l.reportSkipped(skipped)
	}

	l.timers = timers.NewService(l.clock, func(fn func()) { l.post(fn) }, l.index.Epoch)
	l.machine = hover.New(hover.Options{
		Config:       opts.Hover,
		Index:        l.index,
		Scale:        opts.Scale,
		Timers:       l.timers,
		Dispatcher:   dispatch.New(opts.Cooldown, l.clock.Now, dispatch.PoolInvoker{Pool: l.pool, Action: opts.OnAction}),
		Clock:        l.clock,
		OnAffordance: opts.OnAffordance,
		Trace:        opts.Trace,
	})
	return l
}

// Index exposes the zone index (read-only use).
func (l *Loop) Index() *zones.Index { return l.index }

// Enabled reports whether sampling is on.
func (l *Loop) Enabled() bool { return l.enabled.Load() }

// Run processes events until ctx is cancelled or Shutdown completes. It may
// only be called once.
func (l *Loop) Run(ctx context.Context) error {
	err := ErrLoopStopped
	l.runOnce.Do(func() { err = l.run(ctx) })
	return err
}

func (l *Loop) run(ctx context.Context) error {
	defer l.pool.Close()
	defer close(l.done)

	if l.opts.Enabled {
		l.enable()
	}

	for {
		var ready <-chan struct{}
		if l.cell != nil {
			ready = l.cell.Ready()
		}
		select {
		case <-ctx.Done():
			l.teardown()
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
			if l.quitting {
				return nil
			}
		case <-ready:
			if s, ok := l.cell.Load(); ok {
				l.machine.OnSample(s.Point)
			}
		}
	}
}

// Enable turns sampling and the state machine on or off.
func (l *Loop) Enable(on bool) {
	l.call(func() {
		if on {
			l.enable()
		} else {
			l.disable(trace.KindDisable)
		}
	})
}

// Toggle flips Enable in a single step on the loop goroutine and reports the
// new state.
func (l *Loop) Toggle() bool {
	on := l.enabled.Load()
	l.call(func() {
		if l.enabled.Load() {
			l.disable(trace.KindDisable)
		} else {
			l.enable()
		}
		on = l.enabled.Load()
	})
	return on
}

// Reload atomically replaces the zones. Skipped definitions are reported
// through OnError and returned.
func (l *Loop) Reload(defs []zones.Definition) (uint64, []*zones.ConfigError) {
	var (
		epoch   uint64
		skipped []*zones.ConfigError
	)
	l.call(func() {
		epoch, skipped = l.index.Reload(defs)
		l.machine.OnReload()
		l.reportSkipped(skipped)
	})
	return epoch, skipped
}

// Click reports a click on the displayed affordance of zoneID.
func (l *Loop) Click(zoneID string) dispatch.Result {
	res := dispatch.Result{Outcome: dispatch.Rejected, ZoneID: zoneID, Reason: ErrLoopStopped}
	l.call(func() { res = l.machine.OnClick(zoneID) })
	return res
}

// SetAffordanceBounds tells the loop where the renderer drew the control.
func (l *Loop) SetAffordanceBounds(r image.Rectangle) {
	l.call(func() { l.machine.SetAffordanceBounds(r) })
}

// Session returns a copy of the hover session.
func (l *Loop) Session() hover.Session {
	var s hover.Session
	l.call(func() { s = l.machine.Session() })
	return s
}

// Shutdown tears everything down and waits up to timeout for Run to return.
// Calling it again, or after Run has exited, is a no-op.
func (l *Loop) Shutdown(timeout time.Duration) error {
	if !l.post(func() {
		l.teardown()
		l.quitting = true
	}) {
		return nil
	}
	select {
	case <-l.done:
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}

// post enqueues fn for the loop goroutine. It reports false once the loop has exited.
func (l *Loop) post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// call runs fn on the loop goroutine and waits for it.
func (l *Loop) call(fn func()) bool {
	ran := make(chan struct{})
	if !l.post(func() { fn(); close(ran) }) {
		return false
	}
	select {
	case <-ran:
		return true
	case <-l.done:
		select {
		case <-ran:
			return true
		default:
			return false
		}
	}
}

func (l *Loop) enable() {
	if l.enabled.Load() {
		return
	}
	src, err := l.opts.NewSource()
	if err != nil {
		l.reportError(errors.Join(pointer.ErrSamplerUnavailable, err))
		return
	}

	l.gen++
	gen := l.gen
	l.cell = pointer.NewCell()
	l.sampler = pointer.NewSampler(src, l.cell, func(err error) {
		l.post(func() {
			if gen == l.gen {
				l.samplerFailed(err)
			}
		})
	})
	l.sampler.Start(l.opts.SampleInterval)
	l.enabled.Store(true)
	slog.Info("hover enabled", "interval", l.opts.SampleInterval, "epoch", l.index.Epoch())
	l.record(trace.KindEnable)
}

// disable runs the teardown sequence but leaves the loop running.
func (l *Loop) disable(kind trace.Kind) {
	if !l.enabled.Load() {
		return
	}
	if err := l.sampler.Stop(l.opts.StopTimeout); err != nil {
		slog.Warn("pointer sampler join timed out", "timeout", l.opts.StopTimeout)
	}
	l.gen++
	l.sampler = nil
	l.cell = nil
	epoch := l.machine.Reset()
	l.enabled.Store(false)
	slog.Info("hover disabled", "epoch", epoch, "reason", kind.String())
	l.record(kind)
}

func (l *Loop) teardown() {
	if l.enabled.Load() {
		l.disable(trace.KindShutdown)
		return
	}
	l.machine.Reset()
	l.record(trace.KindShutdown)
}

func (l *Loop) samplerFailed(err error) {
	l.disable(trace.KindDisable)
	l.reportError(err)
}

func (l *Loop) reportSkipped(skipped []*zones.ConfigError) {
	for _, e := range skipped {
		l.reportError(e)
	}
}

func (l *Loop) reportError(err error) {
	if l.opts.OnError == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("error callback panicked", "panic", r)
		}
	}()
	l.opts.OnError(err)
}

func (l *Loop) record(kind trace.Kind) {
	l.trace.Record(trace.Event{Timestamp: l.clock.Now(), Kind: kind, Epoch: l.index.Epoch()})
}
