// Package dispatch invokes the action bound to a confirmed zone, at most once
// per zone per cooldown window.
package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrActionCooldown rejects a confirm that arrives inside the zone's cooldown window.
	ErrActionCooldown = errors.New("action cooldown")
	// ErrActionBusy rejects a confirm when the invoker cannot accept more work.
	ErrActionBusy = errors.New("action runner busy")
)

// Outcome of a confirm request.
type Outcome int

const (
	Dispatched Outcome = iota
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Dispatched:
		return "dispatched"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Result is returned by Confirm; rejections are values, never errors.
type Result struct {
	Outcome  Outcome
	ZoneID   string
	ActionID string
	Reason   error
	At       time.Time
}

func (r Result) String() string {
	if r.Outcome == Rejected {
		return fmt.Sprintf("Rejected(%s, %v)", r.ZoneID, r.Reason)
	}
	return fmt.Sprintf("Dispatched(%s)", r.ZoneID)
}

// Invoker runs an action. It reports false when the action could not be accepted.
type Invoker interface {
	Invoke(actionID string) bool
}

// InvokerFunc runs the action inline on the caller's goroutine.
type InvokerFunc func(actionID string)

// A panicking action still counts as run, so the cooldown applies.
func (f InvokerFunc) Invoke(actionID string) (ok bool) {
	if f == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("action callback panicked", "action", actionID, "panic", r)
			ok = true
		}
	}()
	f(actionID)
	return true
}

// Dispatcher enforces the per-zone cooldown.
type Dispatcher struct {
	mu       sync.Mutex
	cooldown time.Duration
	now      func() time.Time
	invoker  Invoker
	last     map[string]time.Time
}

// New creates a Dispatcher. now defaults to time.Now.
func New(cooldown time.Duration, now func() time.Time, invoker Invoker) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	if invoker == nil {
		invoker = InvokerFunc(nil)
	}
	return &Dispatcher{
		cooldown: cooldown,
		now:      now,
		invoker:  invoker,
		last:     make(map[string]time.Time),
	}
}

// Confirm invokes actionID on behalf of zoneID unless the zone is cooling down.
func (d *Dispatcher) Confirm(zoneID, actionID string) Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	res := Result{ZoneID: zoneID, ActionID: actionID, At: now}

	if last, ok := d.last[zoneID]; ok && now.Sub(last) < d.cooldown {
		res.Outcome = Rejected
		res.Reason = ErrActionCooldown
		slog.Warn("confirm rejected", "zone", zoneID, "reason", res.Reason, "since_last", now.Sub(last))
		return res
	}

	if !d.invoker.Invoke(actionID) {
		res.Outcome = Rejected
		res.Reason = ErrActionBusy
		slog.Warn("confirm rejected", "zone", zoneID, "reason", res.Reason)
		return res
	}

	d.last[zoneID] = now
	res.Outcome = Dispatched
	slog.Info("action dispatched", "zone", zoneID, "action", actionID)
	return res
}
