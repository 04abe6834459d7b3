package timers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	clock *ManualClock
	epoch uint64
	queue []func()
	svc   *Service
}

// newFixture queues posted callbacks so tests control when the owning
// goroutine drains them.
func newFixture() *fixture {
	f := &fixture{clock: NewManualClock(time.Unix(0, 0)), epoch: 1}
	f.svc = NewService(f.clock, func(fn func()) { f.queue = append(f.queue, fn) }, func() uint64 { return f.epoch })
	return f
}

func (f *fixture) drain() {
	for len(f.queue) > 0 {
		fn := f.queue[0]
		f.queue = f.queue[1:]
		fn()
	}
}

func TestScheduleFires(t *testing.T) {
	f := newFixture()
	fired := 0
	h := f.svc.Schedule(Enter, 200*time.Millisecond, 1, func() { fired++ })
	assert.Equal(t, time.Unix(0, 0).Add(200*time.Millisecond), h.Deadline)

	f.clock.Advance(199 * time.Millisecond)
	f.drain()
	assert.Zero(t, fired)

	f.clock.Advance(time.Millisecond)
	f.drain()
	assert.Equal(t, 1, fired)
	_, pending := f.svc.Pending(Enter)
	assert.False(t, pending)
}

func TestSameNameReplaces(t *testing.T) {
	f := newFixture()
	var got []string
	f.svc.Schedule(Enter, 100*time.Millisecond, 1, func() { got = append(got, "first") })
	f.svc.Schedule(Enter, 100*time.Millisecond, 1, func() { got = append(got, "second") })
	f.svc.Schedule(Hide, 50*time.Millisecond, 1, func() { got = append(got, "hide") })

	f.clock.Advance(time.Second)
	f.drain()
	assert.Equal(t, []string{"hide", "second"}, got)
}

func TestCancelWinsOverQueuedFire(t *testing.T) {
	f := newFixture()
	fired := false
	h := f.svc.Schedule(Hide, 10*time.Millisecond, 1, func() { fired = true })

	f.clock.Advance(10 * time.Millisecond)
	require.Len(t, f.queue, 1, "fire is queued but not yet run")
	assert.True(t, f.svc.Cancel(h))
	f.drain()
	assert.False(t, fired)
	assert.Zero(t, f.svc.StaleCount())
}

func TestReplacementIgnoresOldQueuedFire(t *testing.T) {
	f := newFixture()
	var got []int
	f.svc.Schedule(Enter, 10*time.Millisecond, 1, func() { got = append(got, 1) })
	f.clock.Advance(10 * time.Millisecond)
	f.svc.Schedule(Enter, 10*time.Millisecond, 1, func() { got = append(got, 2) })
	f.drain()
	assert.Empty(t, got)

	f.clock.Advance(10 * time.Millisecond)
	f.drain()
	assert.Equal(t, []int{2}, got)
}

func TestStaleEpochDropped(t *testing.T) {
	f := newFixture()
	var stale []Handle
	f.svc.OnStale(func(h Handle) { stale = append(stale, h) })
	fired := false
	h := f.svc.Schedule(Continuation, 300*time.Millisecond, f.epoch, func() { fired = true })

	f.epoch++
	f.clock.Advance(time.Second)
	f.drain()
	assert.False(t, fired)
	assert.Equal(t, uint64(1), f.svc.StaleCount())
	require.Len(t, stale, 1)
	assert.Equal(t, h, stale[0])
}

func TestCancelAllAndStaleHandles(t *testing.T) {
	f := newFixture()
	fired := 0
	h := f.svc.Schedule(Enter, time.Millisecond, 1, func() { fired++ })
	f.svc.Schedule(Hide, time.Millisecond, 1, func() { fired++ })
	f.svc.Schedule(Continuation, time.Millisecond, 1, func() { fired++ })

	f.svc.CancelAll()
	assert.Zero(t, f.clock.Pending())
	assert.False(t, f.svc.Cancel(h))
	assert.False(t, f.svc.CancelName(Hide))
	f.clock.Advance(time.Second)
	f.drain()
	assert.Zero(t, fired)
}

func TestCallbackMayReschedule(t *testing.T) {
	f := newFixture()
	n := 0
	var tick func()
	tick = func() {
		n++
		if n < 3 {
			f.svc.Schedule(Hide, 100*time.Millisecond, 1, tick)
		}
	}
	f.svc.Schedule(Hide, 100*time.Millisecond, 1, tick)
	for i := 0; i < 5; i++ {
		f.clock.Advance(100 * time.Millisecond)
		f.drain()
	}
	assert.Equal(t, 3, n)
}

func TestManualClockOrder(t *testing.T) {
	c := NewManualClock(time.Unix(0, 0))
	var got []string
	c.AfterFunc(30*time.Millisecond, func() { got = append(got, "c") })
	c.AfterFunc(10*time.Millisecond, func() { got = append(got, "a") })
	c.AfterFunc(10*time.Millisecond, func() { got = append(got, "b") })
	stopped := c.AfterFunc(20*time.Millisecond, func() { got = append(got, "x") })
	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())

	c.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, time.Unix(1, 0), c.Now())
}

func TestManualClockNowDuringCallback(t *testing.T) {
	c := NewManualClock(time.Unix(0, 0))
	var at time.Time
	c.AfterFunc(250*time.Millisecond, func() { at = c.Now() })
	c.Advance(time.Second)
	assert.Equal(t, time.Unix(0, 0).Add(250*time.Millisecond), at)
}
