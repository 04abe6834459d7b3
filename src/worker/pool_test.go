package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolSubmitDropWhenBusy(t *testing.T) {
	p := New(1, 1)
	defer p.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	if !p.Submit(func(context.Context) { close(started); <-release }) {
		t.Fatal("first submit should succeed")
	}
	<-started
	if !p.Submit(func(context.Context) {}) {
		t.Fatal("second submit should fill the queue slot")
	}
	if p.Submit(func(context.Context) {}) {
		t.Fatal("third submit should be dropped with one job in flight and a full queue")
	}
	close(release)
}

func TestPoolRecoversPanics(t *testing.T) {
	p := New(1, 2)
	var ran atomic.Bool
	done := make(chan struct{})
	p.Submit(func(context.Context) { panic("boom") })
	p.Submit(func(context.Context) { ran.Store(true); close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker died after a panicking job")
	}
	p.Close()
	if !ran.Load() {
		t.Error("expected the job after the panic to run")
	}
}

func TestPoolCloseIsIdempotent(t *testing.T) {
	p := New(2, 1)
	p.Close()
	p.Close()
	if p.Submit(func(context.Context) {}) {
		t.Error("submit after close should be rejected")
	}
}
