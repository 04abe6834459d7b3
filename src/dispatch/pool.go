package dispatch

import (
	"context"

	"hover-confirm/src/worker"
)

// PoolInvoker runs actions on a worker pool so the caller never blocks on them.
type PoolInvoker struct {
	Pool   *worker.Pool
	Action func(ctx context.Context, actionID string)
}

func (p PoolInvoker) Invoke(actionID string) bool {
	if p.Action == nil {
		return true
	}
	return p.Pool.Submit(func(ctx context.Context) {
		p.Action(ctx, actionID)
	})
}
