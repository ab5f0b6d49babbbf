package domain

import "context"

// CounterReconciler recomputes the counters of targets touched by writes, in the
// background and in batches.
type CounterReconciler interface {
	Start(ctx context.Context)

	// Send queues target for reconciliation. It never blocks.
	Send(target ReactionTarget)
}
