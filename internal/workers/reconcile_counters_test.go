package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Guyuepp/community-board/domain"
)

type countingCounters struct {
	mu    sync.Mutex
	calls map[domain.ReactionTarget]int
	err   error
}

func (c *countingCounters) ReconcileCounters(ctx context.Context, target domain.ReactionTarget) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[target]++
	return c.err
}

func (c *countingCounters) count(target domain.ReactionTarget) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[target]
}

func TestReconcilerDedupesWithinABatch(t *testing.T) {
	repo := &countingCounters{calls: map[domain.ReactionTarget]int{}}
	r := NewCounterReconciler(repo, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	post := domain.ReactionTarget{Type: domain.TargetPost, ID: "p1"}
	comment := domain.ReactionTarget{Type: domain.TargetComment, ID: "c1"}
	r.Send(post)
	r.Send(post)
	r.Send(comment)

	assert.Eventually(t, func() bool {
		return repo.count(post) >= 1 && repo.count(comment) >= 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.LessOrEqual(t, repo.count(post), 2)
}

func TestReconcilerFlushesOnShutdown(t *testing.T) {
	repo := &countingCounters{calls: map[domain.ReactionTarget]int{}, err: errors.New("db down")}
	r := NewCounterReconciler(repo, time.Hour)
	target := domain.ReactionTarget{Type: domain.TargetPost, ID: "p1"}
	r.Send(target)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Start(ctx)

	assert.Equal(t, 1, repo.count(target))
}

func TestSendNeverBlocks(t *testing.T) {
	r := NewCounterReconciler(&countingCounters{calls: map[domain.ReactionTarget]int{}}, 0)
	assert.Equal(t, DefaultReconcileInterval, r.interval)

	target := domain.ReactionTarget{Type: domain.TargetPost, ID: "p1"}
	for i := 0; i < reconcileQueueSize+10; i++ {
		r.Send(target)
	}
	assert.Len(t, r.ch, reconcileQueueSize)
}
