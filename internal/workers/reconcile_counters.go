package workers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Guyuepp/community-board/domain"
)

const (
	DefaultReconcileInterval = 5 * time.Second

	reconcileBatchSize  = 100
	reconcileQueueSize  = 1024
	reconcileOpTimeout  = 3 * time.Second
	shutdownFlushBudget = 5 * time.Second
)

// counterReconciler recomputes the counters of recently written targets from
// the authoritative rows, so a lost increment heals within one interval.
type counterReconciler struct {
	counterRepo domain.CounterRepository
	interval    time.Duration
	ch          chan domain.ReactionTarget
}

var _ domain.CounterReconciler = (*counterReconciler)(nil)

func NewCounterReconciler(cr domain.CounterRepository, interval time.Duration) *counterReconciler {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &counterReconciler{
		counterRepo: cr,
		interval:    interval,
		ch:          make(chan domain.ReactionTarget, reconcileQueueSize),
	}
}

func (s *counterReconciler) Send(target domain.ReactionTarget) {
	select {
	case s.ch <- target:
	default:
		logrus.Info("counterReconciler's channel is full, task droppped")
	}
}

// Start blocks until ctx is done, then flushes what is still queued.
func (s *counterReconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	batch := make([]domain.ReactionTarget, 0, reconcileBatchSize)
	for {
		select {
		case target := <-s.ch:
			batch = append(batch, target)
			if len(batch) == reconcileBatchSize {
				s.flush(ctx, batch)
				batch = make([]domain.ReactionTarget, 0, reconcileBatchSize)
			}
		case <-ticker.C:
			s.flush(ctx, batch)
			batch = make([]domain.ReactionTarget, 0, reconcileBatchSize)
		case <-ctx.Done():
			logrus.Info("shuting down counterReconciler, flushing remain tasks...")
			for drained := false; !drained; {
				select {
				case target := <-s.ch:
					batch = append(batch, target)
				default:
					drained = true
				}
			}
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushBudget)
			s.flush(flushCtx, batch)
			cancel()
			return
		}
	}
}

func (s *counterReconciler) flush(ctx context.Context, batch []domain.ReactionTarget) {
	if len(batch) == 0 {
		return
	}
	seen := make(map[domain.ReactionTarget]bool, len(batch))
	for _, target := range batch {
		if seen[target] {
			continue
		}
		seen[target] = true

		opCtx, cancel := context.WithTimeout(ctx, reconcileOpTimeout)
		err := s.counterRepo.ReconcileCounters(opCtx, target)
		cancel()
		if err != nil {
			logrus.Warnf("failed to reconcile counters of %s %s: %v", target.Type, target.ID, err)
		}
	}
}
