package history

import (
	"context"
	"time"

	"github.com/carolinavmo/PMR-atlas/pkg/logger"
	"github.com/carolinavmo/PMR-atlas/pkg/metrics"
)

// Reconciler replays journaled entries into the log.
type Reconciler struct {
	log     Log
	journal Journal
}

func NewReconciler(log Log, journal Journal) *Reconciler {
	return &Reconciler{log: log, journal: journal}
}

// Drain writes journaled entries until the journal is empty or a write
// fails; a failed entry is requeued and the error returned. Amended entries
// replace what is stored, others are skipped when their version exists.
func (r *Reconciler) Drain(ctx context.Context) (int, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		e, err := r.journal.Pop(ctx)
		if err != nil {
			return n, err
		}
		if e == nil {
			return n, nil
		}
		write := r.log.Append
		if e.Amend {
			write = r.log.Put
		}
		if err := write(ctx, e); err != nil {
			if qerr := r.journal.Requeue(context.WithoutCancel(ctx), e); qerr != nil {
				logger.Logger().Error("history: requeue failed", logger.Err(qerr), "disease_id", e.DiseaseID, "version", e.Version)
			}
			return n, err
		}
		metrics.HistoryReconciled.Inc()
		n++
	}
}

// Run drains the journal every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := r.Drain(ctx)
			if n > 0 {
				logger.Infof("history: reconciled %d pending entries", n)
			}
			if err != nil && ctx.Err() == nil {
				logger.Warnf("history: reconcile: %v", err)
			}
		}
	}
}
