package history

import (
	"context"
	"fmt"
	"time"

	"github.com/carolinavmo/PMR-atlas/pkg/logger"
	"github.com/carolinavmo/PMR-atlas/pkg/metrics"
)

// Recorder appends history entries after a content write has already been
// committed. It retries, then falls back to the journal, so an accepted
// mutation never ends up without its entry.
type Recorder struct {
	log      Log
	journal  Journal
	attempts int
	backoff  time.Duration
}

func NewRecorder(log Log, journal Journal) *Recorder {
	return &Recorder{log: log, journal: journal, attempts: 3, backoff: 50 * time.Millisecond}
}

// WithRetry overrides the append attempts and the initial backoff.
func (r *Recorder) WithRetry(attempts int, backoff time.Duration) *Recorder {
	if attempts < 1 {
		attempts = 1
	}
	r.attempts = attempts
	r.backoff = backoff
	return r
}

func (r *Recorder) Log() Log { return r.log }

// Record appends e. The caller's cancellation is ignored: the content
// write it describes is already durable.
func (r *Recorder) Record(ctx context.Context, e *Entry) error {
	return r.persist(ctx, e, false)
}

// Amend replaces the entry already recorded for e's version. It is used when
// the write that produced a version is completed after the version was
// recorded, so the entry keeps matching the stored document.
func (r *Recorder) Amend(ctx context.Context, e *Entry) error {
	return r.persist(ctx, e, true)
}

func (r *Recorder) persist(ctx context.Context, e *Entry, amend bool) error {
	ctx = context.WithoutCancel(ctx)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.ID = EntryID(e.DiseaseID, e.Version)
	write := r.log.Append
	if amend {
		write = r.log.Put
	}

	var err error
	wait := r.backoff
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if err = write(ctx, e); err == nil {
			return nil
		}
		logger.Warnf("history: write %s attempt %d/%d: %v", e.ID, attempt, r.attempts, err)
		if attempt < r.attempts {
			time.Sleep(wait)
			wait *= 2
		}
	}

	metrics.HistoryAppendFailures.Inc()
	if r.journal == nil {
		logger.Logger().Error("history entry lost: no journal configured",
			logger.Err(err), "disease_id", e.DiseaseID, "version", e.Version, "edit_type", e.EditType)
		return fmt.Errorf("history append %s: %w", e.ID, err)
	}
	pending := *e
	pending.Amend = amend
	if jerr := r.journal.Push(ctx, &pending); jerr != nil {
		logger.Logger().Error("history entry not journaled",
			logger.Err(jerr), "append_err", err.Error(), "disease_id", e.DiseaseID, "version", e.Version, "edit_type", e.EditType)
		return fmt.Errorf("history append %s: %w (journal: %v)", e.ID, err, jerr)
	}
	logger.Logger().Error("history append failed, entry journaled for reconciliation",
		logger.Err(err), "disease_id", e.DiseaseID, "version", e.Version, "edit_type", e.EditType)
	return nil
}
