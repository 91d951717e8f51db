// Package service implements the disease editing workflow: section edits,
// save-and-translate, media replacement and whole-document operations. Every
// accepted mutation bumps the version through a compare-and-swap and leaves
// exactly one history entry behind.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carolinavmo/PMR-atlas/internal/access"
	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/internal/disease"
	"github.com/carolinavmo/PMR-atlas/internal/disease/repository"
	"github.com/carolinavmo/PMR-atlas/internal/history"
	"github.com/carolinavmo/PMR-atlas/internal/sanitize"
	"github.com/carolinavmo/PMR-atlas/internal/translate"
	"github.com/carolinavmo/PMR-atlas/pkg/logger"
	"github.com/carolinavmo/PMR-atlas/pkg/metrics"
)

// Cascader removes per-user state that references a deleted disease.
type Cascader interface {
	PurgeDisease(ctx context.Context, diseaseID string) error
}

type Options struct {
	// Concurrency bounds the in-flight translation calls of one request.
	Concurrency int
	// CallTimeout applies to each translation call separately.
	CallTimeout time.Duration
	// CASRetries is how often a lost compare-and-swap is re-read and retried.
	CASRetries int
	Now        func() time.Time
}

func DefaultOptions() Options {
	return Options{Concurrency: 4, CallTimeout: 60 * time.Second, CASRetries: 3, Now: func() time.Time { return time.Now().UTC() }}
}

type Service struct {
	repo      repository.Repository
	history   *history.Recorder
	provider  translate.Provider
	sanitizer *sanitize.Sanitizer
	cascade   []Cascader
	opts      Options
}

func New(repo repository.Repository, rec *history.Recorder, provider translate.Provider, s *sanitize.Sanitizer, opts Options) *Service {
	def := DefaultOptions()
	if opts.Concurrency < 1 {
		opts.Concurrency = def.Concurrency
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = def.CallTimeout
	}
	if opts.CASRetries <= 0 {
		opts.CASRetries = def.CASRetries
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	if provider == nil {
		provider = translate.Unavailable{}
	}
	if s == nil {
		s = sanitize.New()
	}
	return &Service{repo: repo, history: rec, provider: provider, sanitizer: s, opts: opts}
}

// WithCascade registers stores to purge when a disease is deleted.
func (s *Service) WithCascade(c ...Cascader) *Service {
	s.cascade = append(s.cascade, c...)
	return s
}

// TranslationConfigured reports whether a real translation backend is wired.
func (s *Service) TranslationConfigured() bool { return translate.Configured(s.provider) }

func (s *Service) Get(ctx context.Context, id string) (*disease.Disease, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f disease.Filter) ([]*disease.Disease, error) {
	return s.repo.List(ctx, f)
}

// History returns the entries of a disease, newest first. History outlives
// the disease itself, so a deleted id still lists its entries.
func (s *Service) History(ctx context.Context, id string) ([]*history.Entry, error) {
	entries, err := s.history.Log().List(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		if _, err := s.repo.Get(ctx, id); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// mutate applies the patch returned by build under a version CAS. On a lost
// race the document is re-read and build is called again.
func (s *Service) mutate(ctx context.Context, id string, build func(cur *disease.Disease) (*disease.Patch, error)) (*disease.Disease, error) {
	for attempt := 0; ; attempt++ {
		cur, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		p, err := build(cur)
		if err != nil {
			return nil, err
		}
		updated, err := s.repo.Apply(ctx, id, cur.Version, p)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, repository.ErrVersionMismatch) {
			return nil, err
		}
		metrics.EditConflicts.Inc()
		if attempt >= s.opts.CASRetries {
			return nil, fmt.Errorf("%w: disease %s was modified concurrently, reload and retry", apperr.ErrConflict, id)
		}
		logger.Debugf("disease %s: version %d lost CAS, retrying", id, cur.Version)
	}
}

// record appends the history entry for an already committed write. A failure
// here is logged by the recorder and never fails the request.
func (s *Service) record(ctx context.Context, d *disease.Disease, kind history.EditType, caller access.Caller, fill func(e *history.Entry)) *history.Entry {
	e := history.NewEntry(d, kind, caller.ID, caller.Name, s.opts.Now())
	if fill != nil {
		fill(e)
	}
	if err := s.history.Record(context.WithoutCancel(ctx), e); err != nil {
		logger.Errorf("disease %s: history for version %d not persisted: %v", d.ID, d.Version, err)
	}
	metrics.SectionEdits.WithLabelValues(string(kind)).Inc()
	return e
}

// amend replaces the snapshot of an entry already recorded for d's version.
func (s *Service) amend(ctx context.Context, d *disease.Disease, prev *history.Entry) {
	e := *prev
	e.Snapshot = d.Clone()
	if err := s.history.Amend(context.WithoutCancel(ctx), &e); err != nil {
		logger.Errorf("disease %s: history for version %d not amended: %v", d.ID, d.Version, err)
	}
}

// editedBy refreshes the last-edit fields of m, keeping translation bookkeeping.
func editedBy(m disease.EditMeta, caller access.Caller, at time.Time) disease.EditMeta {
	m.LastEditedAt = at
	m.LastEditedBy = caller.ID
	m.LastEditedByName = caller.Name
	return m
}
