package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/carolinavmo/PMR-atlas/internal/access"
	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/internal/disease"
	"github.com/carolinavmo/PMR-atlas/internal/disease/repository"
	"github.com/carolinavmo/PMR-atlas/internal/history"
	"github.com/carolinavmo/PMR-atlas/internal/lang"
	"github.com/carolinavmo/PMR-atlas/pkg/logger"
	"github.com/carolinavmo/PMR-atlas/pkg/metrics"
)

var errEmptyTranslation = errors.New("provider returned empty text")

// job is one provider call. Field is the stored field the result goes to.
type job struct {
	Field string
	Text  string
	From  lang.Language
	To    lang.Language
}

// Outcome is the settled result of one translation call.
type Outcome struct {
	Field    string
	Language lang.Language
	Text     string
	Err      error
}

func (o Outcome) OK() bool { return o.Err == nil }

// fanOut runs every job with bounded concurrency and a per-call timeout.
// Failures are returned as values; the slice keeps the order of jobs.
func (s *Service) fanOut(ctx context.Context, jobs []job) []Outcome {
	out := make([]Outcome, len(jobs))
	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			out[i] = s.call(ctx, j)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Service) call(ctx context.Context, j job) Outcome {
	o := Outcome{Field: j.Field, Language: j.To}
	if err := ctx.Err(); err != nil {
		o.Err = err
	} else {
		cctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
		defer cancel()
		text, err := s.provider.Translate(cctx, j.Text, j.From, j.To)
		switch {
		case err != nil:
			o.Err = err
		case strings.TrimSpace(text) == "":
			o.Err = errEmptyTranslation
		default:
			o.Text = s.sanitizer.Content(text)
		}
	}
	outcome := "ok"
	if o.Err != nil {
		outcome = "error"
		logger.Warnf("translate %s %s->%s: %v", j.Field, j.From, j.To, o.Err)
	}
	metrics.Translations.WithLabelValues(string(j.To), outcome).Inc()
	return o
}

func succeeded(outs []Outcome) int {
	n := 0
	for _, o := range outs {
		if o.OK() {
			n++
		}
	}
	return n
}

// TranslateResult reports a save-and-translate.
type TranslateResult struct {
	Message           string
	Disease           *disease.Disease
	TranslationsCount int
	Outcomes          []Outcome
}

// SaveAndTranslate saves a section in the source language, then translates
// it into every requested target. The source save and its history entry are
// durable before the first provider call; translation failures only lower
// the count.
func (s *Service) SaveAndTranslate(ctx context.Context, caller access.Caller, id string, in SaveAndTranslateInput) (*TranslateResult, error) {
	if err := access.Check(caller, access.EditSections); err != nil {
		return nil, err
	}
	if in.SourceLanguage == "" {
		in.SourceLanguage = string(lang.Canonical)
	}
	src, err := disease.ParseLanguage(in.SourceLanguage)
	if err != nil {
		return nil, err
	}
	sec, err := disease.ParseTextSection(in.SectionID)
	if err != nil {
		return nil, err
	}
	requested, err := parseTargets(in.TargetLanguages)
	if err != nil {
		return nil, err
	}
	content := s.sanitizer.Content(in.Content)

	saved, err := s.saveSection(ctx, caller, id, sec, src, content, func(m *disease.EditMeta) {
		at := m.LastEditedAt
		m.TranslatedAt = &at
		m.TranslatedTo = append([]lang.Language(nil), requested...)
	})
	if err != nil {
		return nil, err
	}
	entry := s.record(ctx, saved, history.EditSaveAndTranslate, caller, func(e *history.Entry) {
		e.Language = src
		e.SectionID = sec
		e.SourceLanguage = src
		e.TargetLanguages = append([]lang.Language(nil), requested...)
	})

	var jobs []job
	if strings.TrimSpace(content) != "" {
		for _, to := range requested {
			if to != src {
				jobs = append(jobs, job{Field: disease.FieldName(sec, to), Text: content, From: src, To: to})
			}
		}
	}
	outs := s.fanOut(ctx, jobs)

	// The caller may be gone by now; the translations are still stored.
	bg := context.WithoutCancel(ctx)
	final := saved
	if n := succeeded(outs); n > 0 {
		d, err := s.storeTranslations(bg, saved, sec, outs)
		if err != nil {
			logger.Warnf("disease %s: %d translations for %s dropped: %v", id, n, sec, err)
			for i := range outs {
				if outs[i].OK() {
					outs[i].Text = ""
					outs[i].Err = err
				}
			}
		} else {
			final = d
			s.amend(bg, final, entry)
		}
	}

	count := succeeded(outs)
	return &TranslateResult{
		Message:           fmt.Sprintf("Saved in %s and translated to %d languages", src, count),
		Disease:           final,
		TranslationsCount: count,
		Outcomes:          outs,
	}, nil
}

// storeTranslations writes the successful outcomes onto the version the
// source save produced, without a version bump. It does not retry: once
// another write has landed the translations describe stale content.
func (s *Service) storeTranslations(ctx context.Context, saved *disease.Disease, sec disease.Section, outs []Outcome) (*disease.Disease, error) {
	now := s.opts.Now()
	meta, _ := saved.SectionMeta(sec)
	meta.TranslatedAt = &now
	p := disease.NewPatch(now).SetMeta(sec, meta)
	for _, o := range outs {
		if o.OK() {
			p.SetText(sec, o.Language, o.Text)
		}
	}
	d, err := s.repo.Apply(ctx, saved.ID, saved.Version, p)
	if errors.Is(err, repository.ErrVersionMismatch) {
		metrics.EditConflicts.Inc()
		return nil, fmt.Errorf("%w: section changed while translating", apperr.ErrConflict)
	}
	return d, err
}

// parseTargets validates and dedupes the target list, keeping request order.
// nil selects DefaultTargets.
func parseTargets(raw []string) ([]lang.Language, error) {
	if raw == nil {
		return append([]lang.Language(nil), DefaultTargets...), nil
	}
	seen := map[lang.Language]bool{}
	out := make([]lang.Language, 0, len(raw))
	for _, r := range raw {
		l, err := disease.ParseLanguage(r)
		if err != nil {
			return nil, err
		}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out, nil
}

// FullTranslation reports a whole-document translation.
type FullTranslation struct {
	Message          string
	Disease          *disease.Disease
	FieldsTranslated int
}

// TranslateDisease translates the name and every non-empty canonical section
// into target and stores the results as one versioned edit.
func (s *Service) TranslateDisease(ctx context.Context, caller access.Caller, id, target string) (*FullTranslation, error) {
	if err := access.Check(caller, access.TranslateDocument); err != nil {
		return nil, err
	}
	to, err := disease.ParseLanguage(target)
	if err != nil {
		return nil, err
	}
	if to.IsCanonical() {
		return nil, fmt.Errorf("%w: %s is the source language", apperr.ErrValidation, to)
	}
	if !s.TranslationConfigured() {
		return nil, fmt.Errorf("%w: translation is not configured", apperr.ErrUpstreamUnavailable)
	}
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	jobs := []job{}
	if strings.TrimSpace(cur.Name) != "" {
		jobs = append(jobs, job{Field: disease.NameField(to), Text: cur.Name, From: lang.Canonical, To: to})
	}
	for _, sec := range disease.TextSections() {
		if text := cur.SectionText(sec, lang.Canonical); strings.TrimSpace(text) != "" {
			jobs = append(jobs, job{Field: disease.FieldName(sec, to), Text: text, From: lang.Canonical, To: to})
		}
	}
	outs := s.fanOut(ctx, jobs)
	n := succeeded(outs)
	if n == 0 && len(jobs) > 0 {
		return nil, fmt.Errorf("%w: no field could be translated to %s: %v", apperr.ErrUpstreamUnavailable, to, outs[0].Err)
	}

	bg := context.WithoutCancel(ctx)
	d, err := s.mutate(bg, id, func(cur *disease.Disease) (*disease.Patch, error) {
		now := s.opts.Now()
		p := disease.NewPatch(now)
		for _, o := range outs {
			if !o.OK() {
				continue
			}
			if o.Field == disease.NameField(to) {
				p.SetName(to, o.Text)
				continue
			}
			sec := disease.Section(strings.TrimSuffix(o.Field, to.Suffix()))
			meta, _ := cur.SectionMeta(sec)
			meta.TranslatedAt = &now
			meta.TranslatedTo = addLanguage(meta.TranslatedTo, to)
			p.SetText(sec, to, o.Text).SetMeta(sec, meta)
		}
		return p.Bump(), nil
	})
	if err != nil {
		return nil, err
	}
	s.record(bg, d, history.EditFullTranslation, caller, func(e *history.Entry) {
		e.Language = to
		e.SourceLanguage = lang.Canonical
		e.TargetLanguages = []lang.Language{to}
	})
	return &FullTranslation{
		Message:          fmt.Sprintf("Translated to %s", to.Name()),
		Disease:          d,
		FieldsTranslated: n,
	}, nil
}

func addLanguage(list []lang.Language, l lang.Language) []lang.Language {
	for _, v := range list {
		if v == l {
			return list
		}
	}
	return append(append([]lang.Language(nil), list...), l)
}

// TranslateText translates free text without touching any document.
func (s *Service) TranslateText(ctx context.Context, caller access.Caller, text, from, to string) (string, error) {
	if caller.ID == "" {
		return "", fmt.Errorf("%w: no caller", apperr.ErrUnauthorized)
	}
	src, err := disease.ParseLanguage(from)
	if err != nil {
		return "", err
	}
	dst, err := disease.ParseLanguage(to)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: text is required", apperr.ErrValidation)
	}
	if !s.TranslationConfigured() {
		return "", fmt.Errorf("%w: translation is not configured", apperr.ErrUpstreamUnavailable)
	}
	if src == dst {
		return text, nil
	}
	o := s.call(ctx, job{Field: "text", Text: text, From: src, To: dst})
	if o.Err != nil {
		if errors.Is(o.Err, apperr.ErrUpstreamUnavailable) {
			return "", o.Err
		}
		return "", fmt.Errorf("%w: %v", apperr.ErrUpstreamUnavailable, o.Err)
	}
	return o.Text, nil
}
