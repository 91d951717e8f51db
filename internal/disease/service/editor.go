package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carolinavmo/PMR-atlas/internal/access"
	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/internal/disease"
	"github.com/carolinavmo/PMR-atlas/internal/history"
	"github.com/carolinavmo/PMR-atlas/internal/lang"
	"github.com/carolinavmo/PMR-atlas/pkg/logger"
)

// SaveResult is returned by every single-write operation.
type SaveResult struct {
	Message string
	Disease *disease.Disease
}

// SaveSection overwrites one section in one language and bumps the version.
func (s *Service) SaveSection(ctx context.Context, caller access.Caller, id string, in SaveSectionInput) (*SaveResult, error) {
	if err := access.Check(caller, access.EditSections); err != nil {
		return nil, err
	}
	if in.Language == "" {
		in.Language = string(lang.Canonical)
	}
	l, err := disease.ParseLanguage(in.Language)
	if err != nil {
		return nil, err
	}
	sec, err := disease.ParseTextSection(in.SectionID)
	if err != nil {
		return nil, err
	}
	content := s.sanitizer.Content(in.Content)

	d, err := s.saveSection(ctx, caller, id, sec, l, content, nil)
	if err != nil {
		return nil, err
	}
	s.record(ctx, d, history.EditSingleLanguage, caller, func(e *history.Entry) {
		e.Language = l
		e.SectionID = sec
	})
	return &SaveResult{Message: fmt.Sprintf("Saved in %s", l), Disease: d}, nil
}

// saveSection writes one section and bumps the version. touch, when set,
// adjusts the section metadata after the last-edit fields are filled in.
func (s *Service) saveSection(ctx context.Context, caller access.Caller, id string, sec disease.Section, l lang.Language, content string, touch func(m *disease.EditMeta)) (*disease.Disease, error) {
	return s.mutate(ctx, id, func(cur *disease.Disease) (*disease.Patch, error) {
		now := s.opts.Now()
		meta, _ := cur.SectionMeta(sec)
		meta = editedBy(meta, caller, now)
		meta.LastEditedLanguage = l
		if touch != nil {
			touch(&meta)
		}
		return disease.NewPatch(now).SetText(sec, l, content).SetMeta(sec, meta).Bump(), nil
	})
}

// MediaResult reports a section media replacement.
type MediaResult struct {
	Message    string
	MediaCount int
	Disease    *disease.Disease
}

// ReplaceMedia replaces the whole media list of one section. An empty list
// clears it and still counts as a versioned edit.
func (s *Service) ReplaceMedia(ctx context.Context, caller access.Caller, id string, in ReplaceMediaInput) (*MediaResult, error) {
	if err := access.Check(caller, access.EditSections); err != nil {
		return nil, err
	}
	sec, err := disease.ParseMediaSection(in.SectionID)
	if err != nil {
		return nil, err
	}
	if in.Media == nil {
		return nil, fmt.Errorf("%w: media is required, send [] to clear the section", apperr.ErrValidation)
	}
	items, err := s.mediaItems(*in.Media)
	if err != nil {
		return nil, err
	}
	d, err := s.mutate(ctx, id, func(*disease.Disease) (*disease.Patch, error) {
		return disease.NewPatch(s.opts.Now()).SetMedia(sec, items).Bump(), nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, d, history.EditMedia, caller, func(e *history.Entry) { e.SectionID = sec })
	return &MediaResult{
		Message:    fmt.Sprintf("Media updated for %s", sec),
		MediaCount: len(items),
		Disease:    d,
	}, nil
}

func (s *Service) mediaItems(in []MediaInput) ([]disease.MediaItem, error) {
	items := make([]disease.MediaItem, 0, len(in))
	for i, m := range in {
		m.URL = strings.TrimSpace(m.URL)
		m.Type = strings.ToLower(strings.TrimSpace(m.Type))
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("%w: media[%d]: %v", apperr.ErrValidation, i, err)
		}
		items = append(items, disease.MediaItem{
			URL:       m.URL,
			Kind:      disease.MediaKind(m.Type),
			Caption:   s.sanitizer.Caption(m.Description),
			Size:      m.Size,
			Alignment: m.Alignment,
		})
	}
	return items, nil
}

// Create stores a new disease at version 1 with its initial history entry.
func (s *Service) Create(ctx context.Context, caller access.Caller, in DocumentInput) (*disease.Disease, error) {
	if err := access.Check(caller, access.EditDocuments); err != nil {
		return nil, err
	}
	if err := in.validate(true); err != nil {
		return nil, err
	}
	now := s.opts.Now()
	p, err := s.documentPatch(in, caller, now)
	if err != nil {
		return nil, err
	}
	d := &disease.Disease{
		ID:        uuid.NewString(),
		Version:   0,
		CreatedAt: now,
		CreatedBy: caller.ID,
	}
	p.Bump().Apply(d)
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	logger.Infof("disease %s created by %s", d.ID, caller.ID)
	s.record(ctx, d, history.EditCreate, caller, nil)
	return d, nil
}

// Update applies a full-document edit. Only the fields present in the body
// are written; a body with none of them is rejected.
func (s *Service) Update(ctx context.Context, caller access.Caller, id string, in DocumentInput) (*disease.Disease, error) {
	if err := access.Check(caller, access.EditDocuments); err != nil {
		return nil, err
	}
	if err := in.validate(false); err != nil {
		return nil, err
	}
	d, err := s.mutate(ctx, id, func(cur *disease.Disease) (*disease.Patch, error) {
		p, err := s.documentPatch(in, caller, s.opts.Now())
		if err != nil {
			return nil, err
		}
		if p.Empty() {
			return nil, fmt.Errorf("%w: no fields to update", apperr.ErrValidation)
		}
		// keep translation bookkeeping on sections that were rewritten
		for sec, m := range p.EditMeta {
			prev, _ := cur.SectionMeta(sec)
			m.TranslatedAt = prev.TranslatedAt
			m.TranslatedTo = prev.TranslatedTo
			p.EditMeta[sec] = m
		}
		return p.Bump(), nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, d, history.EditFull, caller, nil)
	return d, nil
}

func (s *Service) documentPatch(in DocumentInput, caller access.Caller, now time.Time) (*disease.Patch, error) {
	p := disease.NewPatch(now)
	if in.Name != nil {
		p.SetName(lang.Canonical, strings.TrimSpace(*in.Name))
	}
	if in.CategoryID != nil {
		v := strings.TrimSpace(*in.CategoryID)
		p.CategoryID = &v
	}
	p.Tags = trimList(in.Tags)
	p.References = trimList(in.References)
	p.Images = trimList(in.Images)
	for l, v := range in.Names {
		p.SetName(l, strings.TrimSpace(v))
	}
	for sec, byLang := range in.Text {
		meta := editedBy(disease.EditMeta{}, caller, now)
		for l, v := range byLang {
			p.SetText(sec, l, s.sanitizer.Content(v))
			if meta.LastEditedLanguage == "" || l.IsCanonical() {
				meta.LastEditedLanguage = l
			}
		}
		p.SetMeta(sec, meta)
	}
	for sec, raw := range in.Media {
		items, err := s.mediaItems(raw)
		if err != nil {
			return nil, err
		}
		p.SetMedia(sec, items)
	}
	return p, nil
}

func trimList(in *[]string) *[]string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(*in))
	for _, v := range *in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return &out
}

// Delete removes a disease and the reader state pointing at it. History
// entries are kept.
func (s *Service) Delete(ctx context.Context, caller access.Caller, id string) error {
	if err := access.Check(caller, access.DeleteDocument); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	purgeCtx := context.WithoutCancel(ctx)
	for _, c := range s.cascade {
		if err := c.PurgeDisease(purgeCtx, id); err != nil {
			logger.Errorf("disease %s deleted but cascade failed: %v", id, err)
		}
	}
	logger.Infof("disease %s deleted by %s", id, caller.ID)
	return nil
}
