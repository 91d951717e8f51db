package reader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carolinavmo/PMR-atlas/internal/access"
	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/internal/disease"
)

// Diseases resolves disease ids to documents.
type Diseases interface {
	Get(ctx context.Context, id string) (*disease.Disease, error)
}

type Service struct {
	store    Store
	diseases Diseases
	now      func() time.Time
}

func NewService(store Store, diseases Diseases) *Service {
	return &Service{store: store, diseases: diseases, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Store() Store { return s.store }

func userOf(c access.Caller) (string, error) {
	if c.ID == "" {
		return "", fmt.Errorf("%w: no caller", apperr.ErrUnauthorized)
	}
	return c.ID, nil
}

// nameOf returns the current name of a disease, or "Unknown" once it is gone.
func (s *Service) nameOf(ctx context.Context, id string) string {
	d, err := s.diseases.Get(ctx, id)
	if err != nil {
		return "Unknown"
	}
	return d.Name
}

func (s *Service) AddBookmark(ctx context.Context, caller access.Caller, diseaseID string) (*Bookmark, error) {
	uid, err := userOf(caller)
	if err != nil {
		return nil, err
	}
	d, err := s.diseases.Get(ctx, diseaseID)
	if err != nil {
		return nil, err
	}
	b := &Bookmark{UserID: uid, DiseaseID: d.ID, CreatedAt: s.now()}
	if err := s.store.AddBookmark(ctx, b); err != nil {
		return nil, err
	}
	b.DiseaseName = d.Name
	return b, nil
}

func (s *Service) Bookmarks(ctx context.Context, caller access.Caller) ([]*Bookmark, error) {
	uid, err := userOf(caller)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ListBookmarks(ctx, uid)
	if err != nil {
		return nil, err
	}
	for _, b := range out {
		b.DiseaseName = s.nameOf(ctx, b.DiseaseID)
	}
	return out, nil
}

func (s *Service) RemoveBookmark(ctx context.Context, caller access.Caller, diseaseID string) error {
	uid, err := userOf(caller)
	if err != nil {
		return err
	}
	return s.store.DeleteBookmark(ctx, uid, diseaseID)
}

// SaveNote creates the caller's note on a disease or replaces its content.
func (s *Service) SaveNote(ctx context.Context, caller access.Caller, diseaseID, content string) (*Note, error) {
	uid, err := userOf(caller)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(diseaseID) == "" {
		return nil, fmt.Errorf("%w: disease_id is required", apperr.ErrValidation)
	}
	d, err := s.diseases.Get(ctx, diseaseID)
	if err != nil {
		return nil, err
	}
	n, err := s.store.UpsertNote(ctx, uid, d.ID, content, s.now())
	if err != nil {
		return nil, err
	}
	n.DiseaseName = d.Name
	return n, nil
}

// Note returns the caller's note on a disease, or nil.
func (s *Service) Note(ctx context.Context, caller access.Caller, diseaseID string) (*Note, error) {
	uid, err := userOf(caller)
	if err != nil {
		return nil, err
	}
	n, err := s.store.GetNote(ctx, uid, diseaseID)
	if err != nil || n == nil {
		return nil, err
	}
	n.DiseaseName = s.nameOf(ctx, diseaseID)
	return n, nil
}

func (s *Service) Notes(ctx context.Context, caller access.Caller) ([]*Note, error) {
	uid, err := userOf(caller)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ListNotes(ctx, uid)
	if err != nil {
		return nil, err
	}
	for _, n := range out {
		n.DiseaseName = s.nameOf(ctx, n.DiseaseID)
	}
	return out, nil
}

func (s *Service) DeleteNote(ctx context.Context, caller access.Caller, noteID string) error {
	uid, err := userOf(caller)
	if err != nil {
		return err
	}
	return s.store.DeleteNote(ctx, uid, noteID)
}

func (s *Service) RecordView(ctx context.Context, caller access.Caller, diseaseID string) error {
	uid, err := userOf(caller)
	if err != nil {
		return err
	}
	d, err := s.diseases.Get(ctx, diseaseID)
	if err != nil {
		return err
	}
	return s.store.RecordView(ctx, &RecentView{
		UserID:      uid,
		DiseaseID:   d.ID,
		DiseaseName: d.Name,
		ViewedAt:    s.now(),
	}, RecentViewsKept)
}

func (s *Service) RecentViews(ctx context.Context, caller access.Caller) ([]*RecentView, error) {
	uid, err := userOf(caller)
	if err != nil {
		return nil, err
	}
	return s.store.ListViews(ctx, uid, RecentViewsKept)
}

// PurgeDisease implements the delete cascade for diseases.
func (s *Service) PurgeDisease(ctx context.Context, diseaseID string) error {
	if err := s.store.PurgeDisease(ctx, diseaseID); err != nil {
		return errors.Join(fmt.Errorf("purge reader state of %s", diseaseID), err)
	}
	return nil
}
