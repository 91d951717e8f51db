package reader

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the Store used when MongoDB is not configured.
type MemoryStore struct {
	mu        sync.RWMutex
	bookmarks map[string]*Bookmark
	notes     map[string]*Note
	views     map[string]*RecentView
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookmarks: map[string]*Bookmark{},
		notes:     map[string]*Note{},
		views:     map[string]*RecentView{},
	}
}

func pairKey(userID, diseaseID string) string { return userID + "\x00" + diseaseID }

func (m *MemoryStore) AddBookmark(_ context.Context, b *Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey(b.UserID, b.DiseaseID)
	if _, ok := m.bookmarks[k]; ok {
		return ErrAlreadyBookmarked
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	c := *b
	m.bookmarks[k] = &c
	return nil
}

func (m *MemoryStore) ListBookmarks(_ context.Context, userID string) ([]*Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*Bookmark{}
	for _, b := range m.bookmarks {
		if b.UserID == userID {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) DeleteBookmark(_ context.Context, userID, diseaseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey(userID, diseaseID)
	if _, ok := m.bookmarks[k]; !ok {
		return ErrBookmarkNotFound
	}
	delete(m.bookmarks, k)
	return nil
}

func (m *MemoryStore) UpsertNote(_ context.Context, userID, diseaseID, content string, at time.Time) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey(userID, diseaseID)
	n, ok := m.notes[k]
	if !ok {
		n = &Note{ID: uuid.NewString(), UserID: userID, DiseaseID: diseaseID, CreatedAt: at}
		m.notes[k] = n
	}
	n.Content = content
	n.UpdatedAt = at
	c := *n
	return &c, nil
}

func (m *MemoryStore) GetNote(_ context.Context, userID, diseaseID string) (*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notes[pairKey(userID, diseaseID)]
	if !ok {
		return nil, nil
	}
	c := *n
	return &c, nil
}

func (m *MemoryStore) ListNotes(_ context.Context, userID string) ([]*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*Note{}
	for _, n := range m.notes {
		if n.UserID == userID {
			c := *n
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *MemoryStore) DeleteNote(_ context.Context, userID, noteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, n := range m.notes {
		if n.ID == noteID && n.UserID == userID {
			delete(m.notes, k)
			return nil
		}
	}
	return ErrNoteNotFound
}

func (m *MemoryStore) RecordView(_ context.Context, v *RecentView, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	c := *v
	m.views[pairKey(v.UserID, v.DiseaseID)] = &c

	mine := m.userViews(v.UserID)
	for _, old := range mine[min(keep, len(mine)):] {
		delete(m.views, pairKey(old.UserID, old.DiseaseID))
	}
	return nil
}

// userViews returns the stored views of userID, newest first. Callers hold mu.
func (m *MemoryStore) userViews(userID string) []*RecentView {
	out := []*RecentView{}
	for _, v := range m.views {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ViewedAt.After(out[j].ViewedAt) })
	return out
}

func (m *MemoryStore) ListViews(_ context.Context, userID string, limit int) ([]*RecentView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mine := m.userViews(userID)
	if limit > 0 && len(mine) > limit {
		mine = mine[:limit]
	}
	out := make([]*RecentView, len(mine))
	for i, v := range mine {
		c := *v
		out[i] = &c
	}
	return out, nil
}

func (m *MemoryStore) PurgeDisease(_ context.Context, diseaseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, b := range m.bookmarks {
		if b.DiseaseID == diseaseID {
			delete(m.bookmarks, k)
		}
	}
	for k, n := range m.notes {
		if n.DiseaseID == diseaseID {
			delete(m.notes, k)
		}
	}
	for k, v := range m.views {
		if v.DiseaseID == diseaseID {
			delete(m.views, k)
		}
	}
	return nil
}
