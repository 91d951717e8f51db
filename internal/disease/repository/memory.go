package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/carolinavmo/PMR-atlas/internal/disease"
)

// MemoryRepo is an in-memory repository used by unit tests and by the
// server when no MongoDB URI is configured.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*disease.Disease
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*disease.Disease)}
}

func (m *MemoryRepo) Create(_ context.Context, d *disease.Disease) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if _, ok := m.store[d.ID]; ok {
		return ErrDuplicate
	}
	d.Normalize()
	m.store[d.ID] = d.Clone()
	return nil
}

func (m *MemoryRepo) Get(_ context.Context, id string) (*disease.Disease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		return d.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) List(_ context.Context, f disease.Filter) ([]*disease.Disease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*disease.Disease, 0, len(m.store))
	for _, d := range m.store {
		if matches(d, f) {
			out = append(out, d.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryRepo) Apply(_ context.Context, id string, expectedVersion int, p *disease.Patch) (*disease.Disease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	if d.Version != expectedVersion {
		return nil, ErrVersionMismatch
	}
	p.Apply(d)
	return d.Clone(), nil
}

func (m *MemoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func matches(d *disease.Disease, f disease.Filter) bool {
	if f.CategoryID != "" && d.CategoryID != f.CategoryID {
		return false
	}
	if f.Tag != "" {
		found := false
		for _, t := range d.Tags {
			if t == f.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		for _, v := range searchable(d) {
			if strings.Contains(strings.ToLower(v), q) {
				return true
			}
		}
		return false
	}
	return true
}

func searchable(d *disease.Disease) []string {
	return []string{
		d.Name,
		d.Text[string(disease.SectionDefinition)],
		d.Text[string(disease.SectionClinicalPresentation)],
	}
}
