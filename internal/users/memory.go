package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carolinavmo/PMR-atlas/internal/models"
)

// MemoryUserRepository backs the dev server without MongoDB and the tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: map[string]*models.User{}}
}

func (r *MemoryUserRepository) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email || existing.Sub == u.Sub {
			return ErrEmailTaken
		}
	}
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r *MemoryUserRepository) find(match func(*models.User) bool) *models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			c := *u
			return &c
		}
	}
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id }), nil
}

func (r *MemoryUserRepository) GetBySub(_ context.Context, sub string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Sub == sub }), nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email }), nil
}

func (r *MemoryUserRepository) List(_ context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *MemoryUserRepository) UpdateRole(_ context.Context, id string, role models.Role) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	c := *u
	return &c, nil
}

func (r *MemoryUserRepository) UpsertBySub(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for _, existing := range r.users {
		if existing.Sub == u.Sub {
			existing.Email = u.Email
			existing.Name = u.Name
			existing.UpdatedAt = now
			c := *existing
			return &c, nil
		}
	}
	c := *u
	c.ID = uuid.NewString()
	if c.Role == "" {
		c.Role = models.RoleStudent
	}
	c.CreatedAt, c.UpdatedAt = now, now
	r.users[c.ID] = &c
	out := c
	return &out, nil
}
