package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/carolinavmo/PMR-atlas/internal/apperr"
)

// Service wraps repository operations with business logic
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

// CreateSession stores a new refresh session and returns the refresh token
func (s *Service) CreateSession(ctx context.Context, sub string, ttl time.Duration) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	r := hex.EncodeToString(b)
	now := time.Now().UTC()
	sess := &Session{
		RefreshToken: r,
		Sub:          sub,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return "", err
	}
	return r, nil
}

// ValidateRefresh returns the session if refresh token is valid and not expired
func (s *Service) ValidateRefresh(ctx context.Context, refresh string) (*Session, error) {
	sess, err := s.repo.GetByRefresh(ctx, refresh)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if sess.Expired(time.Now().UTC()) {
		_ = s.repo.DeleteByRefresh(ctx, refresh)
		return nil, nil
	}
	return sess, nil
}

// Rotate exchanges a valid refresh token for a new one. The old session is
// consumed atomically, so a token can be rotated at most once.
func (s *Service) Rotate(ctx context.Context, refresh string, ttl time.Duration) (newRefresh, sub string, err error) {
	sess, err := s.repo.Take(ctx, refresh)
	if err != nil {
		return "", "", err
	}
	if sess == nil || sess.Expired(time.Now().UTC()) {
		return "", "", fmt.Errorf("%w: invalid refresh token", apperr.ErrUnauthorized)
	}
	newRefresh, err = s.CreateSession(ctx, sess.Sub, ttl)
	if err != nil {
		return "", "", err
	}
	return newRefresh, sess.Sub, nil
}

func (s *Service) DeleteRefresh(ctx context.Context, refresh string) error {
	return s.repo.DeleteByRefresh(ctx, refresh)
}
