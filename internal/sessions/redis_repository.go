package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository keeps each refresh session as a JSON string under
// "<prefix><refresh token>". The key TTL is the session lifetime, so Redis
// drops expired sessions on its own.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) Create(ctx context.Context, s *Session) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	ttl := s.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return fmt.Errorf("session for %s already expired", s.Sub)
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+s.RefreshToken, b, ttl).Err()
}

func (r *RedisRepository) GetByRefresh(ctx context.Context, refresh string) (*Session, error) {
	return decodeSession(r.client.Get(ctx, r.prefix+refresh).Bytes())
}

// Take reads and deletes the session in one GETDEL, so two concurrent
// rotations of the same token cannot both succeed.
func (r *RedisRepository) Take(ctx context.Context, refresh string) (*Session, error) {
	return decodeSession(r.client.GetDel(ctx, r.prefix+refresh).Bytes())
}

func (r *RedisRepository) DeleteByRefresh(ctx context.Context, refresh string) error {
	return r.client.Del(ctx, r.prefix+refresh).Err()
}

func decodeSession(b []byte, err error) (*Session, error) {
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.Expired(time.Now().UTC()) {
		return nil, nil
	}
	return &s, nil
}
