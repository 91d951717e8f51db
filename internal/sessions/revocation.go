package sessions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revocations is the access-token blacklist. With a nil client every
// operation is a no-op and no token is considered revoked.
type Revocations struct {
	client *redis.Client
	prefix string
}

func NewRevocations(client *redis.Client) *Revocations {
	return &Revocations{client: client, prefix: "blacklist:access:"}
}

// Revoke blacklists token for ttl, normally the token's remaining lifetime.
func (r *Revocations) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if r == nil || r.client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	return r.client.Set(ctx, r.prefix+token, "1", ttl).Err()
}

func (r *Revocations) IsRevoked(ctx context.Context, token string) (bool, error) {
	if r == nil || r.client == nil {
		return false, nil
	}
	exists, err := r.client.Exists(ctx, r.prefix+token).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
