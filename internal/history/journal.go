package history

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
)

// Journal holds entries whose append failed, until a Reconciler replays them.
type Journal interface {
	Push(ctx context.Context, e *Entry) error
	// Pop returns nil, nil when the journal is empty.
	Pop(ctx context.Context) (*Entry, error)
	// Requeue puts e back so the next Pop returns it again.
	Requeue(ctx context.Context, e *Entry) error
	Len(ctx context.Context) (int64, error)
}

// RedisJournal keeps pending entries in a Redis list, BSON encoded so the
// snapshot round-trips with the same field names as the Mongo log.
type RedisJournal struct {
	client *redis.Client
	key    string
}

func NewRedisJournal(client *redis.Client, key string) *RedisJournal {
	return &RedisJournal{client: client, key: key}
}

func (j *RedisJournal) Push(ctx context.Context, e *Entry) error {
	b, err := bson.Marshal(e)
	if err != nil {
		return err
	}
	return j.client.LPush(ctx, j.key, b).Err()
}

func (j *RedisJournal) Pop(ctx context.Context) (*Entry, error) {
	b, err := j.client.RPop(ctx, j.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var e Entry
	if err := bson.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (j *RedisJournal) Requeue(ctx context.Context, e *Entry) error {
	b, err := bson.Marshal(e)
	if err != nil {
		return err
	}
	return j.client.RPush(ctx, j.key, b).Err()
}

func (j *RedisJournal) Len(ctx context.Context) (int64, error) {
	return j.client.LLen(ctx, j.key).Result()
}

// MemoryJournal is a FIFO used when Redis is not configured. Entries are
// lost on restart; the error log still records them.
type MemoryJournal struct {
	mu    sync.Mutex
	queue []*Entry
}

func NewMemoryJournal() *MemoryJournal { return &MemoryJournal{} }

func (j *MemoryJournal) Push(_ context.Context, e *Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.queue = append(j.queue, e)
	return nil
}

func (j *MemoryJournal) Pop(_ context.Context) (*Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.queue) == 0 {
		return nil, nil
	}
	e := j.queue[0]
	j.queue = j.queue[1:]
	return e, nil
}

func (j *MemoryJournal) Requeue(_ context.Context, e *Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.queue = append([]*Entry{e}, j.queue...)
	return nil
}

func (j *MemoryJournal) Len(_ context.Context) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return int64(len(j.queue)), nil
}
