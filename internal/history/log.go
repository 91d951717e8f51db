package history

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carolinavmo/PMR-atlas/pkg/logger"
)

// Log is the version history. Append is idempotent on (disease id, version);
// Put replaces the entry for that version. List returns newest first.
type Log interface {
	Append(ctx context.Context, e *Entry) error
	Put(ctx context.Context, e *Entry) error
	List(ctx context.Context, diseaseID string) ([]*Entry, error)
}

type MemoryLog struct {
	mu      sync.RWMutex
	entries map[string][]*Entry
	seen    map[string]struct{}
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{entries: map[string][]*Entry{}, seen: map[string]struct{}{}}
}

func (m *MemoryLog) Append(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := EntryID(e.DiseaseID, e.Version)
	if _, ok := m.seen[id]; ok {
		return nil
	}
	m.seen[id] = struct{}{}
	c := *e
	c.ID = id
	m.entries[e.DiseaseID] = append(m.entries[e.DiseaseID], &c)
	return nil
}

func (m *MemoryLog) Put(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *e
	c.ID = EntryID(e.DiseaseID, e.Version)
	c.Amend = false
	if _, ok := m.seen[c.ID]; ok {
		for i, old := range m.entries[e.DiseaseID] {
			if old.ID == c.ID {
				m.entries[e.DiseaseID][i] = &c
				return nil
			}
		}
	}
	m.seen[c.ID] = struct{}{}
	m.entries[e.DiseaseID] = append(m.entries[e.DiseaseID], &c)
	return nil
}

func (m *MemoryLog) List(_ context.Context, diseaseID string) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.entries[diseaseID]
	out := make([]*Entry, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

type MongoLog struct {
	col *mongo.Collection
}

func NewMongoLog(col *mongo.Collection) *MongoLog {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "disease_id", Value: 1}, {Key: "version", Value: -1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := col.Indexes().CreateOne(context.Background(), idx); err != nil {
		logger.Warnf("history: create index: %v", err)
	}
	return &MongoLog{col: col}
}

func (m *MongoLog) Append(ctx context.Context, e *Entry) error {
	e.ID = EntryID(e.DiseaseID, e.Version)
	if _, err := m.col.InsertOne(ctx, e); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return err
	}
	return nil
}

func (m *MongoLog) Put(ctx context.Context, e *Entry) error {
	c := *e
	c.ID = EntryID(e.DiseaseID, e.Version)
	c.Amend = false
	_, err := m.col.ReplaceOne(ctx, bson.M{"_id": c.ID}, &c, options.Replace().SetUpsert(true))
	return err
}

func (m *MongoLog) List(ctx context.Context, diseaseID string) ([]*Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "version", Value: -1}})
	cur, err := m.col.Find(ctx, bson.M{"disease_id": diseaseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Entry{}
	for cur.Next(ctx) {
		var e Entry
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, cur.Err()
}
