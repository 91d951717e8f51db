package reader

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carolinavmo/PMR-atlas/pkg/logger"
)

type MongoStore struct {
	bookmarks *mongo.Collection
	notes     *mongo.Collection
	views     *mongo.Collection
}

func NewMongoStore(bookmarks, notes, views *mongo.Collection) *MongoStore {
	pair := bson.D{{Key: "user_id", Value: 1}, {Key: "disease_id", Value: 1}}
	for _, col := range []*mongo.Collection{bookmarks, notes, views} {
		idx := []mongo.IndexModel{
			{Keys: pair, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "disease_id", Value: 1}}},
		}
		if _, err := col.Indexes().CreateMany(context.Background(), idx); err != nil {
			logger.Warnf("reader: create indexes on %s: %v", col.Name(), err)
		}
	}
	return &MongoStore{bookmarks: bookmarks, notes: notes, views: views}
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]*T, error) {
	defer cur.Close(ctx)
	out := []*T{}
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}

func (s *MongoStore) AddBookmark(ctx context.Context, b *Bookmark) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if _, err := s.bookmarks.InsertOne(ctx, b); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyBookmarked
		}
		return err
	}
	return nil
}

func (s *MongoStore) ListBookmarks(ctx context.Context, userID string) ([]*Bookmark, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.bookmarks.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[Bookmark](ctx, cur)
}

func (s *MongoStore) DeleteBookmark(ctx context.Context, userID, diseaseID string) error {
	res, err := s.bookmarks.DeleteOne(ctx, bson.M{"user_id": userID, "disease_id": diseaseID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrBookmarkNotFound
	}
	return nil
}

func (s *MongoStore) UpsertNote(ctx context.Context, userID, diseaseID, content string, at time.Time) (*Note, error) {
	filter := bson.M{"user_id": userID, "disease_id": diseaseID}
	update := bson.M{
		"$set":         bson.M{"content": content, "updated_at": at},
		"$setOnInsert": bson.M{"_id": uuid.NewString(), "created_at": at},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var n Note
	if err := s.notes.FindOneAndUpdate(ctx, filter, update, opts).Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *MongoStore) GetNote(ctx context.Context, userID, diseaseID string) (*Note, error) {
	var n Note
	if err := s.notes.FindOne(ctx, bson.M{"user_id": userID, "disease_id": diseaseID}).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (s *MongoStore) ListNotes(ctx context.Context, userID string) ([]*Note, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := s.notes.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[Note](ctx, cur)
}

func (s *MongoStore) DeleteNote(ctx context.Context, userID, noteID string) error {
	res, err := s.notes.DeleteOne(ctx, bson.M{"_id": noteID, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

func (s *MongoStore) RecordView(ctx context.Context, v *RecentView, keep int) error {
	filter := bson.M{"user_id": v.UserID, "disease_id": v.DiseaseID}
	update := bson.M{
		"$set":         bson.M{"disease_name": v.DiseaseName, "viewed_at": v.ViewedAt},
		"$setOnInsert": bson.M{"_id": uuid.NewString()},
	}
	if _, err := s.views.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "viewed_at", Value: -1}}).
		SetSkip(int64(keep)).
		SetProjection(bson.M{"_id": 1})
	cur, err := s.views.Find(ctx, bson.M{"user_id": v.UserID}, opts)
	if err != nil {
		return err
	}
	stale, err := decodeAll[RecentView](ctx, cur)
	if err != nil || len(stale) == 0 {
		return err
	}
	ids := make([]string, len(stale))
	for i, sv := range stale {
		ids[i] = sv.ID
	}
	_, err = s.views.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (s *MongoStore) ListViews(ctx context.Context, userID string, limit int) ([]*RecentView, error) {
	opts := options.Find().SetSort(bson.D{{Key: "viewed_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.views.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[RecentView](ctx, cur)
}

func (s *MongoStore) PurgeDisease(ctx context.Context, diseaseID string) error {
	var errs []error
	for _, col := range []*mongo.Collection{s.bookmarks, s.notes, s.views} {
		if _, err := col.DeleteMany(ctx, bson.M{"disease_id": diseaseID}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
