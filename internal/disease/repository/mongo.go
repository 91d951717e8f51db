package repository

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/google/uuid"

	"github.com/carolinavmo/PMR-atlas/internal/disease"
	"github.com/carolinavmo/PMR-atlas/pkg/logger"
)

// MongoRepo stores diseases keyed by their UUID in _id. Section text,
// media and edit metadata are nested maps so a section edit is a single
// $set on "text.<field>" that never touches sibling languages.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category_id", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	}
	if _, err := col.Indexes().CreateMany(context.Background(), models); err != nil {
		logger.Warnf("diseases: create indexes: %v", err)
	}
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, d *disease.Disease) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.Normalize()
	if _, err := m.col.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*disease.Disease, error) {
	var d disease.Disease
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d.Normalize()
	return &d, nil
}

func (m *MongoRepo) List(ctx context.Context, f disease.Filter) ([]*disease.Disease, error) {
	query := bson.M{}
	if f.CategoryID != "" {
		query["category_id"] = f.CategoryID
	}
	if f.Tag != "" {
		query["tags"] = f.Tag
	}
	if f.Search != "" {
		rx := bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
		query["$or"] = bson.A{
			bson.M{"name": rx},
			bson.M{"text." + string(disease.SectionDefinition): rx},
			bson.M{"text." + string(disease.SectionClinicalPresentation): rx},
		}
	}
	cur, err := m.col.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*disease.Disease{}
	for cur.Next(ctx) {
		var d disease.Disease
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		d.Normalize()
		out = append(out, &d)
	}
	return out, cur.Err()
}

func (m *MongoRepo) Apply(ctx context.Context, id string, expectedVersion int, p *disease.Patch) (*disease.Disease, error) {
	filter := bson.M{"_id": id, "version": expectedVersion}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var d disease.Disease
	err := m.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": setDoc(p, expectedVersion)}, opts).Decode(&d)
	if err == nil {
		d.Normalize()
		return &d, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	n, cerr := m.col.CountDocuments(ctx, bson.M{"_id": id})
	if cerr != nil {
		return nil, cerr
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrVersionMismatch
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// setDoc translates a patch into $set paths.
func setDoc(p *disease.Patch, expectedVersion int) bson.M {
	set := bson.M{}
	if !p.At.IsZero() {
		set["updated_at"] = p.At
	}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.CategoryID != nil {
		set["category_id"] = *p.CategoryID
	}
	if p.Tags != nil {
		set["tags"] = *p.Tags
	}
	if p.References != nil {
		set["references"] = *p.References
	}
	if p.Images != nil {
		set["images"] = *p.Images
	}
	for k, v := range p.Text {
		set["text."+k] = v
	}
	for s, items := range p.Media {
		set["media."+string(s)] = items
	}
	for s, meta := range p.EditMeta {
		set["edit_meta."+string(s)] = meta
	}
	if p.BumpVersion {
		set["version"] = expectedVersion + 1
	}
	return set
}
