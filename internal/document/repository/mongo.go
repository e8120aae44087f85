package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blogdeck/admin/internal/document"
)

// MongoRepo persists the content store in a MongoDB collection so document
// ids survive restarts.
type MongoRepo struct {
	col *mongo.Collection
}

var _ Repository = (*MongoRepo)(nil)

func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	// source is unique: one record per file
	idxModel := mongo.IndexModel{Keys: bson.D{{Key: "source", Value: 1}}, Options: options.Index().SetUnique(true)}
	if _, err := col.Indexes().CreateOne(ctx, idxModel); err != nil {
		return nil, fmt.Errorf("create source index: %w", err)
	}
	return &MongoRepo{col: col}, nil
}

func (m *MongoRepo) Get(ctx context.Context, kind document.Kind, id string) (*document.Document, error) {
	return m.findOne(ctx, bson.M{"_id": id, "kind": kind})
}

func (m *MongoRepo) FindBySource(ctx context.Context, source string) (*document.Document, error) {
	return m.findOne(ctx, bson.M{"source": source})
}

func (m *MongoRepo) findOne(ctx context.Context, filter bson.M) (*document.Document, error) {
	var d document.Document
	if err := m.col.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) List(ctx context.Context, kind document.Kind) ([]*document.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "source", Value: 1}})
	cur, err := m.col.Find(ctx, bson.M{"kind": kind}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*document.Document{}
	for cur.Next(ctx) {
		var d document.Document
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, cur.Err()
}

func (m *MongoRepo) Save(ctx context.Context, d *document.Document) error {
	if d.ID == "" {
		return ErrMissingID
	}
	_, err := m.col.ReplaceOne(ctx, bson.M{"_id": d.ID}, d, options.Replace().SetUpsert(true))
	return err
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
