// Package repository implements data access for the eight tracked entity
// types on top of a shared generic CRUD base. All exported operations are
// total with respect to connectivity: a store fault degrades to an empty or
// zero result with a structured log entry, never a panic or an unhandled
// error reaching the caller.
package repository

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/whalewatch/searchsync/internal/store"
)

// base provides CRUD operations generic over the stored entity type.
// Entity repositories embed it and add domain queries plus the transform
// from stored record to search-index document.
type base[T any] struct {
	store *store.Manager
	name  string
	log   *log.Entry
}

func newBase[T any](mgr *store.Manager, collection string) base[T] {
	return base[T]{
		store: mgr,
		name:  collection,
		log:   log.WithField("collection", collection),
	}
}

// collection resolves the live collection handle, or store.ErrUnavailable.
func (b *base[T]) collection(ctx context.Context) (*mongo.Collection, error) {
	db := b.store.Database(ctx)
	if db == nil {
		return nil, store.ErrUnavailable
	}
	return db.Collection(b.name), nil
}

// The lower-case variants return errors and back both the total exported
// API and the sync fetch paths, which need to tell failure from empty.

func (b *base[T]) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*T, error) {
	coll, err := b.collection(ctx)
	if err != nil {
		return nil, err
	}

	var out T
	if err := coll.FindOne(ctx, filter, opts...).Decode(&out); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (b *base[T]) findMany(ctx context.Context, filter bson.M, skip, limit int64, sort bson.D) ([]T, error) {
	coll, err := b.collection(ctx)
	if err != nil {
		return nil, err
	}

	opts := options.Find()
	if skip > 0 {
		opts.SetSkip(skip)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}
	if len(sort) > 0 {
		opts.SetSort(sort)
	}

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []T
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (b *base[T]) aggregateInto(ctx context.Context, pipeline mongo.Pipeline, out any) error {
	coll, err := b.collection(ctx)
	if err != nil {
		return err
	}

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return cursor.All(ctx, out)
}

// FindOne returns the first document matching filter, or nil.
func (b *base[T]) FindOne(ctx context.Context, filter bson.M) *T {
	result, err := b.findOne(ctx, filter)
	if err != nil {
		b.log.WithError(err).Error("find_one failed")
		return nil
	}
	return result
}

// FindMany returns documents matching filter with pagination. Ordering is
// explicit via sort; with an empty sort the store-default order applies and
// callers must not rely on it.
func (b *base[T]) FindMany(ctx context.Context, filter bson.M, skip, limit int64, sort bson.D) []T {
	results, err := b.findMany(ctx, filter, skip, limit, sort)
	if err != nil {
		b.log.WithError(err).Error("find_many failed")
		return nil
	}
	return results
}

// Count returns the number of documents matching filter.
func (b *base[T]) Count(ctx context.Context, filter bson.M) int64 {
	coll, err := b.collection(ctx)
	if err != nil {
		b.log.WithError(err).Error("count failed")
		return 0
	}

	count, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		b.log.WithError(err).Error("count failed")
		return 0
	}
	return count
}

// InsertOne stores a document and returns the generated id, or "".
func (b *base[T]) InsertOne(ctx context.Context, doc T) string {
	coll, err := b.collection(ctx)
	if err != nil {
		b.log.WithError(err).Error("insert_one failed")
		return ""
	}

	result, err := coll.InsertOne(ctx, doc)
	if err != nil {
		b.log.WithError(err).Error("insert_one failed")
		return ""
	}
	return insertedID(result.InsertedID)
}

// InsertMany stores documents and returns the generated ids, best effort.
func (b *base[T]) InsertMany(ctx context.Context, docs []T) []string {
	if len(docs) == 0 {
		return nil
	}

	coll, err := b.collection(ctx)
	if err != nil {
		b.log.WithError(err).Error("insert_many failed")
		return nil
	}

	payload := make([]any, len(docs))
	for i := range docs {
		payload[i] = docs[i]
	}

	result, err := coll.InsertMany(ctx, payload)
	if err != nil {
		b.log.WithError(err).Error("insert_many failed")
		return nil
	}

	ids := make([]string, 0, len(result.InsertedIDs))
	for _, id := range result.InsertedIDs {
		ids = append(ids, insertedID(id))
	}
	return ids
}

// UpdateOne applies patch (wrapped in $set) to the first match and returns
// the updated document, or nil when nothing changed.
func (b *base[T]) UpdateOne(ctx context.Context, filter, patch bson.M, upsert bool) *T {
	coll, err := b.collection(ctx)
	if err != nil {
		b.log.WithError(err).Error("update_one failed")
		return nil
	}

	result, err := coll.UpdateOne(ctx, filter, bson.M{"$set": patch}, options.Update().SetUpsert(upsert))
	if err != nil {
		b.log.WithError(err).Error("update_one failed")
		return nil
	}
	if result.ModifiedCount == 0 && result.UpsertedID == nil {
		return nil
	}
	return b.FindOne(ctx, filter)
}

// UpdateMany applies patch to all matches and returns the modified count.
func (b *base[T]) UpdateMany(ctx context.Context, filter, patch bson.M) int64 {
	coll, err := b.collection(ctx)
	if err != nil {
		b.log.WithError(err).Error("update_many failed")
		return 0
	}

	result, err := coll.UpdateMany(ctx, filter, bson.M{"$set": patch})
	if err != nil {
		b.log.WithError(err).Error("update_many failed")
		return 0
	}
	return result.ModifiedCount
}

// DeleteOne removes the first match and reports whether anything was removed.
func (b *base[T]) DeleteOne(ctx context.Context, filter bson.M) bool {
	coll, err := b.collection(ctx)
	if err != nil {
		b.log.WithError(err).Error("delete_one failed")
		return false
	}

	result, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		b.log.WithError(err).Error("delete_one failed")
		return false
	}
	return result.DeletedCount > 0
}

// DeleteMany removes all matches and returns the deleted count.
func (b *base[T]) DeleteMany(ctx context.Context, filter bson.M) int64 {
	coll, err := b.collection(ctx)
	if err != nil {
		b.log.WithError(err).Error("delete_many failed")
		return 0
	}

	result, err := coll.DeleteMany(ctx, filter)
	if err != nil {
		b.log.WithError(err).Error("delete_many failed")
		return 0
	}
	return result.DeletedCount
}

// Aggregate runs a raw pipeline and returns the resulting documents.
func (b *base[T]) Aggregate(ctx context.Context, pipeline mongo.Pipeline) []bson.M {
	var results []bson.M
	if err := b.aggregateInto(ctx, pipeline, &results); err != nil {
		b.log.WithError(err).Error("aggregate failed")
		return nil
	}
	return results
}

func insertedID(id any) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	if s, ok := id.(string); ok {
		return s
	}
	return ""
}
