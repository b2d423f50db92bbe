package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IndexDocument is a flat document ready for upsert into a search index.
// Identifiers are strings, timestamps RFC 3339, enums their string form.
type IndexDocument = map[string]any

// latestPerGroupPipeline keeps only the most recent record per group. The
// grouping must run inside the store's aggregation engine so only one
// record per group crosses the wire.
func latestPerGroupPipeline(groupKey any, limit int64) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "timestamp", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: groupKey},
			{Key: "doc", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$doc"}}}},
		{{Key: "$limit", Value: limit}},
	}
}

// latestPerGroup runs the pipeline and decodes into entity values.
func (b *base[T]) latestPerGroup(ctx context.Context, groupKey any, limit int64) ([]T, error) {
	var results []T
	if err := b.aggregateInto(ctx, latestPerGroupPipeline(groupKey, limit), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// isoTime renders a timestamp in the canonical textual form used by all
// index documents.
func isoTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func tsDesc() bson.D {
	return bson.D{{Key: "timestamp", Value: -1}}
}

func findOneSortedBy(sort bson.D) *options.FindOneOptions {
	return options.FindOne().SetSort(sort)
}

func timeRangeFilter(filter bson.M, start, end *time.Time) bson.M {
	if start == nil && end == nil {
		return filter
	}
	window := bson.M{}
	if start != nil {
		window["$gte"] = *start
	}
	if end != nil {
		window["$lte"] = *end
	}
	filter["timestamp"] = window
	return filter
}
