package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestLatestPerGroupPipelineStages(t *testing.T) {
	pipeline := latestPerGroupPipeline("$symbol", 500)
	require.Len(t, pipeline, 4)

	sort := pipeline[0]
	assert.Equal(t, "$sort", sort[0].Key)
	assert.Equal(t, bson.D{{Key: "timestamp", Value: -1}}, sort[0].Value,
		"newest record must sort first so $first picks it")

	group := pipeline[1]
	assert.Equal(t, "$group", group[0].Key)
	groupSpec, ok := group[0].Value.(bson.D)
	require.True(t, ok)
	assert.Equal(t, "_id", groupSpec[0].Key)
	assert.Equal(t, "$symbol", groupSpec[0].Value)
	assert.Equal(t, bson.D{{Key: "$first", Value: "$$ROOT"}}, groupSpec[1].Value)

	assert.Equal(t, "$replaceRoot", pipeline[2][0].Key)

	limit := pipeline[3]
	assert.Equal(t, "$limit", limit[0].Key)
	assert.Equal(t, int64(500), limit[0].Value)
}

func TestLatestPerGroupPipelineCompositeKey(t *testing.T) {
	key := bson.D{{Key: "symbol", Value: "$symbol"}, {Key: "interval", Value: "$interval"}}
	pipeline := latestPerGroupPipeline(key, 1000)

	groupSpec := pipeline[1][0].Value.(bson.D)
	assert.Equal(t, key, groupSpec[0].Value)
}

func TestIsoTime(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	ts := time.Date(2026, 3, 14, 15, 9, 26, 0, loc)

	assert.Equal(t, "2026-03-14T12:09:26Z", isoTime(ts), "timestamps normalize to UTC")
}

func TestTimeRangeFilter(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		start *time.Time
		end   *time.Time
		want  bson.M
	}{
		{"no bounds", nil, nil, bson.M{"symbol": "BTCUSDT"}},
		{"start only", &start, nil, bson.M{"symbol": "BTCUSDT", "timestamp": bson.M{"$gte": start}}},
		{"end only", nil, &end, bson.M{"symbol": "BTCUSDT", "timestamp": bson.M{"$lte": end}}},
		{"both bounds", &start, &end, bson.M{"symbol": "BTCUSDT", "timestamp": bson.M{"$gte": start, "$lte": end}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timeRangeFilter(bson.M{"symbol": "BTCUSDT"}, tt.start, tt.end)
			assert.Equal(t, tt.want, got)
		})
	}
}
