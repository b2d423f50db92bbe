package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/whalewatch/searchsync/configs"
)

func testMongoConfig() configs.MongoConfig {
	return configs.MongoConfig{
		URI:                   "mongodb://localhost:27017",
		Database:              "whalewatch_test",
		ConnectTimeoutSeconds: 1,
	}
}

func TestManagerStartsDisconnected(t *testing.T) {
	m := NewManager(testMongoConfig())

	assert.False(t, m.IsConnected())
	assert.Nil(t, m.Client())
}

func TestConnectCanceledContext(t *testing.T) {
	m := NewManager(testMongoConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Connect(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, m.IsConnected())
}

func TestCloseWithoutConnect(t *testing.T) {
	m := NewManager(testMongoConfig())
	assert.NoError(t, m.Close(context.Background()))
}

func TestMarkDisconnected(t *testing.T) {
	m := NewManager(testMongoConfig())
	m.MarkDisconnected()
	assert.False(t, m.IsConnected())
}

// dialClient builds a client without contacting a server; the driver only
// connects lazily on first operation.
func dialClient(t *testing.T) *mongo.Client {
	t.Helper()
	client, err := mongo.Connect(context.Background(), options.Client().
		ApplyURI("mongodb://localhost:27017").
		SetServerSelectionTimeout(100*time.Millisecond))
	require.NoError(t, err)
	return client
}

func TestSwapClientClosesStaleClient(t *testing.T) {
	m := NewManager(testMongoConfig())

	stale := dialClient(t)
	fresh := dialClient(t)
	t.Cleanup(func() { _ = fresh.Disconnect(context.Background()) })

	m.mu.Lock()
	m.client = stale
	m.swapClientLocked(fresh)
	current := m.client
	m.mu.Unlock()

	assert.Same(t, fresh, current)
	err := stale.Ping(context.Background(), readpref.Primary())
	assert.ErrorIs(t, err, mongo.ErrClientDisconnected,
		"the replaced client must be disconnected, not leaked")
}

func TestStatusReportsDisconnectedBeforeFirstConnect(t *testing.T) {
	cfg := testMongoConfig()
	cfg.URI = "mongodb://localhost:1" // nothing listens here
	m := NewManager(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := m.Status(ctx)
	assert.Equal(t, "disconnected", st.Status,
		"a manager that never connected must not claim a restored session")
	assert.False(t, m.hasConnectedBefore())
}
