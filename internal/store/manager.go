// Package store owns the lifecycle of the MongoDB connection. Callers get
// either a live database handle or a clear "unavailable" signal; connectivity
// faults never escape as panics or unhandled errors.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/whalewatch/searchsync/configs"
)

// ErrUnavailable is returned when the document store cannot be reached.
// It is a first-class value: repositories degrade to empty results on it.
var ErrUnavailable = errors.New("document store unavailable")

// Manager holds the long-lived MongoDB client shared by all repositories.
// Construct one at startup and inject it; there is no package-level instance.
type Manager struct {
	cfg configs.MongoConfig

	mu        sync.Mutex
	client    *mongo.Client
	connected bool

	// everConnected distinguishes a first connect from a restored one in
	// status reporting.
	everConnected bool
}

// NewManager returns a manager that is not yet connected. Call Connect, or
// let Database connect lazily on first use.
func NewManager(cfg configs.MongoConfig) *Manager {
	return &Manager{cfg: cfg}
}

// Connect establishes the client connection with a bounded timeout and a
// couple of quick retries. A failed attempt logs and returns ErrUnavailable
// rather than propagating driver errors.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectLocked(ctx)
}

func (m *Manager) connectLocked(ctx context.Context) error {
	if m.connected && m.client != nil {
		return nil
	}

	timeout := time.Duration(m.cfg.ConnectTimeoutSeconds) * time.Second

	attempt := func() error {
		dialCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		client, err := mongo.Connect(dialCtx, options.Client().
			ApplyURI(m.cfg.URI).
			SetServerSelectionTimeout(timeout))
		if err != nil {
			return err
		}
		if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			return err
		}
		m.swapClientLocked(client)
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2)
	if err := backoff.Retry(attempt, backoff.WithContext(bo, ctx)); err != nil {
		log.WithError(err).WithField("uri", m.cfg.URI).Warn("mongodb connection failed")
		m.connected = false
		return ErrUnavailable
	}

	m.connected = true
	m.everConnected = true
	log.WithField("database", m.cfg.Database).Info("connected to mongodb")
	return nil
}

// swapClientLocked installs a freshly dialed client, disconnecting the
// previous one so reconnect cycles do not leak its connection pool.
func (m *Manager) swapClientLocked(client *mongo.Client) {
	if m.client != nil {
		if err := m.client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("failed to close stale mongodb client")
		}
	}
	m.client = client
}

// hasConnectedBefore reports whether a session was ever established.
func (m *Manager) hasConnectedBefore() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.everConnected
}

// IsConnected reports whether the manager believes the connection is live.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected && m.client != nil
}

// Database returns a handle to the configured database, attempting a lazy
// reconnect if the manager believes itself disconnected. Returns nil when
// the store is unavailable. The database name is the fixed configuration
// value; it is deliberately never parsed out of the connection URI.
func (m *Manager) Database(ctx context.Context) *mongo.Database {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected || m.client == nil {
		if err := m.connectLocked(ctx); err != nil {
			return nil
		}
	}
	return m.client.Database(m.cfg.Database)
}

// Client exposes the raw client for diagnostics (ping, server info).
// Returns nil when not connected.
func (m *Manager) Client() *mongo.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil
	}
	return m.client
}

// MarkDisconnected flags the connection as lost so the next Database call
// attempts a reconnect.
func (m *Manager) MarkDisconnected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
}

// Close disconnects the client. Safe to call when never connected.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return nil
	}
	err := m.client.Disconnect(ctx)
	m.client = nil
	m.connected = false
	return err
}
