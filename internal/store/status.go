package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Status describes the store connection for the diagnostics endpoint.
type Status struct {
	// Status is one of "connected", "reconnected", "disconnected", "error".
	Status string `json:"status"`

	Database      string `json:"database"`
	ServerVersion string `json:"server_version,omitempty"`
	Collections   int64  `json:"collections,omitempty"`
	Documents     int64  `json:"documents,omitempty"`

	// Message carries the failure detail for disconnected/error states.
	Message string `json:"message,omitempty"`
}

// Status pings the server and gathers database statistics. If the
// connection looks lost it attempts one reconnect; "reconnected" is
// reserved for a lost-then-restored session, a first-time establishment
// reports "connected". Errors are folded into the returned value; this
// never fails with an error of its own.
func (m *Manager) Status(ctx context.Context) Status {
	st := Status{Database: m.cfg.Database}

	if !m.IsConnected() {
		wasLost := m.hasConnectedBefore()
		if err := m.Connect(ctx); err != nil {
			st.Status = "disconnected"
			st.Message = err.Error()
			return st
		}
		if wasLost {
			st.Status = "reconnected"
		} else {
			st.Status = "connected"
		}
		return m.fillStats(ctx, st)
	}

	client := m.Client()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		m.MarkDisconnected()
		if rerr := m.Connect(ctx); rerr != nil {
			st.Status = "error"
			st.Message = err.Error()
			return st
		}
		st.Status = "reconnected"
		return m.fillStats(ctx, st)
	}

	st.Status = "connected"
	return m.fillStats(ctx, st)
}

func (m *Manager) fillStats(ctx context.Context, st Status) Status {
	client := m.Client()
	if client == nil {
		return st
	}

	var build struct {
		Version string `bson:"version"`
	}
	if err := client.Database("admin").
		RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).
		Decode(&build); err == nil {
		st.ServerVersion = build.Version
	}

	var stats struct {
		Collections int64 `bson:"collections"`
		Objects     int64 `bson:"objects"`
	}
	if err := client.Database(m.cfg.Database).
		RunCommand(ctx, bson.D{{Key: "dbStats", Value: 1}}).
		Decode(&stats); err == nil {
		st.Collections = stats.Collections
		st.Documents = stats.Objects
	}

	return st
}
