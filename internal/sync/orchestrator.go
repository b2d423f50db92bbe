// Package sync coordinates mirroring the document store into the search
// engine. Each entity type syncs independently; one type's failure never
// blocks its siblings, and the per-type outcome map is the only result
// surface. Overlapping runs are not serialized: concurrent syncs both
// converge the index toward current store state, last writer wins per
// document.
package sync

import (
	"context"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/whalewatch/searchsync/internal/repository"
)

// EntityType names one syncable collection.
type EntityType string

const (
	TypeMarketData          EntityType = "market_data"
	TypeOrderBooks          EntityType = "order_books"
	TypeLiquidityZones      EntityType = "liquidity_zones"
	TypeTradeSignals        EntityType = "trade_signals"
	TypeStrategyPerformance EntityType = "strategy_performance"
	TypeWhaleTransactions   EntityType = "whale_transactions"
	TypeWhaleWallets        EntityType = "whale_wallets"
	TypeTokenHoldings       EntityType = "token_holdings"
)

// Source is an entity repository's view from the orchestrator's side:
// where the documents go and how to build them.
type Source interface {
	IndexUID() string
	BuildIndexDocuments(ctx context.Context) (docs []repository.IndexDocument, skipped int, err error)
}

// DocumentUpserter is the write half of the search client the
// orchestrator needs.
type DocumentUpserter interface {
	UpsertDocuments(uid string, docs []map[string]any) error
}

// StoreChecker reports whether the document store is reachable.
// *store.Manager satisfies it.
type StoreChecker interface {
	IsConnected() bool
}

// Outcome is one entity type's sync result: either a success count or a
// structured error, never both.
type Outcome struct {
	Synced  int    `json:"synced"`
	Skipped int    `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is the aggregate of one sync run.
type Result struct {
	Success bool `json:"success"`

	// Error is set for run-level failures (store down, invalid request).
	Error string `json:"error,omitempty"`

	// ValidTypes accompanies a validation failure.
	ValidTypes []string `json:"valid_types,omitempty"`

	// Synced maps entity type to its individual outcome.
	Synced map[EntityType]Outcome `json:"synced_data"`
}

// Orchestrator pulls records per entity type, transforms them, and pushes
// them through the admin search client.
type Orchestrator struct {
	store   StoreChecker
	writer  DocumentUpserter
	sources map[EntityType]Source
	limiter *rate.Limiter
}

// NewOrchestrator wires the orchestrator to its repositories. All eight
// entity types must be registered; dependencies are constructed once at
// startup, not lazily.
func NewOrchestrator(mgr StoreChecker, writer DocumentUpserter, upsertsPerSecond float64, sources map[EntityType]Source) *Orchestrator {
	if upsertsPerSecond <= 0 {
		upsertsPerSecond = 4
	}
	return &Orchestrator{
		store:   mgr,
		writer:  writer,
		sources: sources,
		limiter: rate.NewLimiter(rate.Limit(upsertsPerSecond), 1),
	}
}

// ValidTypes returns the accepted entity type tokens, sorted.
func (o *Orchestrator) ValidTypes() []string {
	names := make([]string, 0, len(o.sources))
	for t := range o.sources {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

// Validate reports the unknown tokens in the requested set. Runs before
// any I/O so a malformed request never touches the store.
func (o *Orchestrator) Validate(requested []string) []string {
	var invalid []string
	for _, name := range requested {
		if _, ok := o.sources[EntityType(name)]; !ok {
			invalid = append(invalid, name)
		}
	}
	return invalid
}

// SyncAll mirrors every entity type.
func (o *Orchestrator) SyncAll(ctx context.Context) Result {
	return o.run(ctx, o.allTypes())
}

// SyncSubset mirrors only the requested entity types. Unknown tokens are
// rejected up front with the valid set.
func (o *Orchestrator) SyncSubset(ctx context.Context, requested []string) Result {
	if invalid := o.Validate(requested); len(invalid) > 0 {
		return Result{
			Success:    false,
			Error:      fmt.Sprintf("invalid data types: %s", strings.Join(invalid, ", ")),
			ValidTypes: o.ValidTypes(),
			Synced:     map[EntityType]Outcome{},
		}
	}

	types := make([]EntityType, 0, len(requested))
	for _, name := range requested {
		types = append(types, EntityType(name))
	}
	return o.run(ctx, types)
}

func (o *Orchestrator) allTypes() []EntityType {
	types := make([]EntityType, 0, len(o.sources))
	for _, name := range o.ValidTypes() {
		types = append(types, EntityType(name))
	}
	return types
}

func (o *Orchestrator) run(ctx context.Context, types []EntityType) Result {
	if !o.store.IsConnected() {
		log.Warn("cannot sync: document store not connected")
		return Result{
			Success: false,
			Error:   "document store not connected",
			Synced:  map[EntityType]Outcome{},
		}
	}

	result := Result{
		Success: true,
		Synced:  make(map[EntityType]Outcome, len(types)),
	}

	for _, entityType := range types {
		result.Synced[entityType] = o.syncOne(ctx, entityType, o.sources[entityType])
	}
	return result
}

// syncOne fetches, transforms, and upserts one entity type. Any failure
// is folded into the outcome; nothing escapes to the sibling types.
func (o *Orchestrator) syncOne(ctx context.Context, entityType EntityType, src Source) Outcome {
	logger := log.WithField("entity_type", entityType)

	docs, skipped, err := src.BuildIndexDocuments(ctx)
	if err != nil {
		logger.WithError(err).Error("sync fetch failed")
		return Outcome{Error: err.Error()}
	}
	if skipped > 0 {
		logger.WithField("skipped", skipped).Warn("records skipped during transform")
	}
	if len(docs) == 0 {
		logger.Info("nothing to sync")
		return Outcome{Skipped: skipped}
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return Outcome{Error: err.Error()}
	}
	if err := o.writer.UpsertDocuments(src.IndexUID(), docs); err != nil {
		logger.WithError(err).Error("index write failed")
		return Outcome{Error: err.Error()}
	}

	logger.WithField("count", len(docs)).Info("synced documents")
	return Outcome{Synced: len(docs), Skipped: skipped}
}
