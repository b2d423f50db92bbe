// Package search wraps the Meilisearch SDK behind two credential scopes: an
// administrative client used for index configuration and document upserts,
// and a restricted client used for every externally exposed read path. The
// restricted client can never write, and a missing restricted credential
// blocks the read path instead of silently elevating to the admin key.
package search

import (
	"errors"
	"fmt"
	"time"

	"github.com/meilisearch/meilisearch-go"
	log "github.com/sirupsen/logrus"

	"github.com/whalewatch/searchsync/configs"
)

// Scope labels what a client is allowed to do.
type Scope string

const (
	// ScopeAdmin has full permissions; for configuration and upserts only.
	ScopeAdmin Scope = "admin"

	// ScopeRestricted has search/read permissions only.
	ScopeRestricted Scope = "restricted"
)

var (
	// ErrReadOnlyScope is returned when a write is attempted through the
	// restricted client.
	ErrReadOnlyScope = errors.New("operation requires the admin scope")

	// ErrNoCredential is returned when the restricted credential is not
	// configured. Reads block rather than falling back to the admin key.
	ErrNoCredential = errors.New("no restricted search key configured")
)

// IndexDescriptor identifies one index on the engine.
type IndexDescriptor struct {
	UID        string `json:"uid"`
	PrimaryKey string `json:"primary_key,omitempty"`
}

// SearchParams narrows a query.
type SearchParams struct {
	Filter string
	Sort   []string
	Limit  int64
	Offset int64
}

// ResultPage is one page of search hits.
type ResultPage struct {
	Hits               []any `json:"hits"`
	EstimatedTotalHits int64 `json:"estimated_total_hits"`
	ProcessingTimeMs   int64 `json:"processing_time_ms"`
	Limit              int64 `json:"limit"`
	Offset             int64 `json:"offset"`
}

// Client is a thin typed wrapper around the Meilisearch HTTP API bound to
// one credential scope.
type Client struct {
	ms    *meilisearch.Client
	scope Scope
}

// NewAdminClient builds the administrative client from the master key.
func NewAdminClient(cfg configs.MeilisearchConfig) *Client {
	return &Client{
		ms:    newMeili(cfg, cfg.MasterKey),
		scope: ScopeAdmin,
	}
}

// NewRestrictedClient builds the read-only client from the search key.
// A missing key is an error: read paths stay blocked until the key
// manager provisions one.
func NewRestrictedClient(cfg configs.MeilisearchConfig) (*Client, error) {
	if cfg.SearchKey == "" {
		log.Warn("restricted search key not configured; read paths blocked until one is provisioned")
		return nil, ErrNoCredential
	}
	return &Client{
		ms:    newMeili(cfg, cfg.SearchKey),
		scope: ScopeRestricted,
	}, nil
}

// RestrictedClientWithKey builds a read-only client around a specific key
// value, used after the key manager provisions or rotates the credential.
func RestrictedClientWithKey(cfg configs.MeilisearchConfig, key string) (*Client, error) {
	if key == "" {
		return nil, ErrNoCredential
	}
	return &Client{
		ms:    newMeili(cfg, key),
		scope: ScopeRestricted,
	}, nil
}

func newMeili(cfg configs.MeilisearchConfig, apiKey string) *meilisearch.Client {
	return meilisearch.NewClient(meilisearch.ClientConfig{
		Host:    cfg.Host,
		APIKey:  apiKey,
		Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
	})
}

// Scope reports the client's credential scope.
func (c *Client) Scope() Scope { return c.scope }

// Health reports the engine's own health status string.
func (c *Client) Health() (string, error) {
	health, err := c.ms.Health()
	if err != nil {
		return "", fmt.Errorf("meilisearch health: %w", err)
	}
	return health.Status, nil
}

// ListIndexes returns descriptors for every index visible to this scope.
func (c *Client) ListIndexes() ([]IndexDescriptor, error) {
	results, err := c.ms.GetIndexes(&meilisearch.IndexesQuery{Limit: 100})
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}

	descriptors := make([]IndexDescriptor, 0, len(results.Results))
	for _, idx := range results.Results {
		descriptors = append(descriptors, IndexDescriptor{
			UID:        idx.UID,
			PrimaryKey: idx.PrimaryKey,
		})
	}
	return descriptors, nil
}

// EnsureIndex creates the index if it does not exist. Existing indexes are
// left untouched; the call is idempotent.
func (c *Client) EnsureIndex(uid, primaryKey string) error {
	if c.scope != ScopeAdmin {
		return ErrReadOnlyScope
	}
	if _, err := c.ms.GetIndex(uid); err == nil {
		return nil
	}
	if _, err := c.ms.CreateIndex(&meilisearch.IndexConfig{Uid: uid, PrimaryKey: primaryKey}); err != nil {
		return fmt.Errorf("create index %s: %w", uid, err)
	}
	return nil
}

// ConfigureIndex applies the searchable/filterable/sortable attribute
// configuration to an index.
func (c *Client) ConfigureIndex(uid string, settings IndexSettings) error {
	if c.scope != ScopeAdmin {
		return ErrReadOnlyScope
	}

	req := &meilisearch.Settings{
		SearchableAttributes: settings.Searchable,
		FilterableAttributes: settings.Filterable,
		SortableAttributes:   settings.Sortable,
	}
	if len(settings.RankingRules) > 0 {
		req.RankingRules = settings.RankingRules
	}
	if len(settings.Synonyms) > 0 {
		req.Synonyms = settings.Synonyms
	}

	if _, err := c.ms.Index(uid).UpdateSettings(req); err != nil {
		return fmt.Errorf("configure index %s: %w", uid, err)
	}
	return nil
}

// UpsertDocuments adds or replaces documents in an index. Admin scope only:
// the sync pipeline is the single write path into the engine.
func (c *Client) UpsertDocuments(uid string, docs []map[string]any) error {
	if c.scope != ScopeAdmin {
		return ErrReadOnlyScope
	}
	if len(docs) == 0 {
		return nil
	}
	if _, err := c.ms.Index(uid).UpdateDocuments(docs); err != nil {
		return fmt.Errorf("upsert %d documents into %s: %w", len(docs), uid, err)
	}
	return nil
}

// Search queries one index.
func (c *Client) Search(uid, query string, params SearchParams) (*ResultPage, error) {
	req := &meilisearch.SearchRequest{
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	if params.Filter != "" {
		req.Filter = params.Filter
	}
	if len(params.Sort) > 0 {
		req.Sort = params.Sort
	}

	resp, err := c.ms.Index(uid).Search(query, req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", uid, err)
	}

	return &ResultPage{
		Hits:               resp.Hits,
		EstimatedTotalHits: resp.EstimatedTotalHits,
		ProcessingTimeMs:   resp.ProcessingTimeMs,
		Limit:              resp.Limit,
		Offset:             resp.Offset,
	}, nil
}
