package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whalewatch/searchsync/configs"
)

func testMeiliConfig() configs.MeilisearchConfig {
	return configs.MeilisearchConfig{
		Host:                  "http://localhost:7700",
		MasterKey:             "master",
		SearchKey:             "restricted",
		KeyDescription:        "searchsync search-only key",
		RequestTimeoutSeconds: 1,
	}
}

func TestClientScopes(t *testing.T) {
	admin := NewAdminClient(testMeiliConfig())
	assert.Equal(t, ScopeAdmin, admin.Scope())

	restricted, err := NewRestrictedClient(testMeiliConfig())
	require.NoError(t, err)
	assert.Equal(t, ScopeRestricted, restricted.Scope())
}

func TestRestrictedClientRequiresKey(t *testing.T) {
	cfg := testMeiliConfig()
	cfg.SearchKey = ""

	_, err := NewRestrictedClient(cfg)
	assert.ErrorIs(t, err, ErrNoCredential)

	_, err = RestrictedClientWithKey(cfg, "")
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestRestrictedClientCannotWrite(t *testing.T) {
	restricted, err := RestrictedClientWithKey(testMeiliConfig(), "some-key")
	require.NoError(t, err)

	assert.ErrorIs(t, restricted.EnsureIndex("market_data_index", "id"), ErrReadOnlyScope)
	assert.ErrorIs(t, restricted.ConfigureIndex("market_data_index", IndexSettings{}), ErrReadOnlyScope)
	assert.ErrorIs(t, restricted.UpsertDocuments("market_data_index", []map[string]any{{"id": "1"}}), ErrReadOnlyScope)
}

func TestUpsertNoDocumentsIsNoOp(t *testing.T) {
	admin := NewAdminClient(testMeiliConfig())
	// No request is issued for an empty batch, so no engine is needed.
	assert.NoError(t, admin.UpsertDocuments("market_data_index", nil))
}

func TestIndexDefinitionsCoverEveryIndex(t *testing.T) {
	defs := IndexDefinitions()

	expected := []string{
		"market_data_index", "order_book_index", "liquidity_zones_index",
		"trade_signals_index", "strategy_performance_index",
		"whale_transactions_index", "whale_wallets_index", "token_holdings_index",
	}
	require.Len(t, defs, len(expected))
	for _, uid := range expected {
		settings, ok := defs[uid]
		require.True(t, ok, "missing settings for %s", uid)
		assert.NotEmpty(t, settings.Searchable, "%s needs searchable attributes", uid)
		assert.NotEmpty(t, settings.Filterable, "%s needs filterable attributes", uid)
		assert.NotEmpty(t, settings.Sortable, "%s needs sortable attributes", uid)
	}
}
