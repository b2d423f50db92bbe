package search

import log "github.com/sirupsen/logrus"

// IndexSettings is the attribute configuration applied to one index.
type IndexSettings struct {
	Searchable   []string
	Filterable   []string
	Sortable     []string
	RankingRules []string
	Synonyms     map[string][]string
}

// IndexDefinitions returns the attribute configuration for every index the
// sync pipeline writes to, keyed by index UID.
func IndexDefinitions() map[string]IndexSettings {
	return map[string]IndexSettings{
		"market_data_index": {
			Searchable: []string{"symbol", "interval", "source"},
			Filterable: []string{"symbol", "interval", "source", "timestamp"},
			Sortable:   []string{"timestamp", "close", "volume"},
		},
		"order_book_index": {
			Searchable: []string{"symbol", "source"},
			Filterable: []string{"symbol", "source", "timestamp", "bid_prices", "ask_prices"},
			Sortable:   []string{"timestamp"},
		},
		"liquidity_zones_index": {
			Searchable: []string{"symbol", "tags"},
			Filterable: []string{"symbol", "tags", "price_low", "price_high", "strength"},
			Sortable:   []string{"strength", "start_time"},
		},
		"trade_signals_index": {
			Searchable: []string{"symbol", "strategy", "signal_type", "tags"},
			Filterable: []string{"symbol", "strategy", "signal_type", "source", "timeframe", "timestamp", "confidence"},
			Sortable:   []string{"timestamp", "confidence", "price"},
		},
		"strategy_performance_index": {
			Searchable: []string{"strategy", "symbol"},
			Filterable: []string{"strategy", "symbol", "timeframe", "total_signals"},
			Sortable:   []string{"profit_factor", "win_rate", "total_signals"},
		},
		"whale_transactions_index": {
			Searchable: []string{"wallet_address", "transaction_hash", "token", "tags"},
			Filterable: []string{"network", "transaction_type", "token", "significant", "usd_value", "timestamp"},
			Sortable:   []string{"timestamp", "usd_value", "amount"},
		},
		"whale_wallets_index": {
			Searchable: []string{"address", "name", "tags"},
			Filterable: []string{"networks", "is_exchange", "is_institution", "watch_level", "tags"},
			Sortable:   []string{"total_value_usd", "last_active", "watch_level"},
		},
		"token_holdings_index": {
			Searchable: []string{"wallet_address", "token"},
			Filterable: []string{"token", "network", "usd_value"},
			Sortable:   []string{"amount", "usd_value", "last_updated"},
		},
	}
}

// SetupIndexes creates missing indexes and applies their attribute
// configuration. Failures are logged per index; the first error is
// returned after every index has been attempted.
func SetupIndexes(admin *Client) error {
	var firstErr error
	for uid, settings := range IndexDefinitions() {
		if err := admin.EnsureIndex(uid, "id"); err != nil {
			log.WithError(err).WithField("index", uid).Error("index creation failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := admin.ConfigureIndex(uid, settings); err != nil {
			log.WithError(err).WithField("index", uid).Error("index configuration failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
