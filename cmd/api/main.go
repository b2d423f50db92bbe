package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/whalewatch/searchsync/configs"
	"github.com/whalewatch/searchsync/internal/handler"
	"github.com/whalewatch/searchsync/internal/repository"
	"github.com/whalewatch/searchsync/internal/router"
	"github.com/whalewatch/searchsync/internal/search"
	"github.com/whalewatch/searchsync/internal/store"
	syncsvc "github.com/whalewatch/searchsync/internal/sync"
)

func main() {
	cfg := configs.AppLoad()

	// Store connection is constructed here and injected everywhere; a
	// failed first connect is not fatal, repositories reconnect lazily.
	mgr := store.NewManager(cfg.Mongo)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := mgr.Connect(ctx); err != nil {
		log.WithError(err).Warn("starting without a store connection")
	}
	cancel()
	defer mgr.Close(context.Background())

	admin := search.NewAdminClient(cfg.Meilisearch)
	if err := search.SetupIndexes(admin); err != nil {
		log.WithError(err).Warn("search index setup incomplete")
	}

	keys := search.NewKeyManager(admin, cfg.Meilisearch.KeyDescription, cfg.Meilisearch.SearchKey,
		func(key string) error {
			return configs.SaveSearchKey(cfg.EnvFile, key)
		})

	var restricted atomic.Pointer[search.Client]
	if key, err := keys.Ensure(); err != nil {
		log.WithError(err).Warn("search key provisioning failed; read paths blocked")
	} else if client, err := search.RestrictedClientWithKey(cfg.Meilisearch, key); err == nil {
		restricted.Store(client)
	}

	marketData := repository.NewMarketDataRepository(mgr)
	orderBooks := repository.NewOrderBookRepository(mgr)
	liquidityZones := repository.NewLiquidityZoneRepository(mgr)
	tradeSignals := repository.NewTradeSignalRepository(mgr)
	strategyPerf := repository.NewStrategyPerformanceRepository(mgr)
	whaleTxs := repository.NewWhaleTransactionRepository(mgr)
	whaleWallets := repository.NewWhaleWalletRepository(mgr)
	tokenHoldings := repository.NewTokenHoldingRepository(mgr)

	orchestrator := syncsvc.NewOrchestrator(mgr, admin, cfg.Sync.UpsertsPerSecond,
		map[syncsvc.EntityType]syncsvc.Source{
			syncsvc.TypeMarketData:          marketData,
			syncsvc.TypeOrderBooks:          orderBooks,
			syncsvc.TypeLiquidityZones:      liquidityZones,
			syncsvc.TypeTradeSignals:        tradeSignals,
			syncsvc.TypeStrategyPerformance: strategyPerf,
			syncsvc.TypeWhaleTransactions:   whaleTxs,
			syncsvc.TypeWhaleWallets:        whaleWallets,
			syncsvc.TypeTokenHoldings:       tokenHoldings,
		})

	routerConfig := &router.Config{
		SyncHandler:  handler.NewSyncHandler(orchestrator),
		StoreHandler: handler.NewStoreHandler(mgr),
		SearchHandler: handler.NewSearchHandler(admin, keys, func() *search.Client {
			return restricted.Load()
		}),
	}

	r := router.NewRouter(routerConfig)
	if err := r.Run(fmt.Sprintf(":%s", cfg.ServerPort)); err != nil {
		log.WithError(err).Fatal("http server exited")
	}
}
