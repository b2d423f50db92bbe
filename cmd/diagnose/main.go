// Command diagnose checks connectivity to the document store and the
// search engine, verifies the restricted search key, and optionally cleans
// up stale duplicate keys. Intended for operators; the running service
// exposes the same checks over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/whalewatch/searchsync/configs"
	"github.com/whalewatch/searchsync/internal/search"
	"github.com/whalewatch/searchsync/internal/store"
)

func main() {
	cleanKeys := flag.Bool("clean-keys", false, "Delete stale duplicate search keys and exit")
	flag.Parse()

	cfg := configs.AppLoad()
	ok := true

	fmt.Println("=== Document store ===")
	if !checkStore(cfg) {
		ok = false
	}

	fmt.Println("\n=== Search engine ===")
	if !checkSearch(cfg, *cleanKeys) {
		ok = false
	}

	if !ok {
		os.Exit(1)
	}
}

func checkStore(cfg *configs.AppConfig) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	mgr := store.NewManager(cfg.Mongo)
	defer mgr.Close(context.Background())

	st := mgr.Status(ctx)
	fmt.Printf("status:   %s\n", st.Status)
	fmt.Printf("database: %s\n", st.Database)
	if st.ServerVersion != "" {
		fmt.Printf("server:   %s\n", st.ServerVersion)
	}
	if st.Status == "connected" || st.Status == "reconnected" {
		fmt.Printf("collections: %d, documents: %d\n", st.Collections, st.Documents)
		return true
	}

	fmt.Printf("problem:  %s\n", st.Message)
	fmt.Println("check that MongoDB is running and MONGODB_URI is reachable")
	return false
}

func checkSearch(cfg *configs.AppConfig, cleanKeys bool) bool {
	admin := search.NewAdminClient(cfg.Meilisearch)

	health, err := admin.Health()
	if err != nil {
		fmt.Printf("problem:  %v\n", err)
		fmt.Println("check that Meilisearch is running and MEILISEARCH_HOST / MEILISEARCH_MASTER_KEY are set")
		return false
	}
	fmt.Printf("health:   %s\n", health)

	indexes, err := admin.ListIndexes()
	if err != nil {
		fmt.Printf("problem:  listing indexes failed: %v\n", err)
		return false
	}
	fmt.Printf("indexes:  %d\n", len(indexes))
	for _, idx := range indexes {
		fmt.Printf("  - %s (primary key: %s)\n", idx.UID, idx.PrimaryKey)
	}

	keys := search.NewKeyManager(admin, cfg.Meilisearch.KeyDescription, cfg.Meilisearch.SearchKey,
		func(key string) error {
			return configs.SaveSearchKey(cfg.EnvFile, key)
		})

	key, err := keys.Ensure()
	if err != nil {
		fmt.Printf("problem:  search key provisioning failed: %v\n", err)
		return false
	}
	fmt.Printf("search key: %s... (%s)\n", mask(key), keys.State())

	restricted, err := search.RestrictedClientWithKey(cfg.Meilisearch, key)
	if err != nil {
		fmt.Printf("problem:  %v\n", err)
		return false
	}

	diagnostics := keys.Diagnose(restricted)
	fmt.Printf("key checks: exists=%t registered=%t working=%t\n",
		diagnostics.SearchKeyExists, diagnostics.SearchKeyRegistered, diagnostics.SearchKeyWorking)
	if hint := diagnostics.ActionItem(); hint != "" {
		fmt.Printf("action:   %s\n", hint)
		return false
	}

	if cleanKeys {
		deleted, err := keys.CleanStaleKeys()
		if err != nil {
			fmt.Printf("problem:  stale key cleanup failed: %v\n", err)
			return false
		}
		fmt.Printf("stale keys deleted: %d\n", deleted)
	}
	return true
}

func mask(key string) string {
	if len(key) <= 8 {
		return "********"
	}
	return key[:8]
}
