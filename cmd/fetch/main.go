package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"neuralnews/internal/collector"
	"neuralnews/internal/config"
	"neuralnews/internal/storage"
)

// One-shot entry point: runs a single fetch pass over all active sources
// and exits. Useful for cron-less deployments and manual backfills.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	store, err := storage.NewStore(cfg.DBPath, cfg.RedisAddr, cfg.Location())
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	collector.SeedDefaultSources(store, cfg.DefaultSourceCount)

	fetcher := collector.NewFeedFetcher(store, cfg.FeedTimeout, cfg.FeedUserAgent)
	orch := collector.NewOrchestrator(store, fetcher)

	sum, err := orch.FetchAll(context.Background())
	if err != nil {
		log.Fatalf("fetch run failed: %v", err)
	}
	log.Printf("done: %d new items from %d sources", sum.Total, sum.Sources)
}
