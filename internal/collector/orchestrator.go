package collector

import (
	"context"
	"log"
	"time"

	"neuralnews/internal/storage"
)

// RunSummary aggregates one full pass over the active sources.
type RunSummary struct {
	Total   int `json:"total"`
	Sources int `json:"sources"`
}

// defaultPause is the delay between consecutive sources, a courtesy
// rate limit toward upstream feed servers.
const defaultPause = 1 * time.Second

// Orchestrator walks all active sources strictly sequentially. The
// sequential order is load-bearing: the dedup check and the insert are two
// separate store calls, so fetches must never overlap.
type Orchestrator struct {
	store   *storage.Store
	fetcher *FeedFetcher
	pause   time.Duration
}

func NewOrchestrator(store *storage.Store, fetcher *FeedFetcher) *Orchestrator {
	return &Orchestrator{store: store, fetcher: fetcher, pause: defaultPause}
}

// SetPause overrides the inter-source delay; tests inject zero.
func (o *Orchestrator) SetPause(d time.Duration) {
	o.pause = d
}

// FetchAll runs one orchestration pass. A failing source contributes zero
// and never stops the remaining sources; the error return is reserved for
// not being able to list the sources at all.
func (o *Orchestrator) FetchAll(ctx context.Context) (RunSummary, error) {
	log.Println("fetching all sources...")

	sources, err := o.store.ListActiveSources()
	if err != nil {
		return RunSummary{}, err
	}
	if len(sources) == 0 {
		log.Println("no active sources configured")
		return RunSummary{}, nil
	}

	total := 0
	for _, src := range sources {
		res := o.fetcher.FetchSource(ctx, src)
		total += res.Added
		if res.Err != nil {
			log.Printf("source %s: %v", src.Name, res.Err)
		}

		if o.pause > 0 {
			select {
			case <-time.After(o.pause):
			case <-ctx.Done():
				log.Printf("fetch run cancelled: %v", ctx.Err())
				return RunSummary{Total: total, Sources: len(sources)}, ctx.Err()
			}
		}
	}

	log.Printf("fetch run done: %d new items from %d sources", total, len(sources))
	return RunSummary{Total: total, Sources: len(sources)}, nil
}
