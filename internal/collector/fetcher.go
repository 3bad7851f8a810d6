package collector

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"neuralnews/internal/processor"
	"neuralnews/internal/storage"
)

// FetchResult is the outcome of one source's fetch pass. Err is diagnostic:
// the orchestrator logs it and keeps going, it never aborts a run.
type FetchResult struct {
	Added int
	Err   error
}

// FeedFetcher pulls one source's feed, normalizes each entry, and inserts
// the ones whose link has not been seen before.
type FeedFetcher struct {
	store      *storage.Store
	parser     *gofeed.Parser
	normalizer *processor.Normalizer
}

func NewFeedFetcher(store *storage.Store, timeout time.Duration, userAgent string) *FeedFetcher {
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: timeout}
	if userAgent != "" {
		p.UserAgent = userAgent
	}
	return &FeedFetcher{
		store:      store,
		parser:     p,
		normalizer: processor.NewNormalizer(),
	}
}

// FetchSource retrieves and ingests one source. Network, timeout, and parse
// failures are contained here: the result carries the error and a zero count,
// and the source's last-fetched stamp is left untouched. Entries are
// processed in feed order; an entry whose link already exists is skipped, so
// re-fetching an unchanged feed adds nothing.
func (f *FeedFetcher) FetchSource(ctx context.Context, src storage.Source) FetchResult {
	log.Printf("fetching %s ...", src.Name)

	feed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		log.Printf("fetch %s failed: %v", src.Name, err)
		return FetchResult{Err: fmt.Errorf("collector: fetch %s: %w", src.Name, err)}
	}

	added := 0
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		if item.Link != "" {
			exists, err := f.store.ExistsByURL(item.Link)
			if err != nil {
				// store fault: stop this source, keep what was inserted
				return FetchResult{Added: added, Err: err}
			}
			if exists {
				continue
			}
		}

		draft := f.normalizer.Normalize(&src, item)
		if _, err := f.store.CreateNews(&draft); err != nil {
			return FetchResult{Added: added, Err: err}
		}
		added++
	}

	if err := f.store.TouchLastFetched(src.ID); err != nil {
		log.Printf("touch last fetched for %s failed: %v", src.Name, err)
	}

	log.Printf("%s done, %d new items", src.Name, added)
	return FetchResult{Added: added}
}
