package collector

import (
	"context"
	"testing"
	"time"

	"neuralnews/internal/storage"
)

func TestFetchAllNoActiveSources(t *testing.T) {
	store := newTestStore(t)
	o := NewOrchestrator(store, NewFeedFetcher(store, 10*time.Second, ""))
	o.SetPause(0)

	sum, err := o.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll error: %v", err)
	}
	if sum.Total != 0 || sum.Sources != 0 {
		t.Fatalf("FetchAll = %+v, want {0 0}", sum)
	}
}

func TestFetchAllSingleSource(t *testing.T) {
	store := newTestStore(t)
	srv := newFeedServer(t, testFeedXML)
	addSource(t, store, "Test Feed", srv.URL)

	o := NewOrchestrator(store, NewFeedFetcher(store, 10*time.Second, ""))
	o.SetPause(0)

	sum, err := o.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll error: %v", err)
	}
	if sum.Total != 3 || sum.Sources != 1 {
		t.Fatalf("FetchAll = %+v, want {3 1}", sum)
	}

	items, err := store.ListNews(50, 0, storage.NewsFilter{})
	if err != nil {
		t.Fatalf("ListNews error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("stored %d items, want 3", len(items))
	}
}

func TestFetchAllSecondRunAddsNothing(t *testing.T) {
	store := newTestStore(t)
	srv := newFeedServer(t, testFeedXML)
	addSource(t, store, "Test Feed", srv.URL)

	o := NewOrchestrator(store, NewFeedFetcher(store, 10*time.Second, ""))
	o.SetPause(0)

	if _, err := o.FetchAll(context.Background()); err != nil {
		t.Fatalf("first FetchAll error: %v", err)
	}
	sum, err := o.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("second FetchAll error: %v", err)
	}
	if sum.Total != 0 || sum.Sources != 1 {
		t.Fatalf("second FetchAll = %+v, want {0 1}", sum)
	}
}

func TestFetchAllSurvivesFailingSource(t *testing.T) {
	store := newTestStore(t)

	// first source points nowhere, second serves a valid feed
	addSource(t, store, "Dead", "http://127.0.0.1:1/feed")
	srv := newFeedServer(t, testFeedXML)
	addSource(t, store, "Alive", srv.URL)

	o := NewOrchestrator(store, NewFeedFetcher(store, 2*time.Second, ""))
	o.SetPause(0)

	sum, err := o.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll error: %v", err)
	}
	if sum.Sources != 2 {
		t.Fatalf("Sources = %d, want 2", sum.Sources)
	}
	if sum.Total != 3 {
		t.Fatalf("Total = %d, want 3 from the surviving source", sum.Total)
	}
}

func TestFetchAllInactiveSourcesSkipped(t *testing.T) {
	store := newTestStore(t)
	srv := newFeedServer(t, testFeedXML)
	src := addSource(t, store, "Paused", srv.URL)

	off := false
	if _, err := store.UpdateSource(src.ID, storage.SourceUpdate{IsActive: &off}); err != nil {
		t.Fatalf("UpdateSource error: %v", err)
	}

	o := NewOrchestrator(store, NewFeedFetcher(store, 10*time.Second, ""))
	o.SetPause(0)

	sum, err := o.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll error: %v", err)
	}
	if sum.Total != 0 || sum.Sources != 0 {
		t.Fatalf("FetchAll = %+v, want {0 0} with only inactive sources", sum)
	}
}
