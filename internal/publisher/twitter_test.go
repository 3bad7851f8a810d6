package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"neuralnews/internal/storage"
)

func TestFormatTweetShortItem(t *testing.T) {
	got := FormatTweet(&storage.News{
		Title:     "Short headline",
		SourceURL: "https://example.com/story",
		Source:    "CNN Türk",
	})

	if !strings.HasPrefix(got, "Short headline\n\nhttps://example.com/story") {
		t.Fatalf("unexpected tweet layout: %q", got)
	}
	if !strings.HasSuffix(got, "\n#CNNTürk") {
		t.Fatalf("hashtag should strip whitespace: %q", got)
	}
	if len([]rune(got)) > 280 {
		t.Fatalf("tweet length = %d, want <= 280", len([]rune(got)))
	}
}

func TestFormatTweetLongTitleStaysWithinLimit(t *testing.T) {
	title := strings.Repeat("b", 250)
	got := FormatTweet(&storage.News{
		Title:     title,
		SourceURL: "https://example.com/a-fairly-long-story-url",
		Source:    "NTV",
	})

	if len([]rune(got)) > 280 {
		t.Fatalf("tweet length = %d, want <= 280", len([]rune(got)))
	}
	// a 250-char title is cut to 200 with ellipsis before composing
	if !strings.HasPrefix(got, strings.Repeat("b", 197)+"...") {
		t.Fatalf("title not truncated to fit: %q", got[:210])
	}
	// 280 - 200 - 2 leaves room, so the URL must be present
	if !strings.Contains(got, "https://example.com/a-fairly-long-story-url") {
		t.Fatalf("url missing despite available budget: %q", got)
	}
}

func TestFormatTweetOmitsURLWithoutBudget(t *testing.T) {
	// title consumes enough budget that fewer than 25 chars remain
	got := FormatTweet(&storage.News{
		Title:     strings.Repeat("c", 200),
		SourceURL: "https://example.com/" + strings.Repeat("x", 80),
	})
	if strings.Contains(got, "example.com") {
		t.Fatalf("url should be omitted when budget < 25 chars: %q", got)
	}
	if len([]rune(got)) > 280 {
		t.Fatalf("tweet length = %d, want <= 280", len([]rune(got)))
	}
}

func TestFormatTweetSkipsHashtagOverLimit(t *testing.T) {
	got := FormatTweet(&storage.News{
		Title:  strings.Repeat("d", 200),
		Source: strings.Repeat("LongSource", 12),
	})
	if strings.Contains(got, "#") {
		t.Fatalf("hashtag should be skipped when it would exceed the limit: %q", got)
	}
}

func TestPublishNotConfigured(t *testing.T) {
	c := NewClient(Credentials{APIKey: "only-one-key"})
	if c.IsConfigured() {
		t.Fatalf("partial credentials should leave client unconfigured")
	}

	_, err := c.Publish(context.Background(), "hello")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Publish error = %v, want ErrNotConfigured", err)
	}
}

func TestPublishPostsAndParsesID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len([]rune(body.Text)) > 280 {
			t.Errorf("posted text length = %d, want <= 280", len([]rune(body.Text)))
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"12345","text":"ok"}}`))
	}))
	defer srv.Close()

	c := NewClient(Credentials{APIKey: "k", APISecret: "s", AccessToken: "t", AccessSecret: "ts"})
	c.endpoint = srv.URL

	id, err := c.Publish(context.Background(), strings.Repeat("e", 300))
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if id != "12345" {
		t.Fatalf("tweet id = %q, want 12345", id)
	}
}

func TestPublishSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"duplicate content"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(Credentials{APIKey: "k", APISecret: "s", AccessToken: "t", AccessSecret: "ts"})
	c.endpoint = srv.URL

	if _, err := c.Publish(context.Background(), "dup"); err == nil {
		t.Fatalf("expected error for non-2xx response")
	}
}
