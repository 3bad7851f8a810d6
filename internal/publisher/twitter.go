package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/oauth1"

	"neuralnews/internal/storage"
)

// ErrNotConfigured distinguishes "sharing is disabled" from a publish
// attempt that failed.
var ErrNotConfigured = errors.New("publisher: X API credentials not configured")

const (
	tweetLimit      = 280
	titleLimit      = 200
	defaultEndpoint = "https://api.twitter.com/2/tweets"
)

// Credentials are the OAuth1 user-context keys for the X API.
type Credentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

func (c Credentials) complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

// Client posts tweets through the X API v2. A client built from incomplete
// credentials stays usable but reports ErrNotConfigured on publish.
type Client struct {
	httpClient *http.Client
	endpoint   string
	configured bool
}

func NewClient(creds Credentials) *Client {
	if !creds.complete() {
		log.Println("X API keys not set, sharing disabled")
		return &Client{endpoint: defaultEndpoint}
	}

	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	httpClient := config.Client(oauth1.NoContext, token)
	httpClient.Timeout = 15 * time.Second

	log.Println("X API connection ready")
	return &Client{httpClient: httpClient, endpoint: defaultEndpoint, configured: true}
}

func (c *Client) IsConfigured() bool {
	return c.configured
}

// Publish posts the text and returns the created tweet id. Text over the
// character limit is hard-truncated before sending.
func (c *Client) Publish(ctx context.Context, text string) (string, error) {
	if !c.configured {
		return "", ErrNotConfigured
	}

	if rs := []rune(text); len(rs) > tweetLimit {
		text = string(rs[:tweetLimit-3]) + "..."
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("publisher: encode tweet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("publisher: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("publisher: post tweet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("publisher: X API status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("publisher: decode response: %w", err)
	}

	log.Printf("tweet posted: %s", out.Data.ID)
	return out.Data.ID, nil
}

// FormatTweet composes the share text for a news item: the title (truncated
// to fit), the source URL when enough budget remains, and a source hashtag
// when it still fits the limit. The result never exceeds 280 characters.
func FormatTweet(item *storage.News) string {
	title := item.Title
	if rs := []rune(title); len(rs) > titleLimit {
		title = string(rs[:titleLimit-3]) + "..."
	}

	tweet := title

	if item.SourceURL != "" {
		remaining := tweetLimit - len([]rune(tweet)) - 2
		if remaining > 25 && len([]rune(item.SourceURL)) <= remaining {
			tweet += "\n\n" + item.SourceURL
		}
	}

	if item.Source != "" && len([]rune(tweet)) < 260 {
		hashtag := "\n#" + strings.Join(strings.Fields(item.Source), "")
		if len([]rune(tweet))+len([]rune(hashtag)) <= tweetLimit {
			tweet += hashtag
		}
	}

	return tweet
}
