// internal/adapters/appstorefeed/client.go
package appstorefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"store_reviews/internal/domain"
)

// Client reads Apple's public customer-reviews syndication feed. The
// feed is a JSON document per (country, app, sort, page); entries come
// back as raw maps because the first entry of a page is app metadata,
// not a review, and routing that is the adapter's call, not ours.
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

// requestTimeout is the fixed per-call budget; exceeding it is a
// transport failure, not a separate error class.
const requestTimeout = 10 * time.Second

// Feed pagination limits published by the upstream: 50 entries per
// page, 10 pages, 500 reviews total.
const (
	PageSize  = 50
	MaxPages  = 10
	MaxCount  = PageSize * MaxPages
	firstPage = 1
)

func New(base string, rps int) *Client {
	if base == "" {
		base = "https://itunes.apple.com"
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: requestTimeout},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// feedDoc mirrors just enough of the document shape; entry is kept raw
// because Apple serves an array normally but a bare object when the
// feed holds a single entry.
type feedDoc struct {
	Feed struct {
		Entry json.RawMessage `json:"entry"`
	} `json:"feed"`
}

// Page fetches one feed page and returns its raw entries in feed order.
// A missing or empty entry key yields an empty slice, not an error;
// "no data" is a policy question for the adapter.
func (c *Client) Page(ctx context.Context, appID, country string, sort domain.Sort, page int) ([]map[string]any, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}
	if page < firstPage {
		page = firstPage
	}

	u := fmt.Sprintf("%s/%s/rss/customerreviews/page=%d/id=%s/sortby=%s/json",
		c.base, country, page, appID, sortBy(sort))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("feed status %d for %s", resp.StatusCode, appID)
	}

	var doc feedDoc
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("feed decode: %w", err)
	}
	return decodeEntries(doc.Feed.Entry)
}

// sortBy remaps the call-boundary sort vocabulary onto the feed's own.
// The feed has no by-rating ordering; that falls back to most recent.
func sortBy(s domain.Sort) string {
	if s == domain.SortHelpfulness {
		return "mosthelpful"
	}
	return "mostrecent"
}

func decodeEntries(raw json.RawMessage) ([]map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var single map[string]any
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("feed entry decode: %w", err)
	}
	return []map[string]any{single}, nil
}

// NumericID reports whether s is the numeric catalog identifier the
// feed requires.
func NumericID(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
