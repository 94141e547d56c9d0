// internal/adapters/playstore/client.go
package playstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"store_reviews/internal/domain"
)

// Client speaks Google Play's unauthenticated web surface: the app
// details page (service data embedded via AF_initDataCallback) and the
// batchexecute RPC the web UI itself uses for paginated reviews.
// Payloads come back as camelCase-keyed maps; shape knowledge beyond
// the index tables below stays out of the rest of the pipeline.
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

// requestTimeout is the fixed per-call budget; exceeding it is a
// transport failure, not a separate error class.
const requestTimeout = 10 * time.Second

// reviewsPageSize is the number of reviews requested per RPC round
// trip. The endpoint rejects anything near 200.
const reviewsPageSize = 150

const (
	detailsPath = "/store/apps/details"
	batchPath   = "/_/PlayStoreUi/data/batchexecute"
	reviewsRPC  = "UsvDTd"
)

func New(base string, rps int) *Client {
	if base == "" {
		base = "https://play.google.com"
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

// upstream sort vocabulary for the reviews RPC
const (
	sortMostRelevant = 1
	sortNewest       = 2
	sortRating       = 3
)

// ---- details ----

// dsDetails matches the ds:5 service-data blob on the details page.
var dsDetails = regexp.MustCompile(`(?s)AF_initDataCallback\(\{key: 'ds:5'.*?data:(\[.*?\]), sideChannel`)

// detailPaths indexes into the ds:5 data array, the same way the web
// UI's own code reads it.
var detailPaths = map[string][]int{
	"title":         {1, 2, 0, 0},
	"description":   {1, 2, 72, 0, 1},
	"summary":       {1, 2, 73, 0, 1},
	"installs":      {1, 2, 13, 0},
	"minInstalls":   {1, 2, 13, 1},
	"score":         {1, 2, 51, 0, 1},
	"ratings":       {1, 2, 51, 2, 1},
	"reviews":       {1, 2, 51, 3, 1},
	"priceMicros":   {1, 2, 57, 0, 0, 0, 0, 1, 0, 0},
	"currency":      {1, 2, 57, 0, 0, 0, 0, 1, 0, 1},
	"developer":     {1, 2, 68, 0},
	"developerId":   {1, 2, 68, 1, 4, 2},
	"genre":         {1, 2, 79, 0, 0, 0},
	"icon":          {1, 2, 95, 0, 3, 2},
	"contentRating": {1, 2, 9, 0},
	"released":      {1, 2, 10, 0},
	"updatedSec":    {1, 2, 145, 0, 1, 0},
	"version":       {1, 2, 140, 0, 0, 0},
}

// Details fetches the app details page and extracts the embedded
// service data into an opaque camelCase map.
func (c *Client) Details(ctx context.Context, appID, lang, country string) (map[string]any, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s%s?id=%s&hl=%s&gl=%s",
		c.base, detailsPath, url.QueryEscape(appID), url.QueryEscape(lang), url.QueryEscape(country))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("details status %d for %s", resp.StatusCode, appID)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	m := dsDetails.FindSubmatch(body)
	if m == nil {
		return nil, fmt.Errorf("details payload not found for %s", appID)
	}
	var data []any
	if err := json.Unmarshal(m[1], &data); err != nil {
		return nil, fmt.Errorf("details payload decode: %w", err)
	}

	out := map[string]any{
		"appId": appID,
		"url":   u,
	}
	for key, path := range detailPaths {
		if v := pathAt(data, path...); v != nil {
			out[key] = v
		}
	}
	// derived, friendlier forms of two raw values
	if f, ok := out["priceMicros"].(float64); ok {
		delete(out, "priceMicros")
		out["price"] = f / 1e6
	}
	if f, ok := out["updatedSec"].(float64); ok {
		delete(out, "updatedSec")
		out["updated"] = time.Unix(int64(f), 0).UTC().Format(time.RFC3339)
	}
	return out, nil
}

// ---- reviews ----

// reviewPaths indexes into one review row of the UsvDTd payload.
var reviewPaths = map[string][]int{
	"reviewId":     {0},
	"userName":     {1, 0},
	"userImage":    {1, 1, 3, 2},
	"score":        {2},
	"text":         {4},
	"dateSec":      {5, 0},
	"thumbsUp":     {6},
	"replyText":    {7, 1},
	"replyDateSec": {7, 2, 0},
	"appVersion":   {10},
}

// Reviews pages through the reviews RPC until count reviews are
// gathered or the continuation token runs out. The caller's sort is
// remapped onto the RPC's numeric vocabulary.
func (c *Client) Reviews(ctx context.Context, appID, lang, country string, count int, sort domain.Sort) ([]map[string]any, error) {
	sortCode := sortNewest
	switch sort {
	case domain.SortRating:
		sortCode = sortRating
	case domain.SortHelpfulness:
		sortCode = sortMostRelevant
	}

	var out []map[string]any
	token := ""
	for count > len(out) {
		num := count - len(out)
		if num > reviewsPageSize {
			num = reviewsPageSize
		}
		rows, next, err := c.reviewsPage(ctx, appID, lang, country, num, sortCode, token)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out = append(out, mapReviewRow(row))
		}
		if next == "" || len(rows) == 0 {
			break
		}
		token = next
	}
	if len(out) > count {
		out = out[:count]
	}
	return out, nil
}

func (c *Client) reviewsPage(ctx context.Context, appID, lang, country string, num, sortCode int, token string) ([][]any, string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, "", err
	}

	inner, err := reviewsEnvelope(appID, num, sortCode, token)
	if err != nil {
		return nil, "", err
	}
	form := url.Values{}
	form.Set("f.req", fmt.Sprintf(`[[["%s",%s,null,"generic"]]]`, reviewsRPC, inner))

	u := fmt.Sprintf("%s%s?rpcids=%s&hl=%s&gl=%s",
		c.base, batchPath, reviewsRPC, url.QueryEscape(lang), url.QueryEscape(country))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, "", fmt.Errorf("reviews status %d for %s", resp.StatusCode, appID)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, "", err
	}
	return parseBatchReviews(body)
}

// reviewsEnvelope builds the JSON-encoded inner request argument. The
// argument itself travels as a string inside the outer f.req array.
func reviewsEnvelope(appID string, num, sortCode int, token string) (string, error) {
	var tok any
	if token != "" {
		tok = token
	}
	payload := []any{
		nil, nil,
		[]any{2, sortCode, []any{num, nil, tok}, nil, []any{}},
		[]any{appID, 7},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	// the inner payload is double-encoded
	quoted, err := json.Marshal(string(b))
	if err != nil {
		return "", err
	}
	return string(quoted), nil
}

// parseBatchReviews unwraps the anti-XSSI prefix, the batchexecute
// envelope, and the double-encoded payload: rows at payload[0], the
// continuation token at payload[1][1].
func parseBatchReviews(body []byte) ([][]any, string, error) {
	s := string(body)
	if i := strings.Index(s, "\n"); i >= 0 && strings.HasPrefix(s, ")]}'") {
		s = s[i+1:]
	}
	var envelope []any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &envelope); err != nil {
		return nil, "", fmt.Errorf("batch envelope decode: %w", err)
	}
	payloadStr, _ := pathAt(envelope, 0, 2).(string)
	if payloadStr == "" {
		// an envelope with no payload means the RPC matched nothing
		return nil, "", nil
	}
	var payload []any
	if err := json.Unmarshal([]byte(payloadStr), &payload); err != nil {
		return nil, "", fmt.Errorf("batch payload decode: %w", err)
	}

	var rows [][]any
	if raw, ok := pathAt(payload, 0).([]any); ok {
		for _, r := range raw {
			if row, ok := r.([]any); ok {
				rows = append(rows, row)
			}
		}
	}
	next, _ := pathAt(payload, 1, 1).(string)
	return rows, next, nil
}

// mapReviewRow flattens one positional review row into the camelCase
// map the normalizer consumes.
func mapReviewRow(row []any) map[string]any {
	out := make(map[string]any, len(reviewPaths))
	for key, path := range reviewPaths {
		if v := pathAt(row, path...); v != nil {
			out[key] = v
		}
	}
	if f, ok := out["dateSec"].(float64); ok {
		delete(out, "dateSec")
		out["date"] = time.Unix(int64(f), 0).UTC().Format(time.RFC3339)
	}
	if f, ok := out["replyDateSec"].(float64); ok {
		delete(out, "replyDateSec")
		out["replyDate"] = time.Unix(int64(f), 0).UTC().Format(time.RFC3339)
	}
	return out
}

// pathAt walks nested []any values by index; nil on any miss.
func pathAt(v any, idx ...int) any {
	for _, i := range idx {
		arr, ok := v.([]any)
		if !ok || i < 0 || i >= len(arr) {
			return nil
		}
		v = arr[i]
	}
	return v
}

var userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// ValidAppID reports whether s looks like a dotted reverse-domain
// package identifier (at least two non-empty alphanumeric segments).
func ValidAppID(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, r := range p {
			if !isWordChar(r) {
				return false
			}
		}
	}
	return true
}

func isWordChar(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
