package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"store_reviews/internal/adapters/appstorefeed"
	httpserver "store_reviews/internal/adapters/http_server"
	"store_reviews/internal/app"
	"store_reviews/internal/domain"
)

// feedEntry builds one customerreviews feed entry.
func feedEntry(id, user, title, text, rating string) map[string]any {
	return map[string]any{
		"id":           map[string]any{"label": id},
		"author":       map[string]any{"name": map[string]any{"label": user}},
		"title":        map[string]any{"label": title},
		"content":      map[string]any{"label": text},
		"im:rating":    map[string]any{"label": rating},
		"updated":      map[string]any{"label": "2024-06-01T10:00:00-07:00"},
		"im:version":   map[string]any{"label": "2.0"},
		"im:voteSum":   map[string]any{"label": "3"},
		"im:voteCount": map[string]any{"label": "4"},
	}
}

var feedMeta = map[string]any{
	"im:name":   map[string]any{"label": "Example"},
	"im:artist": map[string]any{"label": "Example Inc"},
}

// upstream fakes Apple's feed host: distinct review sets per
// storefront, empty feeds past page one.
func upstream() *httptest.Server {
	byCC := map[string][]any{
		"us": {feedMeta, feedEntry("r1", "Ana", "Great", "love it", "5"), feedEntry("r2", "Bo", "Good", "works fine", "4")},
		"gb": {feedMeta, feedEntry("r2", "Bo", "Good", "works fine", "4"), feedEntry("r3", "Cy", "Bad", "keeps crashing", "1")},
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) < 6 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		cc, page := parts[0], parts[3]
		doc := map[string]any{"feed": map[string]any{}}
		if entries, ok := byCC[cc]; ok && page == "page=1" {
			doc["feed"].(map[string]any)["entry"] = entries
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(doc)
	}))
}

func newAPI(t *testing.T, feedBase string) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()
	source := app.NewAppStoreSource(appstorefeed.New(feedBase, 1000), logger)
	svc := app.NewFetchService(map[domain.Platform]domain.SourceAdapter{
		domain.PlatformAppStore: source,
	}, nil, 0, logger)

	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{Svc: svc, Agg: app.NewAggregator(svc, logger)})
	api := httptest.NewServer(srv.Mux())
	t.Cleanup(api.Close)
	return api
}

func getJSON(t *testing.T, url string, dst any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestEndToEnd_SingleRegionReviews(t *testing.T) {
	up := upstream()
	defer up.Close()
	api := newAPI(t, up.URL)

	var reviews []domain.Review
	status := getJSON(t, api.URL+"/v1/apps/appstore/284882215/reviews?region=us", &reviews)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(reviews))
	}
	if reviews[0].ReviewID != "r1" || reviews[0].UserName != "Ana" {
		t.Fatalf("first review off: %#v", reviews[0])
	}
	if reviews[0].Rating == nil || *reviews[0].Rating != 5 {
		t.Fatalf("rating off: %#v", reviews[0].Rating)
	}
	if reviews[0].FetchedFromCountry != "" {
		t.Fatalf("single-region fetch must not stamp a country")
	}
}

func TestEndToEnd_AppInfoFromFeed(t *testing.T) {
	up := upstream()
	defer up.Close()
	api := newAPI(t, up.URL)

	var info domain.AppInfo
	status := getJSON(t, api.URL+"/v1/apps/appstore/284882215?region=us", &info)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if info.Title != "Example" || info.Developer != "Example Inc" {
		t.Fatalf("app info off: %#v", info)
	}
	if info.Country != "us" {
		t.Fatalf("country = %q", info.Country)
	}
}

func TestEndToEnd_AggregateDedupsAcrossRegions(t *testing.T) {
	up := upstream()
	defer up.Close()
	api := newAPI(t, up.URL)

	var reviews []domain.Review
	status := getJSON(t, api.URL+"/v1/apps/appstore/284882215/reviews/aggregate?regions=us,gb", &reviews)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(reviews) != 3 {
		t.Fatalf("expected 3 unique reviews, got %d", len(reviews))
	}
	byID := map[string]domain.Review{}
	for _, rv := range reviews {
		byID[rv.ReviewID] = rv
	}
	if byID["r2"].FetchedFromCountry != "us" {
		t.Fatalf("duplicate must keep the first region's copy, got %q", byID["r2"].FetchedFromCountry)
	}
	if byID["r3"].FetchedFromCountry != "gb" {
		t.Fatalf("r3 country = %q", byID["r3"].FetchedFromCountry)
	}
}

func TestEndToEnd_ProjectionModes(t *testing.T) {
	up := upstream()
	defer up.Close()
	api := newAPI(t, up.URL)

	var rows []map[string]any
	status := getJSON(t, api.URL+"/v1/apps/appstore/284882215/reviews?region=us&mode=title_text", &rows)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if len(row) != 2 {
			t.Fatalf("title_text row must hold exactly title and text: %#v", row)
		}
		if _, ok := row["title"]; !ok {
			t.Fatalf("missing title: %#v", row)
		}
		if _, ok := row["text"]; !ok {
			t.Fatalf("missing text: %#v", row)
		}
	}
}

func TestEndToEnd_BadIdentifier(t *testing.T) {
	up := upstream()
	defer up.Close()
	api := newAPI(t, up.URL)

	var derr domain.Error
	status := getJSON(t, api.URL+"/v1/apps/appstore/not-a-numeric-id/reviews", &derr)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
	if derr.Kind != domain.KindIdentifier {
		t.Fatalf("kind = %q", derr.Kind)
	}
	if derr.Suggestion == "" {
		t.Fatalf("identifier errors carry a suggestion")
	}
}

func TestEndToEnd_UnknownStorefrontIsEmpty(t *testing.T) {
	up := upstream()
	defer up.Close()
	api := newAPI(t, up.URL)

	var derr domain.Error
	url := fmt.Sprintf("%s/v1/apps/appstore/284882215/reviews?region=zz", api.URL)
	status := getJSON(t, url, &derr)
	if status != http.StatusNotFound {
		t.Fatalf("status = %d", status)
	}
	if derr.Kind != domain.KindEmpty {
		t.Fatalf("kind = %q", derr.Kind)
	}
}
