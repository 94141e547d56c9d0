package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"store_reviews/internal/app"
	"store_reviews/internal/domain"
)

// ---- fakes over the raw client ports ----

type fakePlayClient struct {
	details    map[string]any
	detailsErr error
	reviews    []map[string]any
	reviewsErr error
}

func (f *fakePlayClient) Details(ctx context.Context, appID, lang, country string) (map[string]any, error) {
	return f.details, f.detailsErr
}

func (f *fakePlayClient) Reviews(ctx context.Context, appID, lang, country string, count int, sort domain.Sort) ([]map[string]any, error) {
	if f.reviewsErr != nil {
		return nil, f.reviewsErr
	}
	if count < len(f.reviews) {
		return f.reviews[:count], nil
	}
	return f.reviews, nil
}

type fakeFeedClient struct {
	pages map[int][]map[string]any
	err   error
}

func (f *fakeFeedClient) Page(ctx context.Context, appID, country string, sort domain.Sort, page int) ([]map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages[page], nil
}

func metaEntry(name string) map[string]any {
	return map[string]any{
		"im:name":   map[string]any{"label": name},
		"im:artist": map[string]any{"label": "Example Dev"},
	}
}

func reviewEntry(id, text string) map[string]any {
	return map[string]any{
		"id":        map[string]any{"label": id},
		"author":    map[string]any{"name": map[string]any{"label": "u"}},
		"im:rating": map[string]any{"label": "4"},
		"title":     map[string]any{"label": "t"},
		"content":   map[string]any{"label": text},
		"updated":   map[string]any{"label": "2024-06-01T10:00:00-07:00"},
	}
}

// ---- Play source ----

func TestPlaySource_InvalidIdentifier(t *testing.T) {
	src := app.NewPlaySource(&fakePlayClient{}, zerolog.Nop())
	_, derr := src.FetchReviews(context.Background(), domain.ReviewQuery{AppID: "notapackage", Region: "us"})
	if derr == nil || derr.Kind != domain.KindIdentifier {
		t.Fatalf("expected identifier error, got %+v", derr)
	}
	if derr.Suggestion == "" {
		t.Fatalf("identifier errors carry a remediation suggestion")
	}
}

func TestPlaySource_TransportErrorCarriesIdentifier(t *testing.T) {
	src := app.NewPlaySource(&fakePlayClient{reviewsErr: errors.New("connection refused")}, zerolog.Nop())
	_, derr := src.FetchReviews(context.Background(), domain.ReviewQuery{AppID: "com.example.app", Region: "us"})
	if derr == nil || derr.Kind != domain.KindTransport {
		t.Fatalf("expected transport error, got %+v", derr)
	}
	if derr.AppID != "com.example.app" {
		t.Fatalf("error must carry the identifier, got %q", derr.AppID)
	}
}

func TestPlaySource_NoReviewsIsEmptyKind(t *testing.T) {
	src := app.NewPlaySource(&fakePlayClient{}, zerolog.Nop())
	_, derr := src.FetchReviews(context.Background(), domain.ReviewQuery{AppID: "com.example.app", Region: "us"})
	if derr == nil || derr.Kind != domain.KindEmpty {
		t.Fatalf("expected empty-result error, got %+v", derr)
	}
}

func TestPlaySource_TextOnlyFilter(t *testing.T) {
	src := app.NewPlaySource(&fakePlayClient{reviews: []map[string]any{
		{"reviewId": "r1", "text": "real words", "score": 5.0},
		{"reviewId": "r2", "text": "   ", "score": 1.0},
		{"reviewId": "r3", "score": 3.0},
	}}, zerolog.Nop())

	got, derr := src.FetchReviews(context.Background(), domain.ReviewQuery{
		AppID: "com.example.app", Region: "us", TextOnly: true,
	})
	if derr != nil {
		t.Fatalf("err: %v", derr)
	}
	if len(got) != 1 || got[0].ReviewID != "r1" {
		t.Fatalf("text-only admission failed: %+v", got)
	}
}

func TestPlaySource_AppInfo(t *testing.T) {
	src := app.NewPlaySource(&fakePlayClient{details: map[string]any{
		"appId":     "com.example.app",
		"title":     "Example",
		"developer": "Example Dev",
		"score":     4.5,
	}}, zerolog.Nop())

	info, derr := src.FetchAppInfo(context.Background(), domain.InfoQuery{AppID: "com.example.app", Region: "us"})
	if derr != nil {
		t.Fatalf("err: %v", derr)
	}
	if info.Title != "Example" || info.Rating == nil || *info.Rating != 4.5 {
		t.Fatalf("unexpected info: %+v", info)
	}
}

// ---- App Store source ----

func TestAppStoreSource_NameInsteadOfNumericID(t *testing.T) {
	src := app.NewAppStoreSource(&fakeFeedClient{}, zerolog.Nop())
	_, derr := src.FetchReviews(context.Background(), domain.ReviewQuery{AppID: "facebook", Region: "us"})
	if derr == nil || derr.Kind != domain.KindIdentifier {
		t.Fatalf("expected identifier error, got %+v", derr)
	}
	if derr.Suggestion == "" {
		t.Fatalf("missing-identifier errors carry the lookup hint")
	}
}

func TestAppStoreSource_FirstEntryRoutedToAppInfo(t *testing.T) {
	fc := &fakeFeedClient{pages: map[int][]map[string]any{
		1: {metaEntry("Facebook"), reviewEntry("fr1", "nice"), reviewEntry("fr2", "ok")},
	}}
	src := app.NewAppStoreSource(fc, zerolog.Nop())

	info, derr := src.FetchAppInfo(context.Background(), domain.InfoQuery{AppID: "284882215", Region: "us"})
	if derr != nil {
		t.Fatalf("err: %v", derr)
	}
	if info.Title != "Facebook" {
		t.Fatalf("metadata entry not routed to app info: %+v", info)
	}

	got, derr := src.FetchReviews(context.Background(), domain.ReviewQuery{AppID: "284882215", Region: "us"})
	if derr != nil {
		t.Fatalf("err: %v", derr)
	}
	if len(got) != 2 || got[0].ReviewID != "fr1" || got[1].ReviewID != "fr2" {
		t.Fatalf("metadata entry leaked into reviews: %+v", got)
	}
}

func TestAppStoreSource_EmptyFeedIsEmptyKind(t *testing.T) {
	fc := &fakeFeedClient{pages: map[int][]map[string]any{
		1: {metaEntry("Facebook")}, // nothing after the metadata entry
	}}
	src := app.NewAppStoreSource(fc, zerolog.Nop())

	_, derr := src.FetchReviews(context.Background(), domain.ReviewQuery{AppID: "284882215", Region: "us"})
	if derr == nil || derr.Kind != domain.KindEmpty {
		t.Fatalf("zero usable records is a policy outcome, got %+v", derr)
	}
}

func TestAppStoreSource_CountClampedTo500(t *testing.T) {
	pages := map[int][]map[string]any{}
	n := 0
	for p := 1; p <= 12; p++ { // more pages than the upstream actually serves
		entries := []map[string]any{metaEntry("Big App")}
		for i := 0; i < 50; i++ {
			n++
			entries = append(entries, reviewEntry(fmt.Sprintf("r%d", n), "text"))
		}
		pages[p] = entries
	}
	src := app.NewAppStoreSource(&fakeFeedClient{pages: pages}, zerolog.Nop())

	got, derr := src.FetchReviews(context.Background(), domain.ReviewQuery{
		AppID: "284882215", Region: "us", Count: 800,
	})
	if derr != nil {
		t.Fatalf("err: %v", derr)
	}
	if len(got) != 500 {
		t.Fatalf("count must clamp at the 500-entry upstream maximum, got %d", len(got))
	}
}

func TestAppStoreSource_TransportError(t *testing.T) {
	src := app.NewAppStoreSource(&fakeFeedClient{err: errors.New("status 503")}, zerolog.Nop())
	_, derr := src.FetchReviews(context.Background(), domain.ReviewQuery{AppID: "284882215", Region: "us"})
	if derr == nil || derr.Kind != domain.KindTransport {
		t.Fatalf("expected transport error, got %+v", derr)
	}
}
