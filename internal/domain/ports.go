package domain

import "context"

// Platform selects which marketplace a request targets.
type Platform string

const (
	PlatformPlay     Platform = "play"
	PlatformAppStore Platform = "appstore"
)

// ParsePlatform maps a caller-supplied platform token; ok is false for
// anything but the two closed variants.
func ParsePlatform(s string) (Platform, bool) {
	switch Platform(s) {
	case PlatformPlay, PlatformAppStore:
		return Platform(s), true
	}
	return "", false
}

// Sort is the call-boundary sort vocabulary. Each adapter remaps it
// onto its upstream's own terms.
type Sort string

const (
	SortNewest      Sort = "newest"
	SortRating      Sort = "rating"
	SortHelpfulness Sort = "helpfulness"
)

// ParseSort returns SortNewest for empty input and ok=false for tokens
// outside the vocabulary.
func ParseSort(s string) (Sort, bool) {
	if s == "" {
		return SortNewest, true
	}
	switch Sort(s) {
	case SortNewest, SortRating, SortHelpfulness:
		return Sort(s), true
	}
	return "", false
}

// InfoQuery addresses one app's metadata on one platform/region.
type InfoQuery struct {
	Platform Platform
	AppID    string
	Region   string
	Language string
}

// ReviewQuery addresses one single-region review fetch.
type ReviewQuery struct {
	Platform Platform
	AppID    string
	Region   string
	Language string
	Count    int
	Sort     Sort
	TextOnly bool
}

// AggregateQuery drives the multi-region path. Regions may be empty, in
// which case the platform's documented default list applies. Count is
// per region.
type AggregateQuery struct {
	Platform Platform
	AppID    string
	Regions  []string
	Language string
	Count    int
	Sort     Sort
	TextOnly bool
}

// SourceAdapter is the capability set both marketplace variants expose.
// Implementations convert every transport or upstream failure into an
// *Error; they never panic and never return both values non-nil.
type SourceAdapter interface {
	FetchAppInfo(ctx context.Context, q InfoQuery) (AppInfo, *Error)
	FetchReviews(ctx context.Context, q ReviewQuery) ([]Review, *Error)
}

// PlayClient is the raw Play marketplace capability: opaque camelCase
// keyed payloads (appId, title, score, reviewId, userName, thumbsUp,
// replyText, ...) the normalizer maps into the unified schema.
type PlayClient interface {
	Details(ctx context.Context, appID, lang, country string) (map[string]any, error)
	Reviews(ctx context.Context, appID, lang, country string, count int, sort Sort) ([]map[string]any, error)
}

// FeedClient serves one page of the App Store customer-reviews feed as
// raw entry objects; the first entry of a page may be app metadata
// rather than a review.
type FeedClient interface {
	Page(ctx context.Context, appID, country string, sort Sort, page int) ([]map[string]any, error)
}

// Cache is an optional TTL'd byte-value cache around single-region
// fetches. A nil Cache disables caching entirely.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
