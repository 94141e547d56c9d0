package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"store_reviews/internal/domain"
)

const (
	defaultRegion   = "us"
	defaultLanguage = "en"
)

// FetchService is the single-region pipeline: dispatch to the right
// source adapter, with an optional TTL cache around successful results.
// A nil cache disables caching; errors are never cached.
type FetchService struct {
	sources  map[domain.Platform]domain.SourceAdapter
	cache    domain.Cache
	cacheTTL time.Duration
	log      zerolog.Logger
}

func NewFetchService(sources map[domain.Platform]domain.SourceAdapter, cache domain.Cache, ttl time.Duration, log zerolog.Logger) *FetchService {
	return &FetchService{sources: sources, cache: cache, cacheTTL: ttl, log: log}
}

func (s *FetchService) source(p domain.Platform, appID string) (domain.SourceAdapter, *domain.Error) {
	src, ok := s.sources[p]
	if !ok {
		return nil, domain.Errf(domain.KindIdentifier, appID, "unsupported platform %q", p)
	}
	return src, nil
}

// AppInfo resolves one app's metadata snapshot on one platform/region.
func (s *FetchService) AppInfo(ctx context.Context, q domain.InfoQuery) (domain.AppInfo, *domain.Error) {
	applyInfoDefaults(&q)
	src, derr := s.source(q.Platform, q.AppID)
	if derr != nil {
		return domain.AppInfo{}, derr
	}

	key := fmt.Sprintf("info:%s:%s:%s:%s", q.Platform, q.AppID, q.Region, q.Language)
	var cached domain.AppInfo
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}

	info, err := src.FetchAppInfo(ctx, q)
	if err != nil {
		return domain.AppInfo{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, info, int(s.cacheTTL.Seconds()))
	}
	return info, nil
}

// Reviews resolves one single-region review fetch.
func (s *FetchService) Reviews(ctx context.Context, q domain.ReviewQuery) ([]domain.Review, *domain.Error) {
	applyReviewDefaults(&q)
	src, derr := s.source(q.Platform, q.AppID)
	if derr != nil {
		return nil, derr
	}

	key := fmt.Sprintf("reviews:%s:%s:%s:%s:%d:%s:%t",
		q.Platform, q.AppID, q.Region, q.Language, q.Count, q.Sort, q.TextOnly)
	var cached []domain.Review
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}

	reviews, err := src.FetchReviews(ctx, q)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, reviews, int(s.cacheTTL.Seconds()))
	}
	return reviews, nil
}

func applyInfoDefaults(q *domain.InfoQuery) {
	if q.Region == "" {
		q.Region = defaultRegion
	}
	if q.Language == "" {
		q.Language = defaultLanguage
	}
}

func applyReviewDefaults(q *domain.ReviewQuery) {
	if q.Region == "" {
		q.Region = defaultRegion
	}
	if q.Language == "" {
		q.Language = defaultLanguage
	}
	if q.Count <= 0 {
		q.Count = defaultReviewCount
	}
	if q.Sort == "" {
		q.Sort = domain.SortNewest
	}
}
