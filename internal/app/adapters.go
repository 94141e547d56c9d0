package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"store_reviews/internal/adapters/appstorefeed"
	"store_reviews/internal/adapters/observability"
	"store_reviews/internal/adapters/playstore"
	"store_reviews/internal/domain"
)

const defaultReviewCount = 100

// appIDSuggestion is sent back whenever the App Store path is handed a
// name instead of the numeric catalog identifier the feed requires.
const appIDSuggestion = "Find the numeric app ID in the App Store URL " +
	"(e.g. '284882215' from apps.apple.com/app/facebook/id284882215)"

/********** Marketplace A: Google Play **********/

// PlaySource adapts the raw Play capability to the common shape.
type PlaySource struct {
	c   domain.PlayClient
	log zerolog.Logger
}

func NewPlaySource(c domain.PlayClient, log zerolog.Logger) *PlaySource {
	return &PlaySource{c: c, log: log.With().Str("source", "play").Logger()}
}

func (s *PlaySource) FetchAppInfo(ctx context.Context, q domain.InfoQuery) (domain.AppInfo, *domain.Error) {
	if !playstore.ValidAppID(q.AppID) {
		return domain.AppInfo{}, &domain.Error{
			Kind:       domain.KindIdentifier,
			AppID:      q.AppID,
			Message:    "invalid package identifier",
			Suggestion: "use the dotted package name, e.g. com.instagram.android",
		}
	}

	start := time.Now()
	raw, err := s.c.Details(ctx, q.AppID, q.Language, q.Region)
	if err != nil {
		observability.ObserveUpstream("play", "details", "error", time.Since(start))
		s.log.Warn().Str("app_id", q.AppID).Str("region", q.Region).Err(err).Msg("app info fetch failed")
		return domain.AppInfo{}, domain.Errf(domain.KindTransport, q.AppID, "fetching app info: %v", err)
	}
	observability.ObserveUpstream("play", "details", "ok", time.Since(start))
	if len(raw) == 0 {
		return domain.AppInfo{}, domain.Errf(domain.KindEmpty, q.AppID, "no data returned")
	}

	info := mapPlayApp(q.AppID, q.Region, raw)
	s.log.Info().Str("app_id", info.AppID).Str("title", info.Title).Msg("app info fetched")
	return info, nil
}

func (s *PlaySource) FetchReviews(ctx context.Context, q domain.ReviewQuery) ([]domain.Review, *domain.Error) {
	if !playstore.ValidAppID(q.AppID) {
		return nil, &domain.Error{
			Kind:       domain.KindIdentifier,
			AppID:      q.AppID,
			Message:    "invalid package identifier",
			Suggestion: "use the dotted package name, e.g. com.instagram.android",
		}
	}
	count := q.Count
	if count <= 0 {
		count = defaultReviewCount
	}

	start := time.Now()
	raw, err := s.c.Reviews(ctx, q.AppID, q.Language, q.Region, count, q.Sort)
	if err != nil {
		observability.ObserveUpstream("play", "reviews", "error", time.Since(start))
		s.log.Warn().Str("app_id", q.AppID).Str("region", q.Region).Err(err).Msg("reviews fetch failed")
		return nil, domain.Errf(domain.KindTransport, q.AppID, "fetching reviews: %v", err)
	}
	observability.ObserveUpstream("play", "reviews", "ok", time.Since(start))
	if len(raw) == 0 {
		return nil, domain.Errf(domain.KindEmpty, q.AppID, "no reviews found")
	}

	reviews := make([]domain.Review, 0, len(raw))
	for _, m := range raw {
		reviews = append(reviews, mapPlayReview(m))
	}
	reviews = admit(reviews, q.TextOnly)
	s.log.Info().Str("app_id", q.AppID).Str("region", q.Region).
		Int("count", len(reviews)).Bool("text_only", q.TextOnly).Msg("reviews fetched")
	return reviews, nil
}

/********** Marketplace B: App Store customer-reviews feed **********/

// AppStoreSource adapts the syndication feed to the common shape. The
// feed's first entry per page is app metadata; FetchAppInfo reads it
// and FetchReviews routes around it.
type AppStoreSource struct {
	c   domain.FeedClient
	log zerolog.Logger
}

func NewAppStoreSource(c domain.FeedClient, log zerolog.Logger) *AppStoreSource {
	return &AppStoreSource{c: c, log: log.With().Str("source", "appstore").Logger()}
}

func (s *AppStoreSource) FetchAppInfo(ctx context.Context, q domain.InfoQuery) (domain.AppInfo, *domain.Error) {
	if !appstorefeed.NumericID(q.AppID) {
		return domain.AppInfo{}, &domain.Error{
			Kind:       domain.KindIdentifier,
			AppID:      q.AppID,
			Message:    "numeric app ID required",
			Suggestion: appIDSuggestion,
		}
	}

	start := time.Now()
	entries, err := s.c.Page(ctx, q.AppID, q.Region, domain.SortNewest, 1)
	if err != nil {
		observability.ObserveUpstream("appstore", "feed", "error", time.Since(start))
		s.log.Warn().Str("app_id", q.AppID).Str("region", q.Region).Err(err).Msg("app info fetch failed")
		return domain.AppInfo{}, domain.Errf(domain.KindTransport, q.AppID, "fetching app info: %v", err)
	}
	observability.ObserveUpstream("appstore", "feed", "ok", time.Since(start))
	if len(entries) == 0 {
		return domain.AppInfo{}, domain.Errf(domain.KindEmpty, q.AppID, "no data returned")
	}

	info := mapFeedApp(q.AppID, q.Region, entries[0])
	s.log.Info().Str("app_id", q.AppID).Str("title", info.Title).Msg("app info fetched")
	return info, nil
}

func (s *AppStoreSource) FetchReviews(ctx context.Context, q domain.ReviewQuery) ([]domain.Review, *domain.Error) {
	if !appstorefeed.NumericID(q.AppID) {
		return nil, &domain.Error{
			Kind:       domain.KindIdentifier,
			AppID:      q.AppID,
			Message:    "numeric app ID required",
			Suggestion: appIDSuggestion,
		}
	}
	count := q.Count
	if count <= 0 {
		count = defaultReviewCount
	}
	// the upstream serves at most 500 reviews per (app, region, sort)
	if count > appstorefeed.MaxCount {
		count = appstorefeed.MaxCount
	}

	var reviews []domain.Review
	for page := 1; page <= appstorefeed.MaxPages && len(reviews) < count; page++ {
		start := time.Now()
		entries, err := s.c.Page(ctx, q.AppID, q.Region, q.Sort, page)
		if err != nil {
			observability.ObserveUpstream("appstore", "feed", "error", time.Since(start))
			if page == 1 {
				s.log.Warn().Str("app_id", q.AppID).Str("region", q.Region).Err(err).Msg("reviews fetch failed")
				return nil, domain.Errf(domain.KindTransport, q.AppID, "fetching reviews: %v", err)
			}
			// a later page failing loses depth, not the result
			s.log.Warn().Str("app_id", q.AppID).Int("page", page).Err(err).Msg("feed page failed, stopping early")
			break
		}
		observability.ObserveUpstream("appstore", "feed", "ok", time.Since(start))

		admitted := 0
		for _, e := range entries {
			if !isFeedReview(e) {
				continue // app metadata entry leading the page
			}
			reviews = append(reviews, mapFeedReview(e))
			admitted++
			if len(reviews) >= count {
				break
			}
		}
		if admitted == 0 {
			break // past the end of the feed
		}
	}

	if len(reviews) == 0 {
		// reachable upstream with nothing after the metadata entry is a
		// policy outcome, not a transport failure
		return nil, domain.Errf(domain.KindEmpty, q.AppID, "no reviews found")
	}
	reviews = admit(reviews, q.TextOnly)
	s.log.Info().Str("app_id", q.AppID).Str("region", q.Region).
		Int("count", len(reviews)).Bool("text_only", q.TextOnly).Msg("reviews fetched")
	return reviews, nil
}
