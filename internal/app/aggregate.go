package app

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"store_reviews/internal/adapters/observability"
	"store_reviews/internal/domain"
)

// Documented default region lists per platform, used when the caller
// supplies none.
var defaultRegions = map[domain.Platform][]string{
	domain.PlatformPlay:     {"us", "kr", "jp", "gb", "de", "fr", "in", "br"},
	domain.PlatformAppStore: {"us", "gb", "ca", "au", "de", "fr", "jp", "kr"},
}

// DefaultRegions returns a copy of the platform's default region list.
func DefaultRegions(p domain.Platform) []string {
	src := defaultRegions[p]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// aggregateConcurrency bounds the per-region fan-out.
const aggregateConcurrency = 4

// Aggregator merges per-region single-region fetches into one
// deduplicated collection. Regions are fetched concurrently, but the
// merge runs strictly in region-list order after every fetch resolves,
// so dedup ties always go to the earliest listed region and the result
// is deterministic regardless of fetch completion order.
type Aggregator struct {
	svc *FetchService
	log zerolog.Logger
}

func NewAggregator(svc *FetchService, log zerolog.Logger) *Aggregator {
	return &Aggregator{svc: svc, log: log}
}

// MultiRegion fetches q.AppID's reviews across q.Regions (or the
// platform default list), dropping duplicate review IDs first-region-
// wins and stamping each admitted review with the region it came from.
// A region failing or coming back empty is recorded and skipped; only
// when every region yields nothing does the whole call fail.
func (a *Aggregator) MultiRegion(ctx context.Context, q domain.AggregateQuery) ([]domain.Review, *domain.Error) {
	regions := q.Regions
	if len(regions) == 0 {
		regions = DefaultRegions(q.Platform)
	}

	a.log.Info().Str("platform", string(q.Platform)).Str("app_id", q.AppID).
		Int("regions", len(regions)).Msg("aggregation started")

	results := make([][]domain.Review, len(regions))
	errs := make([]*domain.Error, len(regions))

	g := new(errgroup.Group)
	g.SetLimit(aggregateConcurrency)
	for i, region := range regions {
		i, region := i, region
		g.Go(func() error {
			rq := domain.ReviewQuery{
				Platform: q.Platform,
				AppID:    q.AppID,
				Region:   region,
				Language: q.Language,
				Count:    q.Count,
				Sort:     q.Sort,
				TextOnly: q.TextOnly,
			}
			results[i], errs[i] = a.svc.Reviews(ctx, rq)
			return nil // a region's failure never aborts the aggregation
		})
	}
	_ = g.Wait()

	seen := make(map[string]struct{})
	var out []domain.Review
	for i, region := range regions {
		if errs[i] != nil {
			observability.ObserveRegion(string(q.Platform), region, "error")
			a.log.Warn().Str("region", region).Str("kind", string(errs[i].Kind)).
				Str("cause", errs[i].Message).Msg("region skipped")
			continue
		}
		if len(results[i]) == 0 {
			observability.ObserveRegion(string(q.Platform), region, "empty")
			a.log.Info().Str("region", region).Msg("region returned no reviews")
			continue
		}
		observability.ObserveRegion(string(q.Platform), region, "ok")
		for _, r := range results[i] {
			if r.ReviewID == "" {
				continue // no identity, no dedup guarantee
			}
			if _, dup := seen[r.ReviewID]; dup {
				continue
			}
			seen[r.ReviewID] = struct{}{}
			r.FetchedFromCountry = region
			out = append(out, r)
		}
	}

	if len(out) == 0 {
		return nil, domain.Errf(domain.KindTotalAggregation, q.AppID, "no reviews found across any region")
	}
	a.log.Info().Str("app_id", q.AppID).Int("unique_reviews", len(out)).Msg("aggregation completed")
	return out, nil
}
