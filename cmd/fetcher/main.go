package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"store_reviews/internal/adapters/appstorefeed"
	"store_reviews/internal/adapters/observability"
	"store_reviews/internal/adapters/playstore"
	redisad "store_reviews/internal/adapters/redis"
	"store_reviews/internal/app"
	"store_reviews/internal/domain"
	"store_reviews/internal/export"
	"store_reviews/internal/shared"
)

// fetcher is the one-shot path: fetch metadata plus a cross-region
// review aggregate for each requested app and write one export
// document per app.

type document struct {
	AppInfo *domain.AppInfo `json:"app_info"`
	Reviews any             `json:"reviews"`
	Error   *domain.Error   `json:"error,omitempty"`
}

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	platform, ok := domain.ParsePlatform(envOr("FETCH_PLATFORM", "play"))
	if !ok {
		log.Fatal().Str("platform", os.Getenv("FETCH_PLATFORM")).Msg("unknown platform")
	}
	appIDs := splitList(os.Getenv("FETCH_APP_IDS"))
	if len(appIDs) == 0 {
		log.Fatal().Msg("FETCH_APP_IDS is empty")
	}
	regions := splitList(os.Getenv("FETCH_REGIONS"))
	outDir := envOr("FETCH_OUT_DIR", ".")
	textOnly := os.Getenv("FETCH_TEXT_ONLY") == "true"
	sort, ok := domain.ParseSort(os.Getenv("FETCH_SORT"))
	if !ok {
		log.Fatal().Str("sort", os.Getenv("FETCH_SORT")).Msg("unknown sort order")
	}
	workers := int64(3)

	log.Info().
		Str("platform", string(platform)).
		Int("apps", len(appIDs)).
		Int("regions", len(regions)).
		Msg("fetcher starting")

	sources := map[domain.Platform]domain.SourceAdapter{
		domain.PlatformPlay:     app.NewPlaySource(playstore.New(cfg.PlayBase, cfg.UpstreamRPS), log.Logger),
		domain.PlatformAppStore: app.NewAppStoreSource(appstorefeed.New(cfg.FeedBase, cfg.UpstreamRPS), log.Logger),
	}
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		cache = redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	}
	svc := app.NewFetchService(sources, cache, cfg.CacheTTL, log.Logger)
	agg := app.NewAggregator(svc, log.Logger)

	sem := semaphore.NewWeighted(workers)
	var wg sync.WaitGroup

	for _, appID := range appIDs {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(appID string) {
			defer wg.Done()
			defer sem.Release(1)

			doc := fetchOne(ctx, svc, agg, platform, appID, regions, cfg.ReviewCount, sort, textOnly)
			path := filepath.Join(outDir, string(platform)+"_"+sanitize(appID)+".json")
			if err := export.WriteFile(path, doc); err != nil {
				log.Error().Str("app_id", appID).Err(err).Msg("export failed")
				return
			}
			log.Info().Str("app_id", appID).Str("path", path).Msg("export written")
		}(appID)
	}

	wg.Wait()
	log.Info().Msg("fetch run completed")
}

func fetchOne(ctx context.Context, svc *app.FetchService, agg *app.Aggregator,
	platform domain.Platform, appID string, regions []string, count int,
	sort domain.Sort, textOnly bool) document {

	var doc document
	if info, derr := svc.AppInfo(ctx, domain.InfoQuery{Platform: platform, AppID: appID}); derr != nil {
		log.Warn().Str("app_id", appID).Err(derr).Msg("app info unavailable")
	} else {
		doc.AppInfo = &info
	}

	reviews, derr := agg.MultiRegion(ctx, domain.AggregateQuery{
		Platform: platform,
		AppID:    appID,
		Regions:  regions,
		Count:    count,
		Sort:     sort,
		TextOnly: textOnly,
	})
	if derr != nil {
		doc.Error = derr
		return doc
	}
	doc.Reviews = reviews
	return doc
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' {
			return '_'
		}
		return r
	}, s)
}
