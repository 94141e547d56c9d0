package main

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"store_reviews/internal/adapters/appstorefeed"
	server "store_reviews/internal/adapters/http_server"
	"store_reviews/internal/adapters/observability"
	"store_reviews/internal/adapters/playstore"
	redisad "store_reviews/internal/adapters/redis"
	"store_reviews/internal/app"
	"store_reviews/internal/domain"
	"store_reviews/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// upstream sources
	sources := map[domain.Platform]domain.SourceAdapter{
		domain.PlatformPlay:     app.NewPlaySource(playstore.New(cfg.PlayBase, cfg.UpstreamRPS), log.Logger),
		domain.PlatformAppStore: app.NewAppStoreSource(appstorefeed.New(cfg.FeedBase, cfg.UpstreamRPS), log.Logger),
	}

	// optional response cache
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		cache = redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		log.Info().Str("addr", cfg.RedisAddr).Msg("response cache enabled")
	}

	svc := app.NewFetchService(sources, cache, cfg.CacheTTL, log.Logger)
	agg := app.NewAggregator(svc, log.Logger)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Svc: svc, Agg: agg})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
