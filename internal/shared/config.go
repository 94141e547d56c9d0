package shared

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	PlayBase    string
	FeedBase    string
	UpstreamRPS int
	ReviewCount int
	CacheTTL    time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	return Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		RedisAddr:   env("REDIS_ADDR", ""), // empty disables the response cache
		RedisDB:     atoi("REDIS_DB", 0),
		RedisPass:   env("REDIS_PASSWORD", ""),
		PlayBase:    env("PLAY_BASE_URL", "https://play.google.com"),
		FeedBase:    env("FEED_BASE_URL", "https://itunes.apple.com"),
		UpstreamRPS: atoi("UPSTREAM_RPS", 5),
		ReviewCount: atoi("REVIEW_COUNT", 100),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
