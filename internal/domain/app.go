package domain

import "time"

// AppInfo is the identity and descriptive snapshot of one app on one
// platform at fetch time. Optional fields are nil when the upstream
// omits them; JSON encodes them as explicit nulls so consumers can tell
// "absent upstream" from "present but empty".
type AppInfo struct {
	AppID         string    `json:"app_id"`
	Title         string    `json:"title"`
	Developer     string    `json:"developer"`
	DeveloperID   *string   `json:"developer_id"`
	Icon          *string   `json:"icon"`
	Rating        *float64  `json:"rating"`
	RatingsCount  *int64    `json:"ratings_count"`
	ReviewsCount  *int64    `json:"reviews_count"`
	Installs      *string   `json:"installs"`
	Price         *string   `json:"price"`
	Currency      *string   `json:"currency"`
	Description   *string   `json:"description"`
	Summary       *string   `json:"summary"`
	Released      *string   `json:"released"`
	LastUpdated   *string   `json:"last_updated"`
	Version       *string   `json:"version"`
	Category      *string   `json:"category"`
	ContentRating *string   `json:"content_rating"`
	URL           *string   `json:"url"`
	Country       string    `json:"country"`
	FetchedAt     time.Time `json:"fetched_at"`
}
