package domain

// Review is one user review normalized across both marketplaces.
// ReviewID is the dedup key: unique within any aggregated result set.
// Fields only one source supplies (ThumbsUp, VoteSum, ReplyText, ...)
// stay nil for the other source and encode as JSON null, never as a
// missing key. FetchedFromCountry is stamped only by the aggregator.
type Review struct {
	ReviewID           string   `json:"review_id"`
	UserName           string   `json:"user_name"`
	UserImage          *string  `json:"user_image"`
	Rating             *float64 `json:"rating"`
	Date               string   `json:"date"`
	Title              string   `json:"title"`
	Text               string   `json:"text"`
	ThumbsUp           *int64   `json:"thumbs_up"`
	VoteSum            *int64   `json:"vote_sum"`
	VoteCount          *int64   `json:"vote_count"`
	AppVersion         *string  `json:"app_version"`
	ReplyText          *string  `json:"reply_text"`
	ReplyDate          *string  `json:"reply_date"`
	FetchedFromCountry string   `json:"fetched_from_country,omitempty"`
}

// AnonymousUser is substituted when an upstream review carries no name.
const AnonymousUser = "Anonymous"
