package app

import (
	"strconv"
	"strings"
	"time"

	"store_reviews/internal/domain"
)

/********** field paths per source (single source of truth) **********/

// The Play capability hands back flat camelCase maps; the feed hands
// back nested label-wrapped objects. Dot paths cover both.
var playReviewPaths = map[string]string{
	"id":         "reviewId",
	"user":       "userName",
	"user_image": "userImage",
	"rating":     "score",
	"date":       "date",
	"text":       "text",
	"thumbs_up":  "thumbsUp",
	"version":    "appVersion",
	"reply_text": "replyText",
	"reply_date": "replyDate",
}

var feedReviewPaths = map[string]string{
	"id":         "id.label",
	"user":       "author.name.label",
	"rating":     "im:rating.label",
	"date":       "updated.label",
	"title":      "title.label",
	"text":       "content.label",
	"version":    "im:version.label",
	"vote_sum":   "im:voteSum.label",
	"vote_count": "im:voteCount.label",
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns the string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// floatAt: number at any of the paths (float64/int/numeric string).
// Coercion failure yields nil, never a record failure.
func floatAt(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// int64At: int64 at any of the paths (float64/int/numeric string).
func int64At(m map[string]any, paths ...string) *int64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			x := int64(v)
			return &x
		case int:
			x := int64(v)
			return &x
		case int64:
			x := v
			return &x
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

// strOrNA: string at the first non-empty path, or the explicit
// unresolved sentinel.
func strOrNA(m map[string]any, paths ...string) string {
	for _, p := range paths {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return s
		}
	}
	return "N/A"
}

// numStr formats a numeric field as its display string, or nil.
func numStr(m map[string]any, path string) *string {
	switch v := lookupAny(m, path).(type) {
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		return &s
	case string:
		return ptrStr(v)
	}
	return nil
}

/********** Play mappers **********/

func mapPlayApp(appID, country string, m map[string]any) domain.AppInfo {
	id := lookupStr(m, "appId")
	if id == "" {
		id = appID
	}
	return domain.AppInfo{
		AppID:         id,
		Title:         strOrNA(m, "title"),
		Developer:     strOrNA(m, "developer"),
		DeveloperID:   ptrStr(lookupStr(m, "developerId")),
		Icon:          ptrStr(lookupStr(m, "icon")),
		Rating:        floatAt(m, "score"),
		RatingsCount:  int64At(m, "ratings"),
		ReviewsCount:  int64At(m, "reviews"),
		Installs:      installs(m),
		Price:         numStr(m, "price"),
		Currency:      ptrStr(lookupStr(m, "currency")),
		Description:   ptrStr(lookupStr(m, "description")),
		Summary:       ptrStr(lookupStr(m, "summary")),
		Released:      ptrStr(lookupStr(m, "released")),
		LastUpdated:   ptrStr(lookupStr(m, "updated")),
		Version:       ptrStr(lookupStr(m, "version")),
		Category:      ptrStr(lookupStr(m, "genre")),
		ContentRating: ptrStr(lookupStr(m, "contentRating")),
		URL:           ptrStr(lookupStr(m, "url")),
		Country:       country,
		FetchedAt:     time.Now().UTC(),
	}
}

// installs prefers the display string ("1,000,000+") over the bare
// minInstalls number.
func installs(m map[string]any) *string {
	if s := lookupStr(m, "installs"); s != "" {
		return &s
	}
	return numStr(m, "minInstalls")
}

func mapPlayReview(m map[string]any) domain.Review {
	user := lookupStr(m, playReviewPaths["user"])
	if strings.TrimSpace(user) == "" {
		user = domain.AnonymousUser
	}
	return domain.Review{
		ReviewID:   lookupStr(m, playReviewPaths["id"]),
		UserName:   user,
		UserImage:  ptrStr(lookupStr(m, playReviewPaths["user_image"])),
		Rating:     floatAt(m, playReviewPaths["rating"]),
		Date:       lookupStr(m, playReviewPaths["date"]),
		Text:       lookupStr(m, playReviewPaths["text"]),
		ThumbsUp:   int64At(m, playReviewPaths["thumbs_up"]),
		AppVersion: ptrStr(lookupStr(m, playReviewPaths["version"])),
		ReplyText:  ptrStr(lookupStr(m, playReviewPaths["reply_text"])),
		ReplyDate:  ptrStr(lookupStr(m, playReviewPaths["reply_date"])),
	}
}

/********** App Store feed mappers **********/

func mapFeedApp(appID, country string, entry map[string]any) domain.AppInfo {
	return domain.AppInfo{
		AppID:     appID,
		Title:     strOrNA(entry, "im:name.label", "title.label"),
		Developer: strOrNA(entry, "im:artist.label"),
		Icon:      largestImage(entry),
		Price:     ptrStr(lookupStr(entry, "im:price.label")),
		Released:  ptrStr(lookupStr(entry, "im:releaseDate.label")),
		Category:  ptrStr(lookupStr(entry, "category.attributes.label")),
		URL:       feedLink(entry),
		Country:   country,
		FetchedAt: time.Now().UTC(),
	}
}

func mapFeedReview(entry map[string]any) domain.Review {
	user := lookupStr(entry, feedReviewPaths["user"])
	if strings.TrimSpace(user) == "" {
		user = domain.AnonymousUser
	}
	return domain.Review{
		ReviewID:   lookupStr(entry, feedReviewPaths["id"]),
		UserName:   user,
		Rating:     floatAt(entry, feedReviewPaths["rating"]),
		Date:       lookupStr(entry, feedReviewPaths["date"]),
		Title:      lookupStr(entry, feedReviewPaths["title"]),
		Text:       lookupStr(entry, feedReviewPaths["text"]),
		VoteSum:    int64At(entry, feedReviewPaths["vote_sum"]),
		VoteCount:  int64At(entry, feedReviewPaths["vote_count"]),
		AppVersion: ptrStr(lookupStr(entry, feedReviewPaths["version"])),
	}
}

// isFeedReview distinguishes review entries from the app-metadata entry
// that leads each feed page: only reviews carry a rating.
func isFeedReview(entry map[string]any) bool {
	return lookupAny(entry, "im:rating") != nil
}

// largestImage picks the label of the last im:image variant (the feed
// orders them smallest to largest).
func largestImage(entry map[string]any) *string {
	raw, ok := entry["im:image"].([]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	obj, ok := raw[len(raw)-1].(map[string]any)
	if !ok {
		return nil
	}
	if s, ok := obj["label"].(string); ok && s != "" {
		return &s
	}
	return nil
}

// feedLink pulls the entry's store URL; the link field is an object
// normally but an array when alternates are present.
func feedLink(entry map[string]any) *string {
	if s := lookupStr(entry, "link.attributes.href"); s != "" {
		return &s
	}
	if raw, ok := entry["link"].([]any); ok {
		for _, it := range raw {
			if obj, ok := it.(map[string]any); ok {
				if s := lookupStr(obj, "attributes.href"); s != "" {
					return &s
				}
			}
		}
	}
	return nil
}

/********** admission **********/

// admit applies the text-only policy immediately after normalization:
// with textOnly set, a review whose body trims to nothing never enters
// a result collection.
func admit(reviews []domain.Review, textOnly bool) []domain.Review {
	if !textOnly {
		return reviews
	}
	out := make([]domain.Review, 0, len(reviews))
	for _, r := range reviews {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
