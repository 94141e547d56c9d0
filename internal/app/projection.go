package app

import "store_reviews/internal/domain"

// Mode selects the presentation projection applied to a review
// collection. AppInfo and error results are never projected.
type Mode string

const (
	ModeFull      Mode = "full"
	ModeTextOnly  Mode = "text"
	ModeTitleText Mode = "title_text"
)

// ParseMode returns ModeFull for empty input and ok=false for unknown
// tokens.
func ParseMode(s string) (Mode, bool) {
	if s == "" {
		return ModeFull, true
	}
	switch Mode(s) {
	case ModeFull, ModeTextOnly, ModeTitleText:
		return Mode(s), true
	}
	return "", false
}

// TextRow is the TextOnly projection of one review.
type TextRow struct {
	Text string `json:"text"`
}

// TitleTextRow is the TitleText projection of one review.
type TitleTextRow struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Project applies mode to a review collection. Full is the identity.
func Project(mode Mode, reviews []domain.Review) any {
	switch mode {
	case ModeTextOnly:
		out := make([]TextRow, len(reviews))
		for i, r := range reviews {
			out[i] = TextRow{Text: r.Text}
		}
		return out
	case ModeTitleText:
		out := make([]TitleTextRow, len(reviews))
		for i, r := range reviews {
			out[i] = TitleTextRow{Title: r.Title, Text: r.Text}
		}
		return out
	default:
		return reviews
	}
}
