// internal/adapters/http_server/handlers.go
package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"store_reviews/internal/app"
	"store_reviews/internal/domain"
)

type Handlers struct {
	Svc *app.FetchService
	Agg *app.Aggregator
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/apps/{platform}/{id}", h.getAppInfo)
	s.mux.Get("/v1/apps/{platform}/{id}/reviews", h.getReviews)
	s.mux.Get("/v1/apps/{platform}/{id}/reviews/aggregate", h.getAggregatedReviews)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeDomainError maps the pipeline's error variant onto HTTP and
// serializes it unchanged so callers see kind/app_id/suggestion.
func writeDomainError(w http.ResponseWriter, derr *domain.Error) {
	status := http.StatusBadGateway
	switch derr.Kind {
	case domain.KindIdentifier:
		status = http.StatusBadRequest
	case domain.KindEmpty, domain.KindTotalAggregation:
		status = http.StatusNotFound
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(derr); err != nil {
		log.Error().Err(err).Msg("write JSON error response failed")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON body failed")
	}
}

func platformParam(r *http.Request) (domain.Platform, bool) {
	return domain.ParsePlatform(chi.URLParam(r, "platform"))
}

func (h *Handlers) getAppInfo(w http.ResponseWriter, r *http.Request) {
	platform, ok := platformParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid platform", "platform must be 'play' or 'appstore'")
		return
	}
	q := domain.InfoQuery{
		Platform: platform,
		AppID:    chi.URLParam(r, "id"),
		Region:   r.URL.Query().Get("region"),
		Language: r.URL.Query().Get("lang"),
	}
	info, derr := h.Svc.AppInfo(r.Context(), q)
	if derr != nil {
		writeDomainError(w, derr)
		return
	}
	writeJSON(w, info)
}

func (h *Handlers) getReviews(w http.ResponseWriter, r *http.Request) {
	platform, ok := platformParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid platform", "platform must be 'play' or 'appstore'")
		return
	}
	q := domain.ReviewQuery{
		Platform: platform,
		AppID:    chi.URLParam(r, "id"),
		Region:   r.URL.Query().Get("region"),
		Language: r.URL.Query().Get("lang"),
		TextOnly: boolParam(r, "text_only"),
	}
	var perr string
	if q.Count, perr = countParam(r); perr != "" {
		writeProblem(w, http.StatusBadRequest, "Invalid count", perr)
		return
	}
	sort, ok := domain.ParseSort(r.URL.Query().Get("sort"))
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid sort", "sort must be newest, rating or helpfulness")
		return
	}
	q.Sort = sort
	mode, ok := app.ParseMode(r.URL.Query().Get("mode"))
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid mode", "mode must be full, text or title_text")
		return
	}

	reviews, derr := h.Svc.Reviews(r.Context(), q)
	if derr != nil {
		writeDomainError(w, derr)
		return
	}
	writeJSON(w, app.Project(mode, reviews))
}

func (h *Handlers) getAggregatedReviews(w http.ResponseWriter, r *http.Request) {
	platform, ok := platformParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid platform", "platform must be 'play' or 'appstore'")
		return
	}
	q := domain.AggregateQuery{
		Platform: platform,
		AppID:    chi.URLParam(r, "id"),
		Regions:  splitRegions(r.URL.Query().Get("regions")),
		Language: r.URL.Query().Get("lang"),
		TextOnly: boolParam(r, "text_only"),
	}
	var perr string
	if q.Count, perr = countParam(r); perr != "" {
		writeProblem(w, http.StatusBadRequest, "Invalid count", perr)
		return
	}
	sort, ok := domain.ParseSort(r.URL.Query().Get("sort"))
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid sort", "sort must be newest, rating or helpfulness")
		return
	}
	q.Sort = sort
	mode, ok := app.ParseMode(r.URL.Query().Get("mode"))
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid mode", "mode must be full, text or title_text")
		return
	}

	reviews, derr := h.Agg.MultiRegion(r.Context(), q)
	if derr != nil {
		writeDomainError(w, derr)
		return
	}
	writeJSON(w, app.Project(mode, reviews))
}

func countParam(r *http.Request) (int, string) {
	cs := r.URL.Query().Get("count")
	if cs == "" {
		return 0, "" // service default applies
	}
	n, err := strconv.Atoi(cs)
	if err != nil || n <= 0 {
		return 0, "count must be a positive integer"
	}
	return n, ""
}

func boolParam(r *http.Request, name string) bool {
	v := strings.ToLower(r.URL.Query().Get(name))
	return v == "1" || v == "true" || v == "yes"
}

func splitRegions(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.ToLower(strings.TrimSpace(p)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
