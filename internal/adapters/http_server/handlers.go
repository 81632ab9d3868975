package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"skillswap/internal/app"
	"skillswap/internal/domain"
)

type Handlers struct {
	Analyzer *app.Analyzer
	Reviews  *app.ReviewService
	Gen      domain.TextGenerator // nil when no provider is configured
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/v1/analysis/reviews", h.analyzeReviews)
	s.mux.Post("/v1/reviews", h.submitReview)
	s.mux.Get("/v1/providers/{id}/reviews", h.listReviews)
	s.mux.Get("/v1/providers/{id}/analysis", h.providerAnalysis)
	s.mux.Post("/v1/generate", h.generate)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyBatch):
		writeProblem(w, http.StatusBadRequest, "No Reviews", err.Error())
	case errors.Is(err, domain.ErrInvalidReview):
		writeProblem(w, http.StatusBadRequest, "Invalid Review", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrGeneratorNotConfigured):
		writeProblem(w, http.StatusInternalServerError, "Analysis Unavailable", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "failed to process request")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeWithETag(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// ---- analysis ----

type reviewIn struct {
	Content    string   `json:"content"`
	Rating     *float64 `json:"rating"`
	Date       string   `json:"date"`
	ReviewerID string   `json:"reviewerId"`
}

type analyzeRequest struct {
	Reviews []reviewIn `json:"reviews"`
}

func (h *Handlers) analyzeReviews(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "request body must be JSON")
		return
	}
	if len(req.Reviews) == 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid Reviews", "valid reviews array is required")
		return
	}

	reviews := make([]domain.Review, 0, len(req.Reviews))
	for i, in := range req.Reviews {
		if strings.TrimSpace(in.Content) == "" {
			writeProblem(w, http.StatusBadRequest, "Invalid Reviews", "reviews["+strconv.Itoa(i)+"].content is required")
			return
		}
		reviews = append(reviews, domain.Review{
			Content:    in.Content,
			Rating:     starRating(in.Rating),
			Date:       parseDate(in.Date),
			ReviewerID: in.ReviewerID,
		})
	}

	res, err := h.Analyzer.AnalyzeBatch(r.Context(), reviews)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "analysis": res})
}

// starRating keeps a 1..5 rating; anything else is left out of the prompt
// rather than rejecting the review.
func starRating(r *float64) *float64 {
	if r == nil || *r < 1 || *r > 5 {
		return nil
	}
	return r
}

// parseDate accepts RFC 3339 or a bare date; anything else is the zero time.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (h *Handlers) providerAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := h.Reviews.ProviderAnalysis(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyBatch) {
			writeProblem(w, http.StatusNotFound, "Not Found", "provider has no reviews to analyze")
			return
		}
		writeError(w, err)
		return
	}
	writeWithETag(w, r, res)
}

// ---- reviews ----

func (h *Handlers) submitReview(w http.ResponseWriter, r *http.Request) {
	var in domain.NewReview
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "request body must be JSON")
		return
	}
	rv, err := h.Reviews.Submit(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": rv})
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}

	out, err := h.Reviews.ListForProvider(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeWithETag(w, r, out)
}

// ---- raw generation ----

func (h *Handlers) generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid Prompt", "prompt is required")
		return
	}
	if h.Gen == nil {
		writeError(w, domain.ErrGeneratorNotConfigured)
		return
	}
	text, err := h.Gen.Generate(r.Context(), req.Prompt)
	if err != nil {
		log.Error().Err(err).Msg("generate failed")
		writeProblem(w, http.StatusBadGateway, "Generation Failed", "failed to process prompt")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": text})
}
