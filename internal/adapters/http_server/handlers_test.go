package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	server "skillswap/internal/adapters/http_server"
	"skillswap/internal/adapters/memcache"
	"skillswap/internal/app"
	"skillswap/internal/domain"
)

type cannedGen struct {
	byText map[string]string
	err    error
}

func (g cannedGen) Generate(_ context.Context, prompt string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	for k, v := range g.byText {
		if strings.Contains(prompt, k) {
			return v, nil
		}
	}
	return "echo: " + prompt, nil
}

type memRepo struct {
	mu   sync.Mutex
	rows []domain.StoredReview
}

func (r *memRepo) InsertReview(_ context.Context, rv domain.StoredReview) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append([]domain.StoredReview{rv}, r.rows...)
	return nil
}
func (r *memRepo) ListReviewsForProvider(_ context.Context, id string, pg domain.PageQuery) (domain.ReviewsPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := domain.ReviewsPage{Items: []domain.StoredReview{}}
	for _, rv := range r.rows {
		if rv.ReviewedUserID == id && len(out.Items) < pg.Limit {
			out.Items = append(out.Items, rv)
		}
	}
	return out, nil
}
func (r *memRepo) ListProviders(context.Context) ([]string, error) { return nil, nil }

const (
	greatJSON = "```json\n{\"sentimentScore\":9,\"responseRating\":9,\"onTimeDeliveryRating\":8,\"qualityRating\":9,\"communicationRating\":8,\"keyStrengths\":[\"fast\"],\"areasForImprovement\":[],\"summary\":\"great\"}\n```"
	lateJSON  = `{"sentimentScore":3,"responseRating":4,"onTimeDeliveryRating":2,"qualityRating":4,"communicationRating":4,"keyStrengths":[],"areasForImprovement":["late"],"summary":"late"}`
)

func newTestServer(t *testing.T, gen domain.TextGenerator) *httptest.Server {
	t.Helper()
	an := app.NewAnalyzer(gen, 4)
	svc := app.NewReviewService(&memRepo{}, memcache.New(128, time.Minute), an, app.ReviewServiceOptions{
		CacheTTL: time.Minute, AnalysisTTL: time.Minute,
	})
	srv := server.New(5 * time.Second)
	srv.MountHandlers(&server.Handlers{Analyzer: an, Reviews: svc, Gen: gen})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestAnalyzeReviews_OK(t *testing.T) {
	ts := newTestServer(t, cannedGen{byText: map[string]string{"Great": greatJSON, "Late": lateJSON}})

	resp := post(t, ts.URL+"/v1/analysis/reviews", `{"reviews":[
		{"content":"Great and fast","rating":5,"date":"2024-05-01","reviewerId":"u1"},
		{"content":"Late delivery","rating":2,"reviewerId":"u2"}]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		Success  bool                 `json:"success"`
		Analysis domain.BatchAnalysis `json:"analysis"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Success || out.Analysis.Aggregate.SentimentScore != 6.0 || out.Analysis.Aggregate.OnTimeDeliveryRating != 5.0 {
		t.Fatalf("unexpected body: %+v", out)
	}
	if len(out.Analysis.Individual) != 2 || out.Analysis.Individual[0].ReviewID != "u1" {
		t.Fatalf("individual = %+v", out.Analysis.Individual)
	}
}

func TestAnalyzeReviews_BadRequests(t *testing.T) {
	ts := newTestServer(t, cannedGen{})
	for name, body := range map[string]string{
		"not json":      `{`,
		"missing array": `{}`,
		"empty array":   `{"reviews":[]}`,
		"blank content": `{"reviews":[{"content":"  "}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp := post(t, ts.URL+"/v1/analysis/reviews", body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
				t.Fatalf("content-type = %q", ct)
			}
		})
	}
}

// promptLog records prompts so tests can inspect what reached the model.
type promptLog struct {
	mu      sync.Mutex
	prompts []string
}

func (g *promptLog) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return greatJSON, nil
}

func TestAnalyzeReviews_OutOfRangeRatingStillAnalyzed(t *testing.T) {
	for name, body := range map[string]string{
		"zero": `{"reviews":[{"content":"Great and fast","rating":0}]}`,
		"ten":  `{"reviews":[{"content":"Great and fast","rating":10}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			gen := &promptLog{}
			ts := newTestServer(t, gen)

			resp := post(t, ts.URL+"/v1/analysis/reviews", body)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			var out struct {
				Analysis domain.BatchAnalysis `json:"analysis"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(out.Analysis.Individual) != 1 || out.Analysis.Individual[0].SentimentScore != 9 {
				t.Fatalf("unexpected analysis: %+v", out.Analysis)
			}

			gen.mu.Lock()
			defer gen.mu.Unlock()
			if len(gen.prompts) != 1 || strings.Contains(gen.prompts[0], "/5") {
				t.Fatalf("out-of-range rating reached the prompt: %q", gen.prompts)
			}
		})
	}
}

func TestAnalyzeReviews_GeneratorMissing(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := post(t, ts.URL+"/v1/analysis/reviews", `{"reviews":[{"content":"fine"}]}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestSubmitListAndAnalyzeProvider(t *testing.T) {
	ts := newTestServer(t, cannedGen{byText: map[string]string{"Great": greatJSON}})

	resp := post(t, ts.URL+"/v1/reviews", `{"reviewerUserId":"r1","reviewedUserId":"p1","skillId":"go","rating":5,"comment":"Great mentor"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status = %d", resp.StatusCode)
	}
	if resp := post(t, ts.URL+"/v1/reviews", `{"reviewedUserId":"p1","rating":5}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid submit status = %d", resp.StatusCode)
	}

	res, err := http.Get(ts.URL + "/v1/providers/p1/reviews?limit=10")
	if err != nil {
		t.Fatalf("GET reviews: %v", err)
	}
	defer res.Body.Close()
	etag := res.Header.Get("ETag")
	if res.StatusCode != http.StatusOK || etag == "" {
		t.Fatalf("list status = %d etag=%q", res.StatusCode, etag)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/providers/p1/reviews?limit=10", nil)
	req.Header.Set("If-None-Match", etag)
	res2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("conditional GET: %v", err)
	}
	defer res2.Body.Close()
	if res2.StatusCode != http.StatusNotModified {
		t.Fatalf("conditional status = %d", res2.StatusCode)
	}

	bad, err := http.Get(ts.URL + "/v1/providers/p1/reviews?limit=500")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("limit status = %d", bad.StatusCode)
	}

	an, err := http.Get(ts.URL + "/v1/providers/p1/analysis")
	if err != nil {
		t.Fatalf("GET analysis: %v", err)
	}
	defer an.Body.Close()
	var ba domain.BatchAnalysis
	if err := json.NewDecoder(an.Body).Decode(&ba); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if an.StatusCode != http.StatusOK || ba.Aggregate.SentimentScore != 9 {
		t.Fatalf("analysis = %d %+v", an.StatusCode, ba.Aggregate)
	}

	none, err := http.Get(ts.URL + "/v1/providers/nobody/analysis")
	if err != nil {
		t.Fatalf("GET analysis: %v", err)
	}
	defer none.Body.Close()
	if none.StatusCode != http.StatusNotFound {
		t.Fatalf("empty provider status = %d", none.StatusCode)
	}
}

func TestGenerate(t *testing.T) {
	ts := newTestServer(t, cannedGen{})
	resp := post(t, ts.URL+"/v1/generate", `{"prompt":"hi"}`)
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != http.StatusOK || out["response"] != "echo: hi" {
		t.Fatalf("generate = %d %v", resp.StatusCode, out)
	}
	if resp := post(t, ts.URL+"/v1/generate", `{"prompt":""}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty prompt status = %d", resp.StatusCode)
	}

	failing := newTestServer(t, cannedGen{err: errors.New("upstream")})
	if resp := post(t, failing.URL+"/v1/generate", `{"prompt":"hi"}`); resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("upstream failure status = %d", resp.StatusCode)
	}

	missing := newTestServer(t, nil)
	if resp := post(t, missing.URL+"/v1/generate", `{"prompt":"hi"}`); resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("no generator status = %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)
	res, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
}
