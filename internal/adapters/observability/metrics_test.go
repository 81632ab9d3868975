package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skillswap/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so the vectors are exported
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveAnalysis("fallback")
	observability.ObserveBatch(3)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, name := range []string{
		"skillswap_http_requests_total",
		`skillswap_review_analyses_total{outcome="fallback"}`,
		"skillswap_analysis_batch_size_count",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}

func TestInitRegistry_Reusable(t *testing.T) {
	if observability.InitRegistry() != observability.InitRegistry() {
		t.Fatalf("expected the same registry on repeated calls")
	}
}

func TestNewLogger_Level(t *testing.T) {
	if got := observability.NewLogger("prod", "debug").GetLevel().String(); got != "debug" {
		t.Fatalf("level = %s, want debug", got)
	}
	if got := observability.NewLogger("dev", "bogus").GetLevel().String(); got != "info" {
		t.Fatalf("level = %s, want info", got)
	}
}
