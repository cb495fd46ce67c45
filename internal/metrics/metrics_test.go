package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	return rec.Body.String()
}

func TestServeHTTP_RendersCounters(t *testing.T) {
	r := New(func() int { return 7 })
	r.Evaluation("normal")
	r.Evaluation("normal")
	r.Evaluation("high")
	r.PredictionFailure()

	body := scrape(t, r)

	for _, want := range []string{
		`noxwise_evaluations_total{risk="high"} 1`,
		`noxwise_evaluations_total{risk="normal"} 2`,
		`noxwise_prediction_failures_total 1`,
		`noxwise_history_depth 7`,
		`# TYPE noxwise_evaluations_total counter`,
		`# TYPE noxwise_history_depth gauge`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q:\n%s", want, body)
		}
	}

	// Labels render in sorted order so successive scrapes diff cleanly.
	if strings.Index(body, `risk="high"`) > strings.Index(body, `risk="normal"`) {
		t.Error("risk labels are not sorted")
	}
}

func TestServeHTTP_NoDepthGauge(t *testing.T) {
	r := New(nil)
	body := scrape(t, r)
	if strings.Contains(body, "noxwise_history_depth") {
		t.Error("depth gauge rendered without a depth source")
	}
}

func TestServeHTTP_MethodGuard(t *testing.T) {
	r := New(nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rec.Code)
	}
}
