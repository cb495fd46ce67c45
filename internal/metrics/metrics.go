package metrics

import (
	"net/http"
	"sort"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Registry accumulates server counters and renders them as Prometheus text.
// It is safe for concurrent use.
type Registry struct {
	mu                 sync.Mutex
	evaluations        map[string]float64 // by risk level
	predictionFailures float64

	// historyDepth reports the current evaluation count; wired to the
	// history store by the caller.
	historyDepth func() int
}

// New creates a Registry. depth may be nil when no history gauge is wanted.
func New(depth func() int) *Registry {
	return &Registry{
		evaluations:  make(map[string]float64),
		historyDepth: depth,
	}
}

// Evaluation counts one completed evaluation with the given risk grade.
func (r *Registry) Evaluation(risk string) {
	r.mu.Lock()
	r.evaluations[risk]++
	r.mu.Unlock()
}

// PredictionFailure counts one failed prediction round trip.
func (r *Registry) PredictionFailure() {
	r.mu.Lock()
	r.predictionFailures++
	r.mu.Unlock()
}

// ServeHTTP renders all metric families in the Prometheus text format.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.mu.Lock()
	evals := make(map[string]float64, len(r.evaluations))
	for k, v := range r.evaluations {
		evals[k] = v
	}
	failures := r.predictionFailures
	r.mu.Unlock()

	w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	families := []*dto.MetricFamily{
		evaluationsFamily(evals),
		counterFamily("noxwise_prediction_failures_total",
			"Prediction service calls that failed or returned a non-success status.", failures),
	}
	if r.historyDepth != nil {
		families = append(families, gaugeFamily("noxwise_history_depth",
			"Evaluations currently held in the in-memory history.", float64(r.historyDepth())))
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return
		}
	}
}

// evaluationsFamily builds the per-risk counter family with a stable label
// order so scrapes are deterministic.
func evaluationsFamily(byRisk map[string]float64) *dto.MetricFamily {
	risks := make([]string, 0, len(byRisk))
	for k := range byRisk {
		risks = append(risks, k)
	}
	sort.Strings(risks)

	ms := make([]*dto.Metric, 0, len(risks))
	for _, risk := range risks {
		ms = append(ms, &dto.Metric{
			Label:   []*dto.LabelPair{{Name: strPtr("risk"), Value: strPtr(risk)}},
			Counter: &dto.Counter{Value: f64Ptr(byRisk[risk])},
		})
	}
	return &dto.MetricFamily{
		Name:   strPtr("noxwise_evaluations_total"),
		Help:   strPtr("Completed evaluations by risk level."),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: ms,
	}
}

func counterFamily(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   strPtr(name),
		Help:   strPtr(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: f64Ptr(v)}}},
	}
}

func gaugeFamily(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   strPtr(name),
		Help:   strPtr(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: f64Ptr(v)}}},
	}
}

func strPtr(s string) *string   { return &s }
func f64Ptr(v float64) *float64 { return &v }
