package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/noxwise/noxwise/internal/config"
	"github.com/noxwise/noxwise/internal/engine"
	"github.com/noxwise/noxwise/internal/history"
	"github.com/noxwise/noxwise/internal/metrics"
	"github.com/noxwise/noxwise/internal/predictor"
	"github.com/noxwise/noxwise/internal/stats"
	"github.com/noxwise/noxwise/internal/turbine"
)

// Predictor is the prediction collaborator contract, abstracted so tests can
// stub the external service.
type Predictor interface {
	Predict(ctx context.Context, band config.Band, params turbine.Vector) (float64, error)
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	store      *history.Store
	fieldStats map[string]stats.FieldStats
	predict    Predictor
	registry   *metrics.Registry
	mux        *http.ServeMux

	mu  sync.RWMutex
	cfg *config.Config
}

// New creates a Handler and registers all routes. fieldStats may be nil when
// no historical dataset is configured; registry may be nil to disable
// counters.
func New(cfg *config.Config, st *history.Store, fieldStats map[string]stats.FieldStats, p Predictor, reg *metrics.Registry) *Handler {
	h := &Handler{
		store:      st,
		fieldStats: fieldStats,
		predict:    p,
		registry:   reg,
		mux:        http.NewServeMux(),
		cfg:        cfg,
	}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/bands", h.bands)
	h.mux.HandleFunc("/api/v1/stats", h.statistics)
	h.mux.HandleFunc("/api/v1/evaluate", h.evaluate)
	h.mux.HandleFunc("/api/v1/history", h.history)
	h.mux.HandleFunc("/api/v1/history/export", h.exportCSV)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// SetConfig swaps the active configuration. Called by the config watcher so
// envelope or threshold tuning takes effect without a restart.
func (h *Handler) SetConfig(cfg *config.Config) {
	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()
}

func (h *Handler) config() *config.Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	cfg := h.config()
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:       "ok",
		Bands:        len(cfg.Bands),
		HistoryDepth: h.store.Count(),
		StatsFields:  len(h.fieldStats),
	})
}

// bands returns GET /api/v1/bands — the configured load bands.
func (h *Handler) bands(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	cfg := h.config()
	out := make([]BandResponse, 0, len(cfg.Bands))
	for _, b := range cfg.Bands {
		out = append(out, BandResponse{
			ID:            b.ID,
			Label:         b.Label,
			YieldMin:      b.YieldMin,
			YieldMax:      b.YieldMax,
			AtDesignLimit: b.AtDesignLimit,
			SiteNOxLimit:  b.SiteNOxLimit,
			BaselineNOx:   b.BaselineNOx,
			Envelope:      b.Envelope,
			Medians:       b.Medians,
		})
	}
	jsonResp(w, http.StatusOK, out)
}

// statistics returns GET /api/v1/stats — the per-field historical summary.
func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if len(h.fieldStats) == 0 {
		jsonErr(w, http.StatusNotFound, "no historical dataset configured")
		return
	}
	jsonResp(w, http.StatusOK, h.fieldStats)
}

// evaluate handles POST /api/v1/evaluate: predict, grade, record.
func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}

	cfg := h.config()
	band, ok := cfg.BandByID(req.Band)
	if !ok {
		jsonErr(w, http.StatusBadRequest, fmt.Sprintf("unknown band %q", req.Band))
		return
	}
	if err := req.Params.Validate(); err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	prediction, err := h.predict.Predict(r.Context(), band, req.Params)
	if err != nil {
		if h.registry != nil {
			h.registry.PredictionFailure()
		}
		var unavail *predictor.UnavailableError
		if errors.As(err, &unavail) {
			slog.Error("evaluate: prediction unavailable",
				"band", band.ID, "endpoint", unavail.Endpoint, "err", unavail.Err)
			jsonErr(w, http.StatusBadGateway, unavail.Error())
			return
		}
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	st := engine.State{
		Band:       band,
		Params:     req.Params,
		Prediction: prediction,
		Tuning:     cfg.Engine,
	}
	if prev, ok := h.store.Last(band.ID); ok {
		p := prev.Prediction
		st.PrevPrediction = &p
		st.PrevParams = prev.Params
	}

	result, err := engine.Evaluate(st)
	if err != nil {
		// Validate above makes this unreachable for well-formed input.
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	entry := h.store.Append(band.ID, req.Params, prediction, string(result.Risk))
	if h.registry != nil {
		h.registry.Evaluation(string(result.Risk))
	}

	slog.Info("evaluation recorded",
		"band", band.ID,
		"prediction", prediction,
		"risk", result.Risk,
		"actions", len(result.Actions),
	)

	jsonResp(w, http.StatusOK, EvaluateResponse{
		Band:      band.ID,
		Timestamp: entry.Timestamp.Format(time.RFC3339Nano),
		Result:    result,
	})
}

// history returns GET /api/v1/history — the session's evaluations as JSON.
func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildHistory(h.store))
}

// exportCSV returns GET /api/v1/history/export — a lossless CSV download of
// the evaluation history for offline review.
func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="noxwise-history-%s.csv"`, time.Now().UTC().Format("20060102-150405")))
	if err := h.store.WriteCSV(w); err != nil {
		slog.Error("history export failed", "err", err)
	}
}

// BuildHistory assembles the history payload. Shared with the WebSocket hub
// so REST and stream clients see the same shape.
func BuildHistory(st *history.Store) HistoryResponse {
	return HistoryResponse{
		Evaluations: st.List(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
