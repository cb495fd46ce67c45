package api

import (
	"github.com/noxwise/noxwise/internal/engine"
	"github.com/noxwise/noxwise/internal/history"
	"github.com/noxwise/noxwise/internal/turbine"
)

// EvaluateRequest is the payload for POST /api/v1/evaluate.
type EvaluateRequest struct {
	Band   string         `json:"band"`
	Params turbine.Vector `json:"params"`
}

// EvaluateResponse is the reply: the engine result plus the stored history
// entry's timestamp.
type EvaluateResponse struct {
	Band      string         `json:"band"`
	Timestamp string         `json:"timestamp"` // RFC3339Nano
	Result    *engine.Result `json:"result"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status       string `json:"status"`
	Bands        int    `json:"bands"`
	HistoryDepth int    `json:"history_depth"`
	StatsFields  int    `json:"stats_fields"`
}

// BandResponse is one configured band in GET /api/v1/bands.
type BandResponse struct {
	ID            string                   `json:"id"`
	Label         string                   `json:"label"`
	YieldMin      float64                  `json:"yield_min,omitempty"`
	YieldMax      float64                  `json:"yield_max,omitempty"`
	AtDesignLimit bool                     `json:"at_design_limit"`
	SiteNOxLimit  *float64                 `json:"site_nox_limit,omitempty"`
	BaselineNOx   *float64                 `json:"baseline_nox,omitempty"`
	Envelope      map[string]turbine.Range `json:"envelope"`
	Medians       map[string]float64       `json:"medians"`
}

// HistoryResponse is the payload for GET /api/v1/history and the WebSocket
// broadcast envelope's data.
type HistoryResponse struct {
	Evaluations []history.Evaluation `json:"evaluations"`
	GeneratedAt string               `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
