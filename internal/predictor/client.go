package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/noxwise/noxwise/internal/config"
	"github.com/noxwise/noxwise/internal/turbine"
)

// UnavailableError means the prediction service could not be reached or
// returned a non-success status. It carries the attempted endpoint so the
// operator can diagnose connectivity or configuration problems.
type UnavailableError struct {
	Endpoint string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("prediction service unavailable (%s): %v", e.Endpoint, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// response mirrors the service's reply: {"NOX_pred": <float>}.
type response struct {
	NOxPred float64 `json:"NOX_pred"`
}

// Client calls the band-specific prediction endpoints.
type Client struct {
	baseURL string
	client  *http.Client
}

// New builds a Client from the predictor configuration.
func New(cfg config.PredictorConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultPredictTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Predict posts params to the band's endpoint and returns the predicted NOx
// value. The vector is validated before anything goes on the wire.
func (c *Client) Predict(ctx context.Context, band config.Band, params turbine.Vector) (float64, error) {
	if err := params.Validate(); err != nil {
		return 0, err
	}

	url := c.baseURL + band.Endpoint
	body, err := json.Marshal(params)
	if err != nil {
		return 0, fmt.Errorf("predict: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("predict: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, &UnavailableError{Endpoint: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Include a snippet of the body — FastAPI validation errors are short
		// and say exactly which field was rejected.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return 0, &UnavailableError{
			Endpoint: url,
			Err:      fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, &UnavailableError{Endpoint: url, Err: fmt.Errorf("decode response: %w", err)}
	}
	return out.NOxPred, nil
}
