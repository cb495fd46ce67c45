package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
predictor:
  base_url: "http://localhost:8000"
bands:
  - id: full
    label: "Full range model"
    endpoint: /predict_full
`

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Server.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Server.HistoryCapacity != DefaultHistoryCapacity {
		t.Errorf("history_capacity: got %d, want %d", cfg.Server.HistoryCapacity, DefaultHistoryCapacity)
	}
	if cfg.Server.WSInterval != DefaultWSInterval {
		t.Errorf("ws_interval: got %v, want %v", cfg.Server.WSInterval, DefaultWSInterval)
	}
	if cfg.Predictor.Timeout != DefaultPredictTimeout {
		t.Errorf("predictor timeout: got %v, want %v", cfg.Predictor.Timeout, DefaultPredictTimeout)
	}
	if cfg.Engine.MaxActions != DefaultMaxActions || cfg.Engine.MaxAdvisories != DefaultMaxAdvisories {
		t.Errorf("caps: got %d/%d, want %d/%d",
			cfg.Engine.MaxActions, cfg.Engine.MaxAdvisories, DefaultMaxActions, DefaultMaxAdvisories)
	}

	th := cfg.Engine.Thresholds
	if th.VeryColdC != 12 || th.ColdC != 18 || th.WarmC != 28 {
		t.Errorf("temperature thresholds: got %v/%v/%v, want 12/18/28", th.VeryColdC, th.ColdC, th.WarmC)
	}
	if th.DeltaHighPct != 15 || th.DeltaWatchPct != 5 {
		t.Errorf("delta thresholds: got %v/%v, want 15/5", th.DeltaHighPct, th.DeltaWatchPct)
	}
}

func TestLoad_ExplicitValuesWin(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  http_port: 9090
  history_capacity: 50
  ws_interval: 2s
predictor:
  base_url: "http://models:8000"
  timeout: 3s
engine:
  max_actions: 7
  thresholds:
    cold_c: 16
bands:
  - id: full
    label: "Full range model"
    endpoint: /predict_full
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 9090 || cfg.Server.HistoryCapacity != 50 {
		t.Errorf("server: got %d/%d, want 9090/50", cfg.Server.HTTPPort, cfg.Server.HistoryCapacity)
	}
	if cfg.Server.WSInterval != 2*time.Second {
		t.Errorf("ws_interval: got %v, want 2s", cfg.Server.WSInterval)
	}
	if cfg.Predictor.Timeout != 3*time.Second {
		t.Errorf("timeout: got %v, want 3s", cfg.Predictor.Timeout)
	}
	if cfg.Engine.MaxActions != 7 {
		t.Errorf("max_actions: got %d, want 7", cfg.Engine.MaxActions)
	}
	if cfg.Engine.Thresholds.ColdC != 16 {
		t.Errorf("cold_c: got %v, want 16", cfg.Engine.Thresholds.ColdC)
	}
	// Untouched thresholds still get defaults.
	if cfg.Engine.Thresholds.WarmC != 28 {
		t.Errorf("warm_c: got %v, want the default 28", cfg.Engine.Thresholds.WarmC)
	}
}

func TestLoad_BandFields(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
predictor:
  base_url: "http://localhost:8000"
bands:
  - id: "130_136"
    label: "130–136 MW model"
    endpoint: /predict_130_136
    yield_min: 130
    yield_max: 136
    site_nox_limit: 90
    baseline_nox: 62.5
    envelope:
      TIT: { min: 1054, max: 1100 }
    medians:
      TIT: 1080
  - id: 160p
    label: "160+ MW model"
    endpoint: /predict_160p
    yield_min: 160
    at_design_limit: true
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	b, ok := cfg.BandByID("130_136")
	if !ok {
		t.Fatal("BandByID(130_136): not found")
	}
	if b.YieldMin != 130 || b.YieldMax != 136 {
		t.Errorf("yield span: got %v-%v, want 130-136", b.YieldMin, b.YieldMax)
	}
	if b.SiteNOxLimit == nil || *b.SiteNOxLimit != 90 {
		t.Errorf("site limit: got %v, want 90", b.SiteNOxLimit)
	}
	if b.BaselineNOx == nil || *b.BaselineNOx != 62.5 {
		t.Errorf("baseline: got %v, want 62.5", b.BaselineNOx)
	}
	if r, ok := b.Envelope["TIT"]; !ok || r.Min != 1054 || r.Max != 1100 {
		t.Errorf("TIT envelope: got %+v", b.Envelope["TIT"])
	}

	high, ok := cfg.BandByID("160p")
	if !ok {
		t.Fatal("BandByID(160p): not found")
	}
	if !high.AtDesignLimit {
		t.Error("160p: at_design_limit should be set")
	}
	if high.SiteNOxLimit != nil {
		t.Error("160p: site limit should be nil when absent")
	}

	if _, ok := cfg.BandByID("nope"); ok {
		t.Error("BandByID(nope): unexpectedly found")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "no bands",
			body: `predictor: {base_url: "http://x"}`,
			want: "at least one band",
		},
		{
			name: "duplicate band id",
			body: minimalConfig + `
  - id: full
    label: "Duplicate"
    endpoint: /predict_full
`,
			want: "duplicated",
		},
		{
			name: "missing endpoint",
			body: `
bands:
  - id: full
    label: "Full range model"
`,
			want: "endpoint",
		},
		{
			name: "bad port",
			body: `
server:
  http_port: 70000
` + minimalConfig,
			want: "http_port",
		},
		{
			name: "bad auth mode",
			body: `
server:
  auth:
    mode: oauth
` + minimalConfig,
			want: "auth.mode",
		},
		{
			name: "inverted envelope",
			body: `
bands:
  - id: full
    label: "Full range model"
    endpoint: /predict_full
    envelope:
      TIT: { min: 1100, max: 1054 }
`,
			want: "envelope",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil {
				t.Fatal("Load: expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q should mention %q", err, tc.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load: expected an error for a missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [not a map")); err == nil {
		t.Fatal("Load: expected a parse error")
	}
}

func TestAuthConfig_KeyFromEnv(t *testing.T) {
	t.Setenv("NOXWISE_TEST_KEY", "s3cret")
	a := AuthConfig{Mode: "apikey", KeyEnv: "NOXWISE_TEST_KEY"}
	if got := a.Key(); got != "s3cret" {
		t.Errorf("Key: got %q, want the env value", got)
	}
	if got := (AuthConfig{}).Key(); got != "" {
		t.Errorf("Key: got %q, want empty without key_env", got)
	}
}

func TestAuthConfig_EffectiveHeader(t *testing.T) {
	if got := (AuthConfig{}).EffectiveHeader(); got != "x-api-key" {
		t.Errorf("default header: got %q", got)
	}
	if got := (AuthConfig{Header: "x-token"}).EffectiveHeader(); got != "x-token" {
		t.Errorf("explicit header: got %q", got)
	}
}
