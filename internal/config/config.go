package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/noxwise/noxwise/internal/turbine"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort        = 8080
	DefaultHistoryCapacity = 500
	DefaultWSInterval      = 5 * time.Second
	DefaultPredictTimeout  = 10 * time.Second

	DefaultMaxActions    = 5
	DefaultMaxAdvisories = 3
	DefaultDiffMinPct    = 1.0
)

// Config is the top-level configuration for noxwise-server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Predictor PredictorConfig `yaml:"predictor"`
	Engine    EngineConfig    `yaml:"engine"`
	Data      DataConfig      `yaml:"data"`
	Bands     []Band          `yaml:"bands"`
}

// ServerConfig holds all HTTP-facing settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API and WebSocket hub listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Auth configures API client authentication.
	Auth AuthConfig `yaml:"auth"`

	// HistoryCapacity bounds the in-memory evaluation history (default 500).
	HistoryCapacity int `yaml:"history_capacity"`

	// WSInterval is how often the hub broadcasts the history snapshot (default 5s).
	WSInterval time.Duration `yaml:"ws_interval"`
}

// AuthConfig controls client authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header name to read the key from.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// PredictorConfig points at the external NOx prediction service.
type PredictorConfig struct {
	// BaseURL is the root of the prediction service, e.g. "http://localhost:8000".
	BaseURL string `yaml:"base_url"`

	// Timeout bounds one prediction round trip (default 10s).
	Timeout time.Duration `yaml:"timeout"`
}

// EngineConfig tunes the recommendation engine. The caps and the diff
// threshold are presentation choices, so they are configurable rather than
// hardcoded; the defaults match the dashboard's layout.
type EngineConfig struct {
	// MaxActions caps the ranked action list (default 5).
	MaxActions int `yaml:"max_actions"`

	// MaxAdvisories caps the advisory summary list (default 3).
	MaxAdvisories int `yaml:"max_advisories"`

	// DiffMinPct is the minimum |percent change| for a field to appear in the
	// "what changed" diff list (default 1.0).
	DiffMinPct float64 `yaml:"diff_min_pct"`

	// Thresholds holds the rule trigger points.
	Thresholds Thresholds `yaml:"thresholds"`
}

// Thresholds are the numeric trigger points used by the recommendation rules.
// Zero values are replaced with defaults at load time.
type Thresholds struct {
	// Ambient temperature bands (°C).
	VeryColdC float64 `yaml:"very_cold_c"` // below this: escalate risk two steps (default 12)
	ColdC     float64 `yaml:"cold_c"`      // below this: escalate one step (default 18)
	WarmC     float64 `yaml:"warm_c"`      // above this: de-escalate one step (default 28)

	// Filter differential pressure (mbar).
	FilterCleanMbar float64 `yaml:"filter_clean_mbar"` // below this the filter reads "too clean" (default 2.5)
	FilterHighMbar  float64 `yaml:"filter_high_mbar"`  // above this the filter is loading up (default 5.2)

	// HumidityHighPct flags unusually humid ambient air (default 95).
	HumidityHighPct float64 `yaml:"humidity_high_pct"`

	// CDPDeviationFrac is the allowed fractional deviation of compressor
	// discharge pressure from the band median (default 0.05).
	CDPDeviationFrac float64 `yaml:"cdp_deviation_frac"`

	// InletAboveMedianC is how far TIT must sit above its band median before
	// the temperature rule fires (default 8).
	InletAboveMedianC float64 `yaml:"inlet_above_median_c"`

	// InletHeadroomC is the margin below the TIT envelope max inside which
	// tuning headroom is considered limited (default 5).
	InletHeadroomC float64 `yaml:"inlet_headroom_c"`

	// ExhaustMarginC is the allowed margin of TAT over its band median when
	// the band has no envelope entry for TAT (default 10).
	ExhaustMarginC float64 `yaml:"exhaust_margin_c"`

	// NOx delta thresholds (percent vs. reference).
	DeltaHighPct  float64 `yaml:"delta_high_pct"`  // above this: High risk (default 15)
	DeltaWatchPct float64 `yaml:"delta_watch_pct"` // above this (abs): Watch risk (default 5)

	// Large-jump detector: |prediction delta| above LargeJumpPct while the
	// mean |field change| stays below QuietInputPct points at the sensors,
	// not the settings (defaults 10 and 2).
	LargeJumpPct  float64 `yaml:"large_jump_pct"`
	QuietInputPct float64 `yaml:"quiet_input_pct"`

	// Ambient-only shift: AT moved more than AmbientShiftPct while TIT and
	// TAT each moved less than TempStablePct (defaults 5 and 2).
	AmbientShiftPct float64 `yaml:"ambient_shift_pct"`
	TempStablePct   float64 `yaml:"temp_stable_pct"`
}

// DataConfig points at the historical dataset.
type DataConfig struct {
	// HistoryCSV is the path of the historical readings CSV used to derive
	// per-field statistics. Empty disables the stats endpoint.
	HistoryCSV string `yaml:"history_csv"`
}

// Band describes one load-level regime: its prediction model endpoint and the
// recommended operating envelope the engine checks vectors against.
type Band struct {
	// ID is the band identifier used by the UI and the API ("full",
	// "130_136", "160p").
	ID string `yaml:"id"`

	// Label is the display name echoed in results ("Full range model").
	Label string `yaml:"label"`

	// Endpoint is the prediction service path for this band's model,
	// e.g. "/predict_full".
	Endpoint string `yaml:"endpoint"`

	// YieldMin/YieldMax bound the energy yield this band's model was trained
	// on. YieldMax 0 means unbounded above. Both 0 means the full range.
	YieldMin float64 `yaml:"yield_min"`
	YieldMax float64 `yaml:"yield_max"`

	// AtDesignLimit marks bands where the inlet temperature normally sits at
	// its design limit; the inlet-temperature-high rule is skipped for them.
	AtDesignLimit bool `yaml:"at_design_limit"`

	// SiteNOxLimit is the site permit limit (mg/Nm³); nil when none applies.
	SiteNOxLimit *float64 `yaml:"site_nox_limit"`

	// BaselineNOx is the reference NOx value deltas are computed against;
	// nil falls back to the previous prediction.
	BaselineNOx *float64 `yaml:"baseline_nox"`

	// Envelope is the recommended per-field operating range.
	Envelope map[string]turbine.Range `yaml:"envelope"`

	// Medians is the representative per-field value for this band.
	Medians map[string]float64 `yaml:"medians"`
}

// BandByID returns the band with the given ID.
func (c *Config) BandByID(id string) (Band, bool) {
	for _, b := range c.Bands {
		if b.ID == id {
			return b, true
		}
	}
	return Band{}, false
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	fillThresholds(&cfg.Engine.Thresholds)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        DefaultHTTPPort,
			HistoryCapacity: DefaultHistoryCapacity,
			WSInterval:      DefaultWSInterval,
		},
		Predictor: PredictorConfig{
			Timeout: DefaultPredictTimeout,
		},
		Engine: EngineConfig{
			MaxActions:    DefaultMaxActions,
			MaxAdvisories: DefaultMaxAdvisories,
			DiffMinPct:    DefaultDiffMinPct,
		},
	}
}

// DefaultThresholds returns the threshold set with every default applied.
func DefaultThresholds() Thresholds {
	var t Thresholds
	fillThresholds(&t)
	return t
}

// DefaultEngine returns the engine tuning with every default applied.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		MaxActions:    DefaultMaxActions,
		MaxAdvisories: DefaultMaxAdvisories,
		DiffMinPct:    DefaultDiffMinPct,
		Thresholds:    DefaultThresholds(),
	}
}

// fillThresholds replaces zero-valued thresholds with their defaults.
func fillThresholds(t *Thresholds) {
	def := func(v *float64, d float64) {
		if *v == 0 {
			*v = d
		}
	}
	def(&t.VeryColdC, 12)
	def(&t.ColdC, 18)
	def(&t.WarmC, 28)
	def(&t.FilterCleanMbar, 2.5)
	def(&t.FilterHighMbar, 5.2)
	def(&t.HumidityHighPct, 95)
	def(&t.CDPDeviationFrac, 0.05)
	def(&t.InletAboveMedianC, 8)
	def(&t.InletHeadroomC, 5)
	def(&t.ExhaustMarginC, 10)
	def(&t.DeltaHighPct, 15)
	def(&t.DeltaWatchPct, 5)
	def(&t.LargeJumpPct, 10)
	def(&t.QuietInputPct, 2)
	def(&t.AmbientShiftPct, 5)
	def(&t.TempStablePct, 2)
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.HistoryCapacity <= 0 {
		return fmt.Errorf("server.history_capacity must be positive")
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Engine.MaxActions <= 0 || cfg.Engine.MaxAdvisories <= 0 {
		return fmt.Errorf("engine.max_actions and engine.max_advisories must be positive")
	}
	if cfg.Engine.DiffMinPct < 0 {
		return fmt.Errorf("engine.diff_min_pct must not be negative")
	}
	if len(cfg.Bands) == 0 {
		return fmt.Errorf("at least one band must be configured")
	}
	seen := make(map[string]bool, len(cfg.Bands))
	for _, b := range cfg.Bands {
		if b.ID == "" {
			return fmt.Errorf("band id must not be empty")
		}
		if seen[b.ID] {
			return fmt.Errorf("band id %q is duplicated", b.ID)
		}
		seen[b.ID] = true
		if b.Endpoint == "" {
			return fmt.Errorf("band %q: endpoint must not be empty", b.ID)
		}
		for field, r := range b.Envelope {
			if r.Min > r.Max {
				return fmt.Errorf("band %q: envelope %s has min %g > max %g", b.ID, field, r.Min, r.Max)
			}
		}
	}
	return nil
}
