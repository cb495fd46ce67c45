package turbine

import "fmt"

// Canonical measurement field names, matching the prediction service's
// request schema and the historical dataset's CSV header.
const (
	AT   = "AT"   // ambient temperature (°C)
	AP   = "AP"   // ambient pressure (mbar)
	AH   = "AH"   // ambient humidity (%)
	AFDP = "AFDP" // air filter differential pressure (mbar)
	GTEP = "GTEP" // gas turbine exhaust pressure (mbar)
	TIT  = "TIT"  // turbine inlet temperature (°C)
	TAT  = "TAT"  // turbine after (exhaust) temperature (°C)
	CDP  = "CDP"  // compressor discharge pressure (mbar)
	TEY  = "TEY"  // turbine energy yield (MWh)
)

// Fields is the canonical iteration order. Every loop over a Vector uses this
// order so results (diff tie-breaks, CSV columns) are deterministic.
var Fields = []string{AT, AP, AH, AFDP, GTEP, TIT, TAT, CDP, TEY}

// Vector is one immutable snapshot of operating parameters, keyed by field
// name. Callers construct a fresh Vector per evaluation and must not mutate
// it afterwards.
type Vector map[string]float64

// MissingFieldError reports a Vector that lacks one of the canonical fields.
// It is a programming-contract violation on the engine boundary: the caller
// must supply all nine fields rather than rely on a silent zero.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("parameter vector: required field %q is missing", e.Field)
}

// Validate checks that every canonical field is present.
func (v Vector) Validate() error {
	for _, f := range Fields {
		if _, ok := v[f]; !ok {
			return &MissingFieldError{Field: f}
		}
	}
	return nil
}

// Clone returns a copy of v. Used when a vector must outlive its caller
// (e.g. when appended to the evaluation history).
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Range is one operating-envelope entry: the recommended [Min, Max] span for
// a field within a given load band.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Contains reports whether x lies inside the range, bounds included.
func (r Range) Contains(x float64) bool {
	return x >= r.Min && x <= r.Max
}

// Change is one field's movement between two vectors.
type Change struct {
	Field string  `json:"field"`
	Old   float64 `json:"old"`
	New   float64 `json:"new"`
	Pct   float64 `json:"pct"` // signed percent change relative to Old
}

// PctChange returns the signed percent change from old to cur. The second
// return is false when old is zero — no percent change is computable and the
// caller must skip the field rather than propagate Inf/NaN.
func PctChange(old, cur float64) (float64, bool) {
	if old == 0 {
		return 0, false
	}
	return (cur - old) / old * 100, true
}

// Changes compares two vectors field by field, in canonical order, and
// returns one Change per field present in both with a computable percent
// change. Either vector may be nil, in which case the result is empty.
func Changes(prev, curr Vector) []Change {
	if prev == nil || curr == nil {
		return nil
	}
	out := make([]Change, 0, len(Fields))
	for _, f := range Fields {
		old, okOld := prev[f]
		now, okNew := curr[f]
		if !okOld || !okNew {
			continue
		}
		pct, ok := PctChange(old, now)
		if !ok {
			continue
		}
		out = append(out, Change{Field: f, Old: old, New: now, Pct: pct})
	}
	return out
}
