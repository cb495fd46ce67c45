package stats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/noxwise/noxwise/internal/turbine"
)

// ErrEmptyDataset is returned when the dataset holds no data rows, or no
// field produced a single valid numeric value.
var ErrEmptyDataset = errors.New("stats: dataset has no usable rows")

// FieldStats is the descriptive summary of one field over the historical
// sample.
type FieldStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P10    float64 `json:"p10"`
	P90    float64 `json:"p90"`
	Count  int     `json:"count"` // number of valid values the summary is built from
}

// Compute summarises a single field's values. It returns an error when values
// is empty — the mean and the percentile lookups are undefined — so callers
// never see NaN.
func Compute(values []float64) (FieldStats, error) {
	if len(values) == 0 {
		return FieldStats{}, errors.New("stats: no valid values")
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	n := len(sorted)
	return FieldStats{
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   sum / float64(n),
		Median: sorted[n/2],
		P10:    sorted[percentileIndex(n, 0.10)],
		P90:    sorted[percentileIndex(n, 0.90)],
		Count:  n,
	}, nil
}

// percentileIndex selects the 0-based rank for a percentile fraction:
// floor(count × fraction), clamped to the last element. No interpolation
// between adjacent ranks.
func percentileIndex(n int, fraction float64) int {
	idx := int(float64(n) * fraction)
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// FromCSV reads a delimited dataset (header row naming fields, one
// observation per row) and computes FieldStats for every requested field.
//
// A cell that does not parse as a number excludes that value from its own
// field's statistics only; the rest of the row still counts. Fields with zero
// valid values are absent from the result. FromCSV fails only when the
// dataset itself is empty or nothing parses at all.
func FromCSV(r io.Reader, fields []string) (map[string]FieldStats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // tolerate ragged rows; missing cells just don't count

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("stats: read header: %w", err)
	}

	// Column index per requested field. Fields absent from the header simply
	// produce no statistics.
	colOf := make(map[string]int, len(fields))
	for i, name := range header {
		name = strings.TrimSpace(name)
		for _, f := range fields {
			if name == f {
				colOf[f] = i
			}
		}
	}

	values := make(map[string][]float64, len(fields))
	rows := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("stats: read row %d: %w", rows+2, err)
		}
		rows++
		for f, col := range colOf {
			if col >= len(rec) {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
			if err != nil {
				continue // unparseable cell — skip this field for this row
			}
			values[f] = append(values[f], v)
		}
	}

	if rows == 0 {
		return nil, ErrEmptyDataset
	}

	out := make(map[string]FieldStats, len(values))
	for f, vals := range values {
		fs, err := Compute(vals)
		if err != nil {
			continue
		}
		out[f] = fs
	}
	if len(out) == 0 {
		return nil, ErrEmptyDataset
	}
	return out, nil
}

// LoadFile computes statistics for the canonical turbine fields from the CSV
// file at path.
func LoadFile(path string) (map[string]FieldStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stats: open %q: %w", path, err)
	}
	defer f.Close()
	return FromCSV(f, turbine.Fields)
}
