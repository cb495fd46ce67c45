package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/noxwise/noxwise/internal/turbine"
)

// CSV layout: timestamp, band, the nine fields in canonical order, the
// prediction, and the risk grade. Floats use strconv's shortest 'g' form so
// an export re-imports to the original values exactly.
func csvHeader() []string {
	header := []string{"timestamp", "band"}
	header = append(header, turbine.Fields...)
	return append(header, "nox_pred", "risk")
}

// WriteCSV dumps all stored evaluations to w, oldest first.
func (s *Store) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader()); err != nil {
		return fmt.Errorf("history: write csv header: %w", err)
	}

	for _, e := range s.List() {
		rec := make([]string, 0, len(turbine.Fields)+4)
		rec = append(rec, e.Timestamp.Format(time.RFC3339Nano), e.Band)
		for _, f := range turbine.Fields {
			rec = append(rec, formatFloat(e.Params[f]))
		}
		rec = append(rec, formatFloat(e.Prediction), e.Risk)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("history: write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a previously exported history dump. The header must match
// the export layout.
func ReadCSV(r io.Reader) ([]Evaluation, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("history: read csv header: %w", err)
	}
	want := csvHeader()
	if len(header) != len(want) {
		return nil, fmt.Errorf("history: unexpected csv header: got %d columns, want %d", len(header), len(want))
	}
	for i, col := range want {
		if header[i] != col {
			return nil, fmt.Errorf("history: unexpected csv column %d: got %q, want %q", i, header[i], col)
		}
	}

	var out []Evaluation
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("history: read csv row %d: %w", line+1, err)
		}
		line++

		ts, err := time.Parse(time.RFC3339Nano, rec[0])
		if err != nil {
			return nil, fmt.Errorf("history: row %d: bad timestamp: %w", line, err)
		}

		params := make(turbine.Vector, len(turbine.Fields))
		for i, f := range turbine.Fields {
			v, err := strconv.ParseFloat(rec[2+i], 64)
			if err != nil {
				return nil, fmt.Errorf("history: row %d: bad %s value: %w", line, f, err)
			}
			params[f] = v
		}

		pred, err := strconv.ParseFloat(rec[2+len(turbine.Fields)], 64)
		if err != nil {
			return nil, fmt.Errorf("history: row %d: bad prediction: %w", line, err)
		}

		out = append(out, Evaluation{
			Timestamp:  ts,
			Band:       rec[1],
			Params:     params,
			Prediction: pred,
			Risk:       rec[len(rec)-1],
		})
	}
	return out, nil
}

// LoadFile reads an exported history CSV from disk.
func LoadFile(path string) ([]Evaluation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("history: open %q: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
