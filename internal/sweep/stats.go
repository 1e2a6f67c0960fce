package sweep

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes one field across a sweep.
type Summary struct {
	Field  string
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Varies reports whether the field changed anywhere in the sweep.
func (s Summary) Varies() bool { return s.Max != s.Min }

// Summarise computes a Summary for each field. A nil fields means every
// field in r. Fields missing from every sample are skipped.
func Summarise(r *Result, fields []string) []Summary {
	if fields == nil {
		fields = r.Fields()
	}
	out := make([]Summary, 0, len(fields))
	for _, f := range fields {
		_, y := r.Series(f)
		if len(y) == 0 {
			continue
		}
		s := Summary{Field: f, Count: len(y), Min: floats.Min(y), Max: floats.Max(y)}
		if len(y) > 1 {
			s.Mean, s.StdDev = stat.MeanStdDev(y, nil)
		} else {
			s.Mean = y[0]
		}
		out = append(out, s)
	}
	return out
}

// VaryingFields returns the fields that change across the sweep, in field
// order, capped at limit. A limit of 0 means no cap.
func VaryingFields(r *Result, limit int) []string {
	var out []string
	for _, s := range Summarise(r, nil) {
		if !s.Varies() {
			continue
		}
		out = append(out, s.Field)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
