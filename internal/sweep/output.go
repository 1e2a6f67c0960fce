package sweep

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes one row per sample: the swept value followed by each
// field. A nil fields means every field. Missing values are left empty.
func WriteCSV(w io.Writer, r *Result, fields []string) error {
	if fields == nil {
		fields = r.Fields()
	}
	cw := csv.NewWriter(w)

	header := append([]string{string(r.Axis)}, fields...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(header))
	for _, s := range r.Samples {
		row[0] = formatFloat(s.Value)
		for i, f := range fields {
			if v, ok := s.Fields[f]; ok {
				row[i+1] = formatFloat(v)
			} else {
				row[i+1] = ""
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV writes the Summary of each field.
func WriteSummaryCSV(w io.Writer, summaries []Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"field", "count", "min", "max", "mean", "stddev"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range summaries {
		rec := []string{
			s.Field,
			strconv.Itoa(s.Count),
			formatFloat(s.Min),
			formatFloat(s.Max),
			formatFloat(s.Mean),
			formatFloat(s.StdDev),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
