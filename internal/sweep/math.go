// Package sweep drives an IQ module across one trigger axis and records how
// each resolved parameter responds. It includes value parsing, the sweep
// runner, statistics, and CSV, PNG and HTML output.
package sweep

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseCSVFloat64s parses a comma-separated list of float64 values.
// Returns nil, nil for empty input strings.
func ParseCSVFloat64s(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// GenerateRange returns start, start+step, ... up to and including end.
// The last value may overshoot end by float rounding only.
func GenerateRange(start, end, step float64) ([]float64, error) {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("step must be positive, got %v", step)
	}
	if end < start {
		return nil, fmt.Errorf("range end %v before start %v", end, start)
	}
	n := int(math.Floor((end-start)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out, nil
}

// ParseValues accepts either a "start:end:step" range or a comma-separated
// list and returns the values to sweep, at most limit of them.
func ParseValues(expr string, limit int) ([]float64, error) {
	expr = strings.TrimSpace(expr)
	var vals []float64
	var err error

	if strings.Contains(expr, ":") {
		parts := strings.Split(expr, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("range %q must be start:end:step", expr)
		}
		var bounds [3]float64
		for i, p := range parts {
			if bounds[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64); err != nil {
				return nil, fmt.Errorf("invalid range bound '%s': %w", p, err)
			}
		}
		start, end, step := bounds[0], bounds[1], bounds[2]
		if step > 0 && (end-start)/step+1 > float64(limit) {
			return nil, fmt.Errorf("range %q has more than %d values", expr, limit)
		}
		vals, err = GenerateRange(start, end, step)
	} else {
		vals, err = ParseCSVFloat64s(expr)
	}
	if err != nil {
		return nil, err
	}

	if len(vals) == 0 {
		return nil, fmt.Errorf("no values in %q", expr)
	}
	if len(vals) > limit {
		return nil, fmt.Errorf("%d values exceeds the limit of %d", len(vals), limit)
	}
	return vals, nil
}
