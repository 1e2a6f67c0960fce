package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/iqinterp/internal/iqmodule"
	"github.com/banshee-data/iqinterp/internal/monitoring"
)

// Sample is one resolved point of a sweep.
type Sample struct {
	Value  float64
	Fields map[string]float64
}

// Result is a completed sweep.
type Result struct {
	Module  string
	Axis    Axis
	Samples []Sample
}

// Fields returns every field seen in any sample, sorted.
func (r *Result) Fields() []string {
	seen := make(map[string]struct{})
	for _, s := range r.Samples {
		for k := range s.Fields {
			seen[k] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Series returns the trigger values and the field's values for every sample
// that carries field.
func (r *Result) Series(field string) (x, y []float64) {
	for _, s := range r.Samples {
		if v, ok := s.Fields[field]; ok {
			x = append(x, s.Value)
			y = append(y, v)
		}
	}
	return x, y
}

// Runner resolves a module once per swept value. Base supplies every
// trigger the axis does not set.
type Runner struct {
	Resolver iqmodule.Resolver
	Axis     Axis
	Base     iqmodule.TriggerData
}

// Run sweeps values in order. It stops at the first resolve error or when
// ctx is done.
func (r *Runner) Run(ctx context.Context, values []float64) (*Result, error) {
	if r.Resolver == nil {
		return nil, fmt.Errorf("sweep: no resolver")
	}
	if _, err := ParseAxis(string(r.Axis)); err != nil {
		return nil, err
	}

	start := time.Now()
	res := &Result{Module: r.Resolver.Name(), Axis: r.Axis, Samples: make([]Sample, 0, len(values))}

	for _, v := range values {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sweep stopped after %d of %d values: %w", len(res.Samples), len(values), err)
		}

		d := r.Base
		if err := r.Axis.Apply(&d, v); err != nil {
			return nil, err
		}
		out, err := r.Resolver.Resolve(&d)
		if err != nil {
			return nil, fmt.Errorf("%s=%v: %w", r.Axis, v, err)
		}
		fields, err := Flatten(out)
		if err != nil {
			return nil, fmt.Errorf("%s=%v: %w", r.Axis, v, err)
		}
		res.Samples = append(res.Samples, Sample{Value: v, Fields: fields})
	}

	monitoring.Logf("sweep %s over %s: %d values in %v", res.Module, r.Axis, len(res.Samples), time.Since(start))
	return res, nil
}
