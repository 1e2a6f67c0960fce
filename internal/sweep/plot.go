package sweep

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// WritePlot renders each field against the swept trigger as a line plot.
// The image format follows path's extension.
func WritePlot(path string, r *Result, fields []string, widthIn, heightIn float64) error {
	if len(fields) == 0 {
		return fmt.Errorf("no fields to plot")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s vs %s", r.Module, r.Axis)
	p.X.Label.Text = string(r.Axis)
	p.Y.Label.Text = "value"

	colors := generateColors(len(fields))
	for i, f := range fields {
		x, y := r.Series(f)
		pts := make(plotter.XYs, 0, len(x))
		for j := range x {
			// plotter rejects NaN and Inf.
			if math.IsNaN(y[j]) || math.IsInf(y[j], 0) {
				continue
			}
			pts = append(pts, plotter.XY{X: x[j], Y: y[j]})
		}
		if len(pts) == 0 {
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("line %s: %w", f, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(f, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// generateColors spreads n colours evenly around the hue wheel.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := range colors {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL in [0,1] to 8-bit RGB.
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := uint8(math.Round(l * 255))
		return v, v, v
	}
	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q
	to8 := func(t float64) uint8 {
		return uint8(math.Round(hueToRGB(p, q, t) * 255))
	}
	return to8(h + 1.0/3), to8(h), to8(h - 1.0/3)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}
