package sweep

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ChartOptions styles the HTML chart.
type ChartOptions struct {
	Theme      string
	AssetsHost string
}

// WriteChart renders an interactive line chart of each field against the
// swept trigger as a standalone HTML page.
func WriteChart(w io.Writer, r *Result, fields []string, o ChartOptions) error {
	if len(fields) == 0 {
		return fmt.Errorf("no fields to chart")
	}

	labels := make([]string, len(r.Samples))
	for i, s := range r.Samples {
		labels[i] = formatFloat(s.Value)
	}

	init := opts.Initialization{
		PageTitle: fmt.Sprintf("%s sweep", r.Module),
		Theme:     o.Theme,
		Width:     "100%",
		Height:    "720px",
	}
	if o.AssetsHost != "" {
		init.AssetsHost = o.AssetsHost
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(init),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s vs %s", r.Module, r.Axis), Subtitle: fmt.Sprintf("%d values, %d fields", len(r.Samples), len(fields))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: string(r.Axis), NameLocation: "middle", NameGap: 25}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(labels)

	for _, f := range fields {
		data := make([]opts.LineData, len(r.Samples))
		for i, s := range r.Samples {
			if v, ok := s.Fields[f]; ok {
				data[i] = opts.LineData{Value: v}
			} else {
				data[i] = opts.LineData{Value: "-"}
			}
		}
		line.AddSeries(f, data)
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
