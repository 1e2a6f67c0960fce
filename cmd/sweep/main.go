package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/iqinterp/internal/config"
	"github.com/banshee-data/iqinterp/internal/db"
	"github.com/banshee-data/iqinterp/internal/iqmodule"
	"github.com/banshee-data/iqinterp/internal/monitoring"
	"github.com/banshee-data/iqinterp/internal/sweep"
)

type options struct {
	module    string
	chromatix string
	axis      string
	values    string
	trigger   string
	config    string
	outDir    string
	png       bool
	html      bool
	record    bool
	dbPath    string
}

func main() {
	var o options
	flag.StringVar(&o.module, "module", "", "Module to sweep (see 'iqinterp modules')")
	flag.StringVar(&o.chromatix, "chromatix", "", "Chromatix JSON file for the module")
	flag.StringVar(&o.axis, "axis", string(sweep.AxisLux), fmt.Sprintf("Trigger to sweep: %v", sweep.Axes()))
	flag.StringVar(&o.values, "values", "", "Comma-separated values (e.g. 100,200,300) or range start:end:step")
	flag.StringVar(&o.trigger, "trigger", "", "Base trigger snapshot as JSON; the swept axis overrides it")
	flag.StringVar(&o.config, "config", "", "Tool config JSON file")
	flag.StringVar(&o.outDir, "out", "", "Output directory (overrides config)")
	flag.BoolVar(&o.png, "png", false, "Also write a PNG plot of the varying fields")
	flag.BoolVar(&o.html, "html", false, "Also write an interactive HTML chart of the varying fields")
	flag.BoolVar(&o.record, "record", false, "Record the sweep in the run database")
	flag.StringVar(&o.dbPath, "db", "", "Run database path (overrides config)")
	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("sweep: %v", err)
	}
}

func run(o options) error {
	if o.module == "" || o.chromatix == "" || o.values == "" {
		return fmt.Errorf("-module, -chromatix and -values are required")
	}

	cfg := config.EmptyToolConfig()
	if o.config != "" {
		var err error
		if cfg, err = config.LoadToolConfig(o.config); err != nil {
			return err
		}
	}
	if cfg.GetQuiet() {
		defer monitoring.Quiet(true)()
	}

	axis, err := sweep.ParseAxis(o.axis)
	if err != nil {
		return err
	}
	values, err := sweep.ParseValues(o.values, cfg.GetMaxSweepPoints())
	if err != nil {
		return err
	}

	var base iqmodule.TriggerData
	if o.trigger != "" {
		if err := json.Unmarshal([]byte(o.trigger), &base); err != nil {
			return fmt.Errorf("parse trigger: %w", err)
		}
	}

	resolver, err := iqmodule.Load(o.module, o.chromatix)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetSweepTimeout())
	defer cancel()

	runner := &sweep.Runner{Resolver: resolver, Axis: axis, Base: base}
	start := time.Now()
	result, err := runner.Run(ctx, values)
	if err != nil {
		return err
	}
	monitoring.Logf("swept %s over %d %s values in %v", o.module, len(values), axis, time.Since(start))

	outDir := o.outDir
	if outDir == "" {
		outDir = cfg.GetOutputDir()
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	stem := filepath.Join(outDir, fmt.Sprintf("%s-%s-%s", o.module, axis, start.Format("20060102-150405")))

	if err := writeFile(stem+".csv", func(f *os.File) error {
		return sweep.WriteCSV(f, result, nil)
	}); err != nil {
		return err
	}
	if err := writeFile(stem+"-summary.csv", func(f *os.File) error {
		return sweep.WriteSummaryCSV(f, sweep.Summarise(result, nil))
	}); err != nil {
		return err
	}

	varying := sweep.VaryingFields(result, cfg.GetMaxChartFields())
	if len(varying) == 0 && (o.png || o.html) {
		monitoring.Logf("no field varies across the sweep; skipping plots")
	}
	if o.png && len(varying) > 0 {
		if err := sweep.WritePlot(stem+".png", result, varying,
			cfg.GetPlotWidthInches(), cfg.GetPlotHeightInches()); err != nil {
			return err
		}
		monitoring.Logf("wrote %s.png", stem)
	}
	if o.html && len(varying) > 0 {
		opts := sweep.ChartOptions{Theme: cfg.GetChartTheme(), AssetsHost: cfg.GetChartAssetsHost()}
		if err := writeFile(stem+".html", func(f *os.File) error {
			return sweep.WriteChart(f, result, varying, opts)
		}); err != nil {
			return err
		}
	}

	if o.record {
		path := o.dbPath
		if path == "" {
			path = cfg.GetDBPath()
		}
		database, err := db.NewDB(path)
		if err != nil {
			return err
		}
		defer database.Close()

		id, err := database.RecordSweep(ctx, result, base)
		if err != nil {
			return err
		}
		monitoring.Logf("recorded sweep run %s in %s", id, path)
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	monitoring.Logf("wrote %s", path)
	return nil
}
