// Package config loads the tool settings shared by the iqinterp CLIs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ToolConfig holds the settings for the resolve and sweep tools. Every field
// is optional; the Get* methods supply defaults for omitted fields.
type ToolConfig struct {
	// Storage
	DBPath    *string `json:"db_path,omitempty"`
	OutputDir *string `json:"output_dir,omitempty"`

	// Sweep params
	MaxSweepPoints *int    `json:"max_sweep_points,omitempty"`
	SweepTimeout   *string `json:"sweep_timeout,omitempty"` // duration string like "30s"

	// Chart params
	PlotWidthInches  *float64 `json:"plot_width_inches,omitempty"`
	PlotHeightInches *float64 `json:"plot_height_inches,omitempty"`
	ChartTheme       *string  `json:"chart_theme,omitempty"`
	ChartAssetsHost  *string  `json:"chart_assets_host,omitempty"`
	MaxChartFields   *int     `json:"max_chart_fields,omitempty"`

	Quiet *bool `json:"quiet,omitempty"`
}

// EmptyToolConfig returns a ToolConfig with all fields set to nil.
func EmptyToolConfig() *ToolConfig {
	return &ToolConfig{}
}

// LoadToolConfig loads a ToolConfig from a JSON file. The file must have a
// .json extension and be under 1MB. Omitted fields keep their defaults.
func LoadToolConfig(path string) (*ToolConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyToolConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *ToolConfig) Validate() error {
	if c.MaxSweepPoints != nil && *c.MaxSweepPoints < 1 {
		return fmt.Errorf("max_sweep_points must be positive, got %d", *c.MaxSweepPoints)
	}

	if c.SweepTimeout != nil && *c.SweepTimeout != "" {
		d, err := time.ParseDuration(*c.SweepTimeout)
		if err != nil {
			return fmt.Errorf("invalid sweep_timeout '%s': %w", *c.SweepTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("sweep_timeout must be non-negative, got %s", d)
		}
	}

	if c.PlotWidthInches != nil && *c.PlotWidthInches <= 0 {
		return fmt.Errorf("plot_width_inches must be positive, got %f", *c.PlotWidthInches)
	}
	if c.PlotHeightInches != nil && *c.PlotHeightInches <= 0 {
		return fmt.Errorf("plot_height_inches must be positive, got %f", *c.PlotHeightInches)
	}

	if c.MaxChartFields != nil && *c.MaxChartFields < 1 {
		return fmt.Errorf("max_chart_fields must be positive, got %d", *c.MaxChartFields)
	}

	return nil
}

// GetDBPath returns the db_path value or the default.
func (c *ToolConfig) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return "iqinterp.db"
	}
	return *c.DBPath
}

// GetOutputDir returns the output_dir value or the default.
func (c *ToolConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "sweeps"
	}
	return *c.OutputDir
}

// GetMaxSweepPoints returns the max_sweep_points value or the default.
func (c *ToolConfig) GetMaxSweepPoints() int {
	if c.MaxSweepPoints == nil {
		return 10000
	}
	return *c.MaxSweepPoints
}

// GetSweepTimeout parses and returns the SweepTimeout. Zero means no limit.
func (c *ToolConfig) GetSweepTimeout() time.Duration {
	if c.SweepTimeout == nil || *c.SweepTimeout == "" {
		return 30 * time.Second // default
	}
	d, err := time.ParseDuration(*c.SweepTimeout)
	if err != nil {
		return 30 * time.Second // default on parse error
	}
	return d
}

// GetPlotWidthInches returns the plot_width_inches value or the default.
func (c *ToolConfig) GetPlotWidthInches() float64 {
	if c.PlotWidthInches == nil {
		return 14
	}
	return *c.PlotWidthInches
}

// GetPlotHeightInches returns the plot_height_inches value or the default.
func (c *ToolConfig) GetPlotHeightInches() float64 {
	if c.PlotHeightInches == nil {
		return 6
	}
	return *c.PlotHeightInches
}

// GetChartTheme returns the chart_theme value or the default.
func (c *ToolConfig) GetChartTheme() string {
	if c.ChartTheme == nil || *c.ChartTheme == "" {
		return "white"
	}
	return *c.ChartTheme
}

// GetChartAssetsHost returns the chart_assets_host value. Empty means the
// chart library's own CDN.
func (c *ToolConfig) GetChartAssetsHost() string {
	if c.ChartAssetsHost == nil {
		return ""
	}
	return *c.ChartAssetsHost
}

// GetMaxChartFields returns the max_chart_fields value or the default.
func (c *ToolConfig) GetMaxChartFields() int {
	if c.MaxChartFields == nil {
		return 16
	}
	return *c.MaxChartFields
}

// GetQuiet returns the quiet value or the default.
func (c *ToolConfig) GetQuiet() bool {
	if c.Quiet == nil {
		return false
	}
	return *c.Quiet
}
