package iqmodule

import (
	"github.com/banshee-data/iqinterp/internal/chromatix"
	"github.com/banshee-data/iqinterp/internal/interp"
	"github.com/banshee-data/iqinterp/internal/iqutil"
)

// GTM10 tree shape.
const (
	GTM10InterpolationLevel = exposureLevels
	GTM10MaxNode            = exposureMaxNode
	GTM10MaxNonLeafNode     = exposureMaxNonLeaf
)

// GTM10ManualCurveEntries is the size of the manual tone curve.
const GTM10ManualCurveEntries = 65

// GTM10Params is the global tone mapping tuning.
type GTM10Params struct {
	MiddleTone            float32                          `json:"a_middletone"`
	DarkIndexRange        float32                          `json:"dark_index_range"`
	ExtraRatioFactor      float32                          `json:"extra_ratio_factor"`
	HighlightWeight       float32                          `json:"highlight_w"`
	KeyHistBinWeight      float32                          `json:"key_hist_bin_weight"`
	KeyMaxThreshold       float32                          `json:"key_max_th"`
	KeyMinThreshold       float32                          `json:"key_min_th"`
	LowlightWeight        float32                          `json:"lowlight_w"`
	LumaPeakThreshold0    float32                          `json:"luma_peak_th0"`
	LumaPeakThreshold1    float32                          `json:"luma_peak_th1"`
	ManualCurveStrength   float32                          `json:"manual_curve_strength"`
	MaxPercentile         float32                          `json:"max_percentile"`
	MaxRatio              float32                          `json:"max_ratio"`
	MaxValThreshold       float32                          `json:"maxval_th"`
	MiddleToneWeight      float32                          `json:"middletone_w"`
	MidlightThresholdHigh float32                          `json:"midlight_threshold_high"`
	MidlightThresholdLow  float32                          `json:"midlight_threshold_low"`
	MinPercentile         float32                          `json:"min_percentile"`
	MinValThreshold       float32                          `json:"minval_th"`
	Reserved1             float32                          `json:"reserved_1"`
	Reserved2             float32                          `json:"reserved_2"`
	StretchGain0          float32                          `json:"stretch_gain_0"`
	StretchGain1          float32                          `json:"stretch_gain_1"`
	TemporalWeight        float32                          `json:"temporal_w"`
	YOutMaxVal            float32                          `json:"yout_maxval"`
	YRatioBaseManual      [GTM10ManualCurveEntries]float32 `json:"yratio_base_manual"`
}

// GTM10Chromatix is the global tone mapping calibration.
type GTM10Chromatix struct {
	ControlMethod chromatix.ControlMethod   `json:"control_method"`
	Core          ExposureCore[GTM10Params] `json:"chromatix_gtm10_core"`
}

// Validate checks every axis of the calibration.
func (c *GTM10Chromatix) Validate() error {
	return validateExposureCore(c.Core, c.ControlMethod, nil)
}

// GTM10Input is the trigger snapshot for global tone mapping.
type GTM10Input struct {
	Chromatix *GTM10Chromatix `json:"-"`

	ExposureTrigger
	DRCGain float32 `json:"drc_gain"`
}

// CheckUpdateTrigger reports whether any tone mapping trigger changed.
func (in *GTM10Input) CheckUpdateTrigger(d *TriggerData) bool {
	if in.ExposureTrigger.matches(d) && iqutil.FloatEqual(in.DRCGain, d.DRCGain) {
		return false
	}
	in.ExposureTrigger.capture(d)
	in.DRCGain = d.DRCGain
	return true
}

var gtm10Tree = newExposureTree(interpolateGTM10)

// RunInterpolation resolves the tone mapping tuning.
func (in *GTM10Input) RunInterpolation(out *GTM10Params) error {
	if in == nil || in.Chromatix == nil || out == nil {
		return interp.ErrInvalidArgument
	}

	var trig chromatix.TriggerList
	in.ExposureTrigger.apply(in.Chromatix.ControlMethod, &trig)
	trig.DRCGain = in.DRCGain

	var nodes [GTM10MaxNode]interp.Node[GTM10Params]
	var scratch [GTM10MaxNonLeafNode]GTM10Params
	return gtm10Tree.Run(nodes[:], scratch[:], &in.Chromatix.Core, &trig, out)
}

func interpolateGTM10(a, b *GTM10Params, r float32, out *GTM10Params) {
	out.MiddleTone = lerp(a.MiddleTone, b.MiddleTone, r)
	out.DarkIndexRange = lerp(a.DarkIndexRange, b.DarkIndexRange, r)
	out.ExtraRatioFactor = lerp(a.ExtraRatioFactor, b.ExtraRatioFactor, r)
	out.HighlightWeight = lerp(a.HighlightWeight, b.HighlightWeight, r)
	out.KeyHistBinWeight = lerp(a.KeyHistBinWeight, b.KeyHistBinWeight, r)
	out.KeyMaxThreshold = lerp(a.KeyMaxThreshold, b.KeyMaxThreshold, r)
	out.KeyMinThreshold = lerp(a.KeyMinThreshold, b.KeyMinThreshold, r)
	out.LowlightWeight = lerp(a.LowlightWeight, b.LowlightWeight, r)
	out.LumaPeakThreshold0 = lerp(a.LumaPeakThreshold0, b.LumaPeakThreshold0, r)
	out.LumaPeakThreshold1 = lerp(a.LumaPeakThreshold1, b.LumaPeakThreshold1, r)
	out.ManualCurveStrength = lerp(a.ManualCurveStrength, b.ManualCurveStrength, r)
	out.MaxPercentile = lerp(a.MaxPercentile, b.MaxPercentile, r)
	out.MaxRatio = lerp(a.MaxRatio, b.MaxRatio, r)
	out.MaxValThreshold = lerp(a.MaxValThreshold, b.MaxValThreshold, r)
	out.MiddleToneWeight = lerp(a.MiddleToneWeight, b.MiddleToneWeight, r)
	out.MidlightThresholdHigh = lerp(a.MidlightThresholdHigh, b.MidlightThresholdHigh, r)
	out.MidlightThresholdLow = lerp(a.MidlightThresholdLow, b.MidlightThresholdLow, r)
	out.MinPercentile = lerp(a.MinPercentile, b.MinPercentile, r)
	out.MinValThreshold = lerp(a.MinValThreshold, b.MinValThreshold, r)
	out.Reserved1 = lerp(a.Reserved1, b.Reserved1, r)
	out.Reserved2 = lerp(a.Reserved2, b.Reserved2, r)
	out.StretchGain0 = lerp(a.StretchGain0, b.StretchGain0, r)
	out.StretchGain1 = lerp(a.StretchGain1, b.StretchGain1, r)
	out.TemporalWeight = lerp(a.TemporalWeight, b.TemporalWeight, r)
	out.YOutMaxVal = lerp(a.YOutMaxVal, b.YOutMaxVal, r)
	lerpTable(out.YRatioBaseManual[:], a.YRatioBaseManual[:], b.YRatioBaseManual[:], r)
}
