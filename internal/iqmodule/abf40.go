package iqmodule

import (
	"github.com/banshee-data/iqinterp/internal/chromatix"
	"github.com/banshee-data/iqinterp/internal/interp"
	"github.com/banshee-data/iqinterp/internal/iqutil"
)

// ABF40 tree shape.
const (
	ABF40InterpolationLevel = exposureLevels
	ABF40MaxNode            = exposureMaxNode
	ABF40MaxNonLeafNode     = exposureMaxNonLeaf
)

// ABF40 table sizes.
const (
	ABF40ActFacEntries      = 32
	ABF40NoiseStdEntries    = 65
	ABF40DarkFacEntries     = 42
	ABF40LevelEntries       = 4
	ABF40AnchorEntries      = 5
	ABF40NoisePrsvBase      = 10
	ABF40BlackPixelLevels   = 2
	ABF40DistanceKernelTaps = 18
)

// ABF40Params is the adaptive Bayer filter tuning.
type ABF40Params struct {
	ActFac0               float32 `json:"act_fac0"`
	ActFac1               float32 `json:"act_fac1"`
	ActSmoothThreshold0   float32 `json:"act_smth_thd0"`
	ActSmoothThreshold1   float32 `json:"act_smth_thd1"`
	ActThreshold0         float32 `json:"act_thd0"`
	ActThreshold1         float32 `json:"act_thd1"`
	DarkThreshold         float32 `json:"dark_thd"`
	EdgeCountLow          float32 `json:"edge_count_low"`
	EdgeDetectNoiseScaler float32 `json:"edge_detect_noise_scaler"`
	EdgeDetectThreshold   float32 `json:"edge_detect_thd"`
	EdgeSmoothStrength    float32 `json:"edge_smooth_strength"`
	MinMaxBLS             float32 `json:"minmax_bls"`
	MinMaxMaxShift        float32 `json:"minmax_maxshft"`
	MinMaxMinShift        float32 `json:"minmax_minshft"`
	MinMaxOffset          float32 `json:"minmax_offset"`

	ActFacLUT   [ABF40ActFacEntries]float32   `json:"act_fac_lut"`
	NoiseStdLUT [ABF40NoiseStdEntries]float32 `json:"noise_std_lut"`
	DarkFacLUT  [ABF40DarkFacEntries]float32  `json:"dark_fac_lut"`

	DenoiseStrength  [ABF40LevelEntries]float32 `json:"denoise_strength"`
	CurveOffset      [ABF40LevelEntries]float32 `json:"curve_offset"`
	EdgeSmoothScaler [ABF40LevelEntries]float32 `json:"edge_smooth_scaler"`
	EdgeSoftness     [ABF40LevelEntries]float32 `json:"edge_softness"`

	NoisePrsvAnchor       [ABF40AnchorEntries]float32 `json:"noise_prsv_anchor"`
	RadialEdgeSoftnessAdj [ABF40AnchorEntries]float32 `json:"radial_edge_softness_adj"`
	RadialNoisePrsvAdj    [ABF40AnchorEntries]float32 `json:"radial_noise_prsv_adj"`
	NoisePrsvBase         [ABF40NoisePrsvBase]float32 `json:"noise_prsv_base"`

	// BlackPixelLevel is a selector; blends take the nearer operand.
	BlackPixelLevel [ABF40BlackPixelLevels]float32 `json:"blkpix_lev"`
	// DistanceKernel is always taken from the lower region.
	DistanceKernel [ABF40DistanceKernelTaps]int `json:"dist_ker"`

	// BilateralEnable is set from the dynamic enable after blending.
	BilateralEnable bool `json:"bilateral_en"`
}

// ABF40Chromatix is the adaptive Bayer filter calibration.
type ABF40Chromatix struct {
	ControlMethod chromatix.ControlMethod `json:"control_method"`

	// BilateralEnable is the static enable, and the starting state for
	// BilateralDynamicEnable's hysteresis.
	BilateralEnable        bool                 `json:"bilateral_en"`
	BilateralDynamicEnable iqutil.DynamicEnable `json:"bilateral_dynamic_enable"`

	Core ExposureCore[ABF40Params] `json:"chromatix_abf40_core"`
}

// Validate checks every axis of the calibration.
func (c *ABF40Chromatix) Validate() error {
	return validateExposureCore(c.Core, c.ControlMethod, nil)
}

// ABF40Input is the trigger snapshot for the adaptive Bayer filter.
type ABF40Input struct {
	Chromatix *ABF40Chromatix `json:"-"`

	ExposureTrigger
	DRCGain float32 `json:"drc_gain"`

	// BilateralTrigger is the signal the bilateral dynamic enable is keyed on.
	BilateralTrigger float32 `json:"bilateral_trigger"`
	// BilateralEnable is the hysteresis state carried between updates.
	BilateralEnable bool `json:"bilateral_en"`
	bilateralSeeded bool
}

// CheckUpdateTrigger reports whether any filter trigger changed.
func (in *ABF40Input) CheckUpdateTrigger(d *TriggerData) bool {
	var bilateral float32
	if in.Chromatix != nil {
		bilateral = d.ControlValue(in.Chromatix.BilateralDynamicEnable.ControlVar)
	}
	if in.ExposureTrigger.matches(d) && iqutil.FloatEqual(in.DRCGain, d.DRCGain) &&
		iqutil.FloatEqual(in.BilateralTrigger, bilateral) {
		return false
	}
	in.ExposureTrigger.capture(d)
	in.DRCGain = d.DRCGain
	in.BilateralTrigger = bilateral
	return true
}

// updateBilateralEnable advances the bilateral hysteresis for the current
// trigger. The first update starts from the static enable.
func (in *ABF40Input) updateBilateralEnable() bool {
	if !in.bilateralSeeded {
		in.BilateralEnable = in.Chromatix.BilateralEnable
		in.bilateralSeeded = true
	}
	in.BilateralEnable = in.Chromatix.BilateralDynamicEnable.Evaluate(in.BilateralTrigger, in.BilateralEnable)
	return in.BilateralEnable
}

var abf40Tree = newExposureTree(interpolateABF40)

// RunInterpolation resolves the filter tuning.
func (in *ABF40Input) RunInterpolation(out *ABF40Params) error {
	if in == nil || in.Chromatix == nil || out == nil {
		return interp.ErrInvalidArgument
	}

	var trig chromatix.TriggerList
	in.ExposureTrigger.apply(in.Chromatix.ControlMethod, &trig)
	trig.DRCGain = in.DRCGain

	enable := in.updateBilateralEnable()

	var nodes [ABF40MaxNode]interp.Node[ABF40Params]
	var scratch [ABF40MaxNonLeafNode]ABF40Params
	return abf40Tree.RunWithHook(nodes[:], scratch[:], &in.Chromatix.Core, &trig, out, func(p *ABF40Params) error {
		p.BilateralEnable = enable
		return nil
	})
}

func interpolateABF40(a, b *ABF40Params, r float32, out *ABF40Params) {
	out.ActFac0 = lerp(a.ActFac0, b.ActFac0, r)
	out.ActFac1 = lerp(a.ActFac1, b.ActFac1, r)
	out.ActSmoothThreshold0 = lerp(a.ActSmoothThreshold0, b.ActSmoothThreshold0, r)
	out.ActSmoothThreshold1 = lerp(a.ActSmoothThreshold1, b.ActSmoothThreshold1, r)
	out.ActThreshold0 = lerp(a.ActThreshold0, b.ActThreshold0, r)
	out.ActThreshold1 = lerp(a.ActThreshold1, b.ActThreshold1, r)
	out.DarkThreshold = lerp(a.DarkThreshold, b.DarkThreshold, r)
	out.EdgeCountLow = lerp(a.EdgeCountLow, b.EdgeCountLow, r)
	out.EdgeDetectNoiseScaler = lerp(a.EdgeDetectNoiseScaler, b.EdgeDetectNoiseScaler, r)
	out.EdgeDetectThreshold = lerp(a.EdgeDetectThreshold, b.EdgeDetectThreshold, r)
	out.EdgeSmoothStrength = lerp(a.EdgeSmoothStrength, b.EdgeSmoothStrength, r)
	out.MinMaxBLS = lerp(a.MinMaxBLS, b.MinMaxBLS, r)
	out.MinMaxMaxShift = lerp(a.MinMaxMaxShift, b.MinMaxMaxShift, r)
	out.MinMaxMinShift = lerp(a.MinMaxMinShift, b.MinMaxMinShift, r)
	out.MinMaxOffset = lerp(a.MinMaxOffset, b.MinMaxOffset, r)

	lerpTable(out.ActFacLUT[:], a.ActFacLUT[:], b.ActFacLUT[:], r)
	lerpTable(out.NoiseStdLUT[:], a.NoiseStdLUT[:], b.NoiseStdLUT[:], r)
	lerpTable(out.DarkFacLUT[:], a.DarkFacLUT[:], b.DarkFacLUT[:], r)
	lerpTable(out.DenoiseStrength[:], a.DenoiseStrength[:], b.DenoiseStrength[:], r)
	lerpTable(out.CurveOffset[:], a.CurveOffset[:], b.CurveOffset[:], r)
	lerpTable(out.EdgeSmoothScaler[:], a.EdgeSmoothScaler[:], b.EdgeSmoothScaler[:], r)
	lerpTable(out.EdgeSoftness[:], a.EdgeSoftness[:], b.EdgeSoftness[:], r)
	lerpTable(out.NoisePrsvAnchor[:], a.NoisePrsvAnchor[:], b.NoisePrsvAnchor[:], r)
	lerpTable(out.RadialEdgeSoftnessAdj[:], a.RadialEdgeSoftnessAdj[:], b.RadialEdgeSoftnessAdj[:], r)
	lerpTable(out.RadialNoisePrsvAdj[:], a.RadialNoisePrsvAdj[:], b.RadialNoisePrsvAdj[:], r)
	lerpTable(out.NoisePrsvBase[:], a.NoisePrsvBase[:], b.NoisePrsvBase[:], r)

	for i := range out.BlackPixelLevel {
		out.BlackPixelLevel[i] = iqutil.NearestNeighbour(a.BlackPixelLevel[i], b.BlackPixelLevel[i], r)
	}
	out.DistanceKernel = a.DistanceKernel
	out.BilateralEnable = nearestBool(a.BilateralEnable, b.BilateralEnable, r)
}
