package iqmodule

import (
	"github.com/banshee-data/iqinterp/internal/chromatix"
	"github.com/banshee-data/iqinterp/internal/interp"
	"github.com/banshee-data/iqinterp/internal/iqutil"
)

// ASF30 tree shape: total scale ratio > DRC gain > HDR exposure > AEC.
const (
	ASF30InterpolationLevel = 5
	ASF30MaxNode            = 31 // 1 + 2 + 4 + 8 + 16
	ASF30MaxNonLeafNode     = 15 // 1 + 2 + 4 + 8
)

// ASF30 table sizes.
const (
	ASF30Layer1FilterTaps = 10
	ASF30ActivityBPFTaps  = 6
	ASF30Layer2FilterTaps = 6
	ASF30LUTEntries       = 64
	ASF30GainCurveEntries = 32
	ASF30SkinEntries      = 17
	ASF30RadialEntries    = 4
)

// ASF30Layer is the per-layer sharpening tuning shared by both layers.
type ASF30Layer struct {
	ActivityBandPassCoeff    [ASF30ActivityBPFTaps]float32 `json:"activity_band_pass_coeff"`
	ActivityNormalizationLUT [ASF30LUTEntries]float32      `json:"activity_normalization_lut"`
	WeightModulationLUT      [ASF30LUTEntries]float32      `json:"weight_modulation_lut"`
	SoftThresholdLUT         [ASF30LUTEntries]float32      `json:"soft_threshold_lut"`
	GainPositiveLUT          [ASF30LUTEntries]float32      `json:"gain_positive_lut"`
	GainNegativeLUT          [ASF30LUTEntries]float32      `json:"gain_negative_lut"`
	GainWeightLUT            [ASF30LUTEntries]float32      `json:"gain_weight_lut"`

	ActivityClampThreshold float32 `json:"activity_clamp_threshold"`
	ClampLL                float32 `json:"clamp_ll"`
	ClampUL                float32 `json:"clamp_ul"`
	NormScale              float32 `json:"norm_scale"`
	// L2NormEnable is a switch; blends take the nearer operand.
	L2NormEnable bool `json:"l2_norm_en"`
}

// ASF30Params is the adaptive spatial filter tuning.
type ASF30Params struct {
	Layer1 ASF30Layer `json:"layer_1"`
	Layer2 ASF30Layer `json:"layer_2"`

	Layer1HPFSymmetricCoeff [ASF30Layer1FilterTaps]float32 `json:"layer_1_hpf_symmetric_coeff"`
	Layer1LPFSymmetricCoeff [ASF30Layer1FilterTaps]float32 `json:"layer_1_lpf_symmetric_coeff"`
	Layer2HPFSymmetricCoeff [ASF30Layer2FilterTaps]float32 `json:"layer_2_hpf_symmetric_coeff"`
	Layer2LPFSymmetricCoeff [ASF30Layer2FilterTaps]float32 `json:"layer_2_lpf_symmetric_coeff"`

	Layer1GainCap                  float32 `json:"layer_1_gain_cap"`
	Layer1GammaCorrectedLumaTarget float32 `json:"layer_1_gamma_corrected_luma_target"`
	Layer1MedianBlendLowerOffset   float32 `json:"layer_1_median_blend_lower_offset"`
	Layer1MedianBlendUpperOffset   float32 `json:"layer_1_median_blend_upper_offset"`
	Layer1SP                       float32 `json:"layer_1_sp"`

	GainContrastPositive [ASF30GainCurveEntries]float32 `json:"gain_contrast_positive"`
	GainContrastNegative [ASF30GainCurveEntries]float32 `json:"gain_contrast_negative"`
	GainChromaPositive   [ASF30GainCurveEntries]float32 `json:"gain_chroma_positive"`
	GainChromaNegative   [ASF30GainCurveEntries]float32 `json:"gain_chroma_negative"`
	SkinActivity         [ASF30SkinEntries]float32      `json:"skin_activity"`
	SkinGain             [ASF30SkinEntries]float32      `json:"skin_gain"`
	RadialActivityAdj    [ASF30RadialEntries]float32    `json:"radial_activity_adj"`
	RadialGainAdj        [ASF30RadialEntries]float32    `json:"radial_gain_adj"`

	CornerThreshold         float32 `json:"corner_threshold"`
	FaceBoundary            float32 `json:"face_boundary"`
	FaceTransition          float32 `json:"face_transition"`
	FlatThreshold           float32 `json:"flat_threshold"`
	MaxSmoothingClamp       float32 `json:"max_smoothing_clamp"`
	SmoothingStrength       float32 `json:"smoothing_strength"`
	SkinBoundaryProbability float32 `json:"skin_boundary_probability"`
	SkinHueMax              float32 `json:"skin_hue_max"`
	SkinHueMin              float32 `json:"skin_hue_min"`
	SkinNonskinToSkinQRatio float32 `json:"skin_nonskin_to_skin_qratio"`
	SkinPercent             float32 `json:"skin_percent"`
	SkinSaturationMaxYMax   float32 `json:"skin_saturation_max_ymax"`
	SkinSaturationMaxYMin   float32 `json:"skin_saturation_max_ymin"`
	SkinSaturationMinYMax   float32 `json:"skin_saturation_min_ymax"`
	SkinSaturationMinYMin   float32 `json:"skin_saturation_min_ymin"`
	SkinYMax                float32 `json:"skin_y_max"`
	SkinYMin                float32 `json:"skin_y_min"`
}

// ASF30Chromatix is the adaptive spatial filter calibration.
type ASF30Chromatix struct {
	ControlMethod chromatix.ControlMethod `json:"control_method"`
	Core          ScaleCore[ASF30Params]  `json:"chromatix_asf30_core"`
}

// Validate checks every axis of the calibration.
func (c *ASF30Chromatix) Validate() error {
	return chromatix.ValidateRegions("scale", c.Core, func(core *ExposureCore[ASF30Params]) error {
		return validateExposureCore(*core, c.ControlMethod, nil)
	})
}

// ASF30Input is the trigger snapshot for the adaptive spatial filter.
type ASF30Input struct {
	Chromatix *ASF30Chromatix `json:"-"`

	ExposureTrigger
	DRCGain         float32 `json:"drc_gain"`
	TotalScaleRatio float32 `json:"total_scale_ratio"`
}

// CheckUpdateTrigger reports whether any filter trigger changed.
func (in *ASF30Input) CheckUpdateTrigger(d *TriggerData) bool {
	if in.ExposureTrigger.matches(d) &&
		iqutil.FloatEqual(in.DRCGain, d.DRCGain) &&
		iqutil.FloatEqual(in.TotalScaleRatio, d.TotalScaleRatio) {
		return false
	}
	in.ExposureTrigger.capture(d)
	in.DRCGain = d.DRCGain
	in.TotalScaleRatio = d.TotalScaleRatio
	return true
}

var asf30Tree = &interp.Tree[ASF30Params, chromatix.TriggerList]{
	Levels: ASF30InterpolationLevel,
	Operations: append([]operation[ASF30Params]{
		{Search: chromatix.TotalScaleRatioSearch[ASF30Params, ExposureCore[ASF30Params]](), ChildrenPerNode: 2},
	}, exposureOperations[ASF30Params]()...),
	Blend: interp.GuardedBlend(interpolateASF30),
}

// RunInterpolation resolves the filter tuning.
func (in *ASF30Input) RunInterpolation(out *ASF30Params) error {
	if in == nil || in.Chromatix == nil || out == nil {
		return interp.ErrInvalidArgument
	}

	var trig chromatix.TriggerList
	in.ExposureTrigger.apply(in.Chromatix.ControlMethod, &trig)
	trig.DRCGain = in.DRCGain
	trig.TotalScaleRatio = in.TotalScaleRatio

	var nodes [ASF30MaxNode]interp.Node[ASF30Params]
	var scratch [ASF30MaxNonLeafNode]ASF30Params
	return asf30Tree.Run(nodes[:], scratch[:], &in.Chromatix.Core, &trig, out)
}

func interpolateASF30(a, b *ASF30Params, r float32, out *ASF30Params) {
	blendLayer(&a.Layer1, &b.Layer1, r, &out.Layer1)
	blendLayer(&a.Layer2, &b.Layer2, r, &out.Layer2)
	lerpTable(out.Layer1HPFSymmetricCoeff[:], a.Layer1HPFSymmetricCoeff[:], b.Layer1HPFSymmetricCoeff[:], r)
	lerpTable(out.Layer1LPFSymmetricCoeff[:], a.Layer1LPFSymmetricCoeff[:], b.Layer1LPFSymmetricCoeff[:], r)
	lerpTable(out.Layer2HPFSymmetricCoeff[:], a.Layer2HPFSymmetricCoeff[:], b.Layer2HPFSymmetricCoeff[:], r)
	lerpTable(out.Layer2LPFSymmetricCoeff[:], a.Layer2LPFSymmetricCoeff[:], b.Layer2LPFSymmetricCoeff[:], r)

	out.Layer1GainCap = lerp(a.Layer1GainCap, b.Layer1GainCap, r)
	out.Layer1GammaCorrectedLumaTarget = lerp(a.Layer1GammaCorrectedLumaTarget, b.Layer1GammaCorrectedLumaTarget, r)
	out.Layer1MedianBlendLowerOffset = lerp(a.Layer1MedianBlendLowerOffset, b.Layer1MedianBlendLowerOffset, r)
	out.Layer1MedianBlendUpperOffset = lerp(a.Layer1MedianBlendUpperOffset, b.Layer1MedianBlendUpperOffset, r)
	out.Layer1SP = lerp(a.Layer1SP, b.Layer1SP, r)

	lerpTable(out.GainContrastPositive[:], a.GainContrastPositive[:], b.GainContrastPositive[:], r)
	lerpTable(out.GainContrastNegative[:], a.GainContrastNegative[:], b.GainContrastNegative[:], r)
	lerpTable(out.GainChromaPositive[:], a.GainChromaPositive[:], b.GainChromaPositive[:], r)
	lerpTable(out.GainChromaNegative[:], a.GainChromaNegative[:], b.GainChromaNegative[:], r)
	lerpTable(out.SkinActivity[:], a.SkinActivity[:], b.SkinActivity[:], r)
	lerpTable(out.SkinGain[:], a.SkinGain[:], b.SkinGain[:], r)
	lerpTable(out.RadialActivityAdj[:], a.RadialActivityAdj[:], b.RadialActivityAdj[:], r)
	lerpTable(out.RadialGainAdj[:], a.RadialGainAdj[:], b.RadialGainAdj[:], r)

	out.CornerThreshold = lerp(a.CornerThreshold, b.CornerThreshold, r)
	out.FaceBoundary = lerp(a.FaceBoundary, b.FaceBoundary, r)
	out.FaceTransition = lerp(a.FaceTransition, b.FaceTransition, r)
	out.FlatThreshold = lerp(a.FlatThreshold, b.FlatThreshold, r)
	out.MaxSmoothingClamp = lerp(a.MaxSmoothingClamp, b.MaxSmoothingClamp, r)
	out.SmoothingStrength = lerp(a.SmoothingStrength, b.SmoothingStrength, r)
	out.SkinBoundaryProbability = lerp(a.SkinBoundaryProbability, b.SkinBoundaryProbability, r)
	out.SkinHueMax = lerp(a.SkinHueMax, b.SkinHueMax, r)
	out.SkinHueMin = lerp(a.SkinHueMin, b.SkinHueMin, r)
	out.SkinNonskinToSkinQRatio = lerp(a.SkinNonskinToSkinQRatio, b.SkinNonskinToSkinQRatio, r)
	out.SkinPercent = lerp(a.SkinPercent, b.SkinPercent, r)
	out.SkinSaturationMaxYMax = lerp(a.SkinSaturationMaxYMax, b.SkinSaturationMaxYMax, r)
	out.SkinSaturationMaxYMin = lerp(a.SkinSaturationMaxYMin, b.SkinSaturationMaxYMin, r)
	out.SkinSaturationMinYMax = lerp(a.SkinSaturationMinYMax, b.SkinSaturationMinYMax, r)
	out.SkinSaturationMinYMin = lerp(a.SkinSaturationMinYMin, b.SkinSaturationMinYMin, r)
	out.SkinYMax = lerp(a.SkinYMax, b.SkinYMax, r)
	out.SkinYMin = lerp(a.SkinYMin, b.SkinYMin, r)
}

// blendLayer blends the tuning both sharpening layers share.
func blendLayer(a, b *ASF30Layer, r float32, out *ASF30Layer) {
	lerpTable(out.ActivityBandPassCoeff[:], a.ActivityBandPassCoeff[:], b.ActivityBandPassCoeff[:], r)
	lerpTable(out.ActivityNormalizationLUT[:], a.ActivityNormalizationLUT[:], b.ActivityNormalizationLUT[:], r)
	lerpTable(out.WeightModulationLUT[:], a.WeightModulationLUT[:], b.WeightModulationLUT[:], r)
	lerpTable(out.SoftThresholdLUT[:], a.SoftThresholdLUT[:], b.SoftThresholdLUT[:], r)
	lerpTable(out.GainPositiveLUT[:], a.GainPositiveLUT[:], b.GainPositiveLUT[:], r)
	lerpTable(out.GainNegativeLUT[:], a.GainNegativeLUT[:], b.GainNegativeLUT[:], r)
	lerpTable(out.GainWeightLUT[:], a.GainWeightLUT[:], b.GainWeightLUT[:], r)

	out.ActivityClampThreshold = lerp(a.ActivityClampThreshold, b.ActivityClampThreshold, r)
	out.ClampLL = lerp(a.ClampLL, b.ClampLL, r)
	out.ClampUL = lerp(a.ClampUL, b.ClampUL, r)
	out.NormScale = lerp(a.NormScale, b.NormScale, r)
	out.L2NormEnable = nearestBool(a.L2NormEnable, b.L2NormEnable, r)
}
