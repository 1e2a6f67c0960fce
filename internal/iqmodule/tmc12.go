package iqmodule

import (
	"fmt"

	"github.com/banshee-data/iqinterp/internal/chromatix"
	"github.com/banshee-data/iqinterp/internal/interp"
	"github.com/banshee-data/iqinterp/internal/iqutil"
)

// TMC12 tree shape.
const (
	TMC12InterpolationLevel = exposureLevels
	TMC12MaxNode            = exposureMaxNode
	TMC12MaxNonLeafNode     = exposureMaxNonLeaf
)

// TMC12KneePoints is the number of tone curve knee points.
const TMC12KneePoints = 5

// TMC12Params is the tone mapping tuning for one trigger point.
type TMC12Params struct {
	GTMPercentage   float32 `json:"gtm_percentage"`
	LTMPercentage   float32 `json:"ltm_percentage"`
	DarkBoostRatio  float32 `json:"dark_boost_ratio"`
	DarkBoostOffset float32 `json:"dark_boost_offset"`

	ToneAnchors      [TMC12KneePoints]float32 `json:"tone_anchors"`
	ToneTarget       [TMC12KneePoints]float32 `json:"tone_target"`
	HistConvKernel   [TMC12KneePoints]float32 `json:"hist_conv_kernel"`
	HistEnhanceRatio [TMC12KneePoints]float32 `json:"hist_enhance_ratio"`

	ToneDarkAdj      float32 `json:"tone_dark_adj"`
	ToneBrightAdj    float32 `json:"tone_bright_adj"`
	StretchDarkStr   float32 `json:"stretch_dark_str"`
	StretchBrightStr float32 `json:"stretch_bright_str"`

	HistClipSlope         float32 `json:"hist_clip_slope"`
	HistEnhanceClamp      float32 `json:"hist_enhance_clamp"`
	HistSuprRangeStart    float32 `json:"hist_supr_range_start"`
	HistSuprRangeEnd      float32 `json:"hist_supr_range_end"`
	HistBoostRangeStart   float32 `json:"hist_boost_range_start"`
	HistBoostRangeEnd     float32 `json:"hist_boost_range_end"`
	HistAvgRangeStart     float32 `json:"hist_avg_range_start"`
	HistAvgRangeEnd       float32 `json:"hist_avg_range_end"`
	HistSmoothingStr      float32 `json:"hist_smoothing_str"`
	HistCurveSmoothingStr float32 `json:"hist_curve_smoothing_str"`

	SceneChangeLuxIdxDeltaTh1    float32 `json:"scene_change_lux_idx_delta_th1"`
	SceneChangeLuxIdxDeltaTh2    float32 `json:"scene_change_lux_idx_delta_th2"`
	SceneChangeHistDeltaTh1      float32 `json:"scene_change_hist_delta_th1"`
	SceneChangeHistDeltaTh2      float32 `json:"scene_change_hist_delta_th2"`
	SceneChangeSmoothingStr      float32 `json:"scene_change_smoothing_str"`
	SceneChangeCurveSmoothingStr float32 `json:"scene_change_curve_smoothing_str"`

	ContrastHEBright   float32 `json:"contrast_he_bright"`
	ContrastHEDark     float32 `json:"contrast_he_dark"`
	ContrastDarkAdj    float32 `json:"contrast_dark_adj"`
	ContrastBrightClip float32 `json:"contrast_bright_clip"`

	CoreRsvPara1 float32 `json:"core_rsv_para1"`
	CoreRsvPara2 float32 `json:"core_rsv_para2"`
	CoreRsvPara3 float32 `json:"core_rsv_para3"`
	CoreRsvPara4 float32 `json:"core_rsv_para4"`
	CoreRsvPara5 float32 `json:"core_rsv_para5"`
}

// TMC12CurveModel selects how the knee points are joined.
type TMC12CurveModel int

const (
	TMC12CurveBezier TMC12CurveModel = 1
	TMC12CurvePCHIP  TMC12CurveModel = 2
)

// TMC12Reserve is the tone mapping configuration outside the region tree.
type TMC12Reserve struct {
	UseGTM       bool            `json:"use_gtm"`
	UseLTM       bool            `json:"use_ltm"`
	CurveModel   TMC12CurveModel `json:"curve_model"`
	ToneMaxRatio float32         `json:"tone_max_ratio"`
}

// TMC12Chromatix is the tone mapping calibration.
type TMC12Chromatix struct {
	Enable        bool                      `json:"tmc_enable"`
	ControlMethod chromatix.ControlMethod   `json:"control_method"`
	Reserve       TMC12Reserve              `json:"chromatix_tmc12_reserve"`
	Core          ExposureCore[TMC12Params] `json:"chromatix_tmc12_core"`
}

// Validate checks the reserve and every axis of the calibration.
func (c *TMC12Chromatix) Validate() error {
	if c.Reserve.ToneMaxRatio <= 0 {
		return fmt.Errorf("tone_max_ratio %v must be positive: %w", c.Reserve.ToneMaxRatio, ErrInvalidParams)
	}
	return validateExposureCore(c.Core, c.ControlMethod, nil)
}

// TMC12Input is the trigger snapshot for tone mapping, plus the per-frame
// statistics the gain curve is computed from.
type TMC12Input struct {
	Chromatix *TMC12Chromatix `json:"-"`

	ExposureTrigger
	DRCGain      float32 `json:"drc_gain"`
	DRCGainDark  float32 `json:"drc_gain_dark"`
	PrevLuxIndex float32 `json:"prev_lux_index"`

	// Overrides are ignored when nil or out of range. The dark boost
	// offset must lie in [0,1]; the fourth anchor must sit strictly between
	// the third and fifth tone anchors.
	OverrideDarkBoostOffset  *float32 `json:"override_dark_boost_offset,omitempty"`
	OverrideFourthToneAnchor *float32 `json:"override_fourth_tone_anchor,omitempty"`

	// Histogram is the GR Bayer histogram for the frame. Without one the
	// histogram driven terms are switched off.
	Histogram *TMC12Histogram `json:"-"`
	// Gamma is the green channel of the resolved gamma, in 10-bit output
	// units.
	Gamma *[Gamma15TableSize]float32 `json:"-"`
}

// CheckUpdateTrigger reports whether any tone mapping trigger changed. The
// previous lux index is refreshed along with the rest.
func (in *TMC12Input) CheckUpdateTrigger(d *TriggerData) bool {
	if in.ExposureTrigger.matches(d) &&
		iqutil.FloatEqual(in.DRCGain, d.DRCGain) &&
		iqutil.FloatEqual(in.DRCGainDark, d.DRCGainDark) {
		return false
	}
	in.ExposureTrigger.capture(d)
	in.DRCGain = d.DRCGain
	in.DRCGainDark = d.DRCGainDark
	in.PrevLuxIndex = d.AECPrevLuxIndex
	return true
}

var tmc12Tree = newExposureTree(interpolateTMC12)

func (in *TMC12Input) triggers() chromatix.TriggerList {
	var trig chromatix.TriggerList
	in.ExposureTrigger.apply(in.Chromatix.ControlMethod, &trig)
	trig.DRCGain = in.DRCGain
	return trig
}

// RunInterpolation resolves the tone mapping tuning only.
func (in *TMC12Input) RunInterpolation(out *TMC12Params) error {
	if in == nil || in.Chromatix == nil || out == nil {
		return interp.ErrInvalidArgument
	}

	trig := in.triggers()
	var nodes [TMC12MaxNode]interp.Node[TMC12Params]
	var scratch [TMC12MaxNonLeafNode]TMC12Params
	return tmc12Tree.Run(nodes[:], scratch[:], &in.Chromatix.Core, &trig, out)
}

// RunGainCurve resolves the tuning and then computes the frame's gain curve
// into adrc. state carries the previous frame's histogram and CDF; it is
// read but not advanced, so a caller may retry a frame.
func (in *TMC12Input) RunGainCurve(out *TMC12Params, state *TMC12FrameState, adrc *TMC12ADRC) error {
	if in == nil || in.Chromatix == nil || out == nil || adrc == nil {
		return interp.ErrInvalidArgument
	}

	trig := in.triggers()
	var nodes [TMC12MaxNode]interp.Node[TMC12Params]
	var scratch [TMC12MaxNonLeafNode]TMC12Params
	return tmc12Tree.RunWithHook(nodes[:], scratch[:], &in.Chromatix.Core, &trig, out,
		func(p *TMC12Params) error {
			return TMC12PostBlend(in, state, p, adrc)
		})
}

func interpolateTMC12(a, b *TMC12Params, r float32, out *TMC12Params) {
	out.GTMPercentage = lerp(a.GTMPercentage, b.GTMPercentage, r)
	out.LTMPercentage = lerp(a.LTMPercentage, b.LTMPercentage, r)
	out.DarkBoostRatio = lerp(a.DarkBoostRatio, b.DarkBoostRatio, r)
	out.DarkBoostOffset = lerp(a.DarkBoostOffset, b.DarkBoostOffset, r)

	lerpTable(out.ToneAnchors[:], a.ToneAnchors[:], b.ToneAnchors[:], r)
	lerpTable(out.ToneTarget[:], a.ToneTarget[:], b.ToneTarget[:], r)
	lerpTable(out.HistConvKernel[:], a.HistConvKernel[:], b.HistConvKernel[:], r)
	lerpTable(out.HistEnhanceRatio[:], a.HistEnhanceRatio[:], b.HistEnhanceRatio[:], r)

	out.ToneDarkAdj = lerp(a.ToneDarkAdj, b.ToneDarkAdj, r)
	out.ToneBrightAdj = lerp(a.ToneBrightAdj, b.ToneBrightAdj, r)
	out.StretchDarkStr = lerp(a.StretchDarkStr, b.StretchDarkStr, r)
	out.StretchBrightStr = lerp(a.StretchBrightStr, b.StretchBrightStr, r)

	out.HistClipSlope = lerp(a.HistClipSlope, b.HistClipSlope, r)
	out.HistEnhanceClamp = lerp(a.HistEnhanceClamp, b.HistEnhanceClamp, r)
	out.HistSuprRangeStart = lerp(a.HistSuprRangeStart, b.HistSuprRangeStart, r)
	out.HistSuprRangeEnd = lerp(a.HistSuprRangeEnd, b.HistSuprRangeEnd, r)
	out.HistBoostRangeStart = lerp(a.HistBoostRangeStart, b.HistBoostRangeStart, r)
	out.HistBoostRangeEnd = lerp(a.HistBoostRangeEnd, b.HistBoostRangeEnd, r)
	out.HistAvgRangeStart = lerp(a.HistAvgRangeStart, b.HistAvgRangeStart, r)
	out.HistAvgRangeEnd = lerp(a.HistAvgRangeEnd, b.HistAvgRangeEnd, r)
	out.HistSmoothingStr = lerp(a.HistSmoothingStr, b.HistSmoothingStr, r)
	out.HistCurveSmoothingStr = lerp(a.HistCurveSmoothingStr, b.HistCurveSmoothingStr, r)

	out.SceneChangeLuxIdxDeltaTh1 = lerp(a.SceneChangeLuxIdxDeltaTh1, b.SceneChangeLuxIdxDeltaTh1, r)
	out.SceneChangeLuxIdxDeltaTh2 = lerp(a.SceneChangeLuxIdxDeltaTh2, b.SceneChangeLuxIdxDeltaTh2, r)
	out.SceneChangeHistDeltaTh1 = lerp(a.SceneChangeHistDeltaTh1, b.SceneChangeHistDeltaTh1, r)
	out.SceneChangeHistDeltaTh2 = lerp(a.SceneChangeHistDeltaTh2, b.SceneChangeHistDeltaTh2, r)
	out.SceneChangeSmoothingStr = lerp(a.SceneChangeSmoothingStr, b.SceneChangeSmoothingStr, r)
	out.SceneChangeCurveSmoothingStr = lerp(a.SceneChangeCurveSmoothingStr, b.SceneChangeCurveSmoothingStr, r)

	out.ContrastHEBright = lerp(a.ContrastHEBright, b.ContrastHEBright, r)
	out.ContrastHEDark = lerp(a.ContrastHEDark, b.ContrastHEDark, r)
	out.ContrastDarkAdj = lerp(a.ContrastDarkAdj, b.ContrastDarkAdj, r)
	out.ContrastBrightClip = lerp(a.ContrastBrightClip, b.ContrastBrightClip, r)

	out.CoreRsvPara1 = lerp(a.CoreRsvPara1, b.CoreRsvPara1, r)
	out.CoreRsvPara2 = lerp(a.CoreRsvPara2, b.CoreRsvPara2, r)
	out.CoreRsvPara3 = lerp(a.CoreRsvPara3, b.CoreRsvPara3, r)
	out.CoreRsvPara4 = lerp(a.CoreRsvPara4, b.CoreRsvPara4, r)
	out.CoreRsvPara5 = lerp(a.CoreRsvPara5, b.CoreRsvPara5, r)
}
