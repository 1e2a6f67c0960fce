package iqmodule

import (
	"github.com/banshee-data/iqinterp/internal/chromatix"
	"github.com/banshee-data/iqinterp/internal/interp"
	"github.com/banshee-data/iqinterp/internal/iqutil"
)

// BLS12 tree shape.
const (
	BLS12InterpolationLevel = flashLevels
	BLS12MaxNode            = flashMaxNode
	BLS12MaxNonLeafNode     = flashMaxNonLeaf
)

// BLS12Params is the black level offset and the per-channel thresholds.
type BLS12Params struct {
	Offset      float32 `json:"offset"`
	ThresholdR  float32 `json:"threshold_r"`
	ThresholdGR float32 `json:"threshold_gr"`
	ThresholdGB float32 `json:"threshold_gb"`
	ThresholdB  float32 `json:"threshold_b"`
}

// BLS12Chromatix is the black level subtraction calibration.
type BLS12Chromatix struct {
	ControlMethod chromatix.ControlMethod      `json:"control_method"`
	PrivateInfo   chromatix.PrivateInformation `json:"private_information"`
	Core          FlashCore[BLS12Params]       `json:"chromatix_bls12_core"`
}

// Validate checks every axis of the calibration.
func (c *BLS12Chromatix) Validate() error {
	return validateFlashCore(c.Core, c.ControlMethod, nil)
}

// BLS12Input is the trigger snapshot for black level subtraction.
type BLS12Input struct {
	Chromatix *BLS12Chromatix `json:"-"`

	ExposureTrigger
	FlashTrigger
	DRCGain float32 `json:"drc_gain"`
	CCT     float32 `json:"cct"`
}

// CheckUpdateTrigger reports whether any black level trigger changed.
func (in *BLS12Input) CheckUpdateTrigger(d *TriggerData) bool {
	if in.ExposureTrigger.matches(d) && in.FlashTrigger.matches(d) &&
		iqutil.FloatEqual(in.DRCGain, d.DRCGain) &&
		iqutil.FloatEqual(in.CCT, d.AWBColorTemperature) {
		return false
	}
	in.ExposureTrigger.capture(d)
	in.FlashTrigger.capture(d)
	in.DRCGain = d.DRCGain
	in.CCT = d.AWBColorTemperature
	return true
}

var bls12Tree = newFlashTree(interpolateBLS12)

// RunInterpolation resolves the black level parameters.
func (in *BLS12Input) RunInterpolation(out *BLS12Params) error {
	if in == nil || in.Chromatix == nil || out == nil {
		return interp.ErrInvalidArgument
	}

	var trig chromatix.TriggerList
	in.ExposureTrigger.apply(in.Chromatix.ControlMethod, &trig)
	in.FlashTrigger.apply(in.Chromatix.PrivateInfo, &trig)
	trig.DRCGain = in.DRCGain
	trig.CCT = in.CCT

	var nodes [BLS12MaxNode]interp.Node[BLS12Params]
	var scratch [BLS12MaxNonLeafNode]BLS12Params
	return bls12Tree.Run(nodes[:], scratch[:], &in.Chromatix.Core, &trig, out)
}

func interpolateBLS12(a, b *BLS12Params, ratio float32, out *BLS12Params) {
	out.Offset = lerp(a.Offset, b.Offset, ratio)
	out.ThresholdR = lerp(a.ThresholdR, b.ThresholdR, ratio)
	out.ThresholdGR = lerp(a.ThresholdGR, b.ThresholdGR, ratio)
	out.ThresholdGB = lerp(a.ThresholdGB, b.ThresholdGB, ratio)
	out.ThresholdB = lerp(a.ThresholdB, b.ThresholdB, ratio)
}
