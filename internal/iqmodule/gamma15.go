package iqmodule

import (
	"github.com/banshee-data/iqinterp/internal/chromatix"
	"github.com/banshee-data/iqinterp/internal/interp"
	"github.com/banshee-data/iqinterp/internal/iqutil"
)

// Gamma15 tree shape.
const (
	Gamma15InterpolationLevel = flashLevels
	Gamma15MaxNode            = flashMaxNode
	Gamma15MaxNonLeafNode     = flashMaxNonLeaf
)

// Gamma15TableSize is the number of entries per channel table.
const Gamma15TableSize = 257

// Gamma15Params holds the three channel gamma tables.
type Gamma15Params struct {
	G [Gamma15TableSize]float32 `json:"g"`
	B [Gamma15TableSize]float32 `json:"b"`
	R [Gamma15TableSize]float32 `json:"r"`
}

// Gamma15Chromatix is the gamma calibration.
type Gamma15Chromatix struct {
	ControlMethod chromatix.ControlMethod      `json:"control_method"`
	PrivateInfo   chromatix.PrivateInformation `json:"private_information"`
	Core          FlashCore[Gamma15Params]     `json:"chromatix_gamma15_core"`
}

// Validate checks every axis of the calibration.
func (c *Gamma15Chromatix) Validate() error {
	return validateFlashCore(c.Core, c.ControlMethod, nil)
}

// Gamma15Input is the trigger snapshot for gamma.
type Gamma15Input struct {
	Chromatix *Gamma15Chromatix `json:"-"`

	ExposureTrigger
	FlashTrigger
	DRCGain float32 `json:"drc_gain"`
	CCT     float32 `json:"cct"`
}

// CheckUpdateTrigger reports whether any gamma trigger changed.
func (in *Gamma15Input) CheckUpdateTrigger(d *TriggerData) bool {
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

var gamma15Tree = newFlashTree(interpolateGamma15)

// RunInterpolation resolves the gamma tables.
func (in *Gamma15Input) RunInterpolation(out *Gamma15Params) error {
	if in == nil || in.Chromatix == nil || out == nil {
		return interp.ErrInvalidArgument
	}

	var trig chromatix.TriggerList
	in.ExposureTrigger.apply(in.Chromatix.ControlMethod, &trig)
	in.FlashTrigger.apply(in.Chromatix.PrivateInfo, &trig)
	trig.DRCGain = in.DRCGain
	trig.CCT = in.CCT

	var nodes [Gamma15MaxNode]interp.Node[Gamma15Params]
	var scratch [Gamma15MaxNonLeafNode]Gamma15Params
	return gamma15Tree.Run(nodes[:], scratch[:], &in.Chromatix.Core, &trig, out)
}

func interpolateGamma15(a, b *Gamma15Params, ratio float32, out *Gamma15Params) {
	lerpTable(out.G[:], a.G[:], b.G[:], ratio)
	lerpTable(out.B[:], a.B[:], b.B[:], ratio)
	lerpTable(out.R[:], a.R[:], b.R[:], ratio)
}
