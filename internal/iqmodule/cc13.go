package iqmodule

import (
	"github.com/banshee-data/iqinterp/internal/chromatix"
	"github.com/banshee-data/iqinterp/internal/interp"
	"github.com/banshee-data/iqinterp/internal/iqutil"
)

// CC13 tree shape.
const (
	CC13InterpolationLevel = flashLevels
	CC13MaxNode            = flashMaxNode
	CC13MaxNonLeafNode     = flashMaxNonLeaf
)

// CC13Params is the colour correction matrix and offsets.
type CC13Params struct {
	C [9]float32 `json:"c"`
	K [3]float32 `json:"k"`
}

// CC13Chromatix is the colour correction calibration.
type CC13Chromatix struct {
	ControlMethod chromatix.ControlMethod      `json:"control_method"`
	PrivateInfo   chromatix.PrivateInformation `json:"private_information"`
	Core          FlashCore[CC13Params]        `json:"chromatix_cc13_core"`
}

// Validate checks every axis of the calibration.
func (c *CC13Chromatix) Validate() error {
	return validateFlashCore(c.Core, c.ControlMethod, nil)
}

// CC13Input is the trigger snapshot the colour correction is resolved for.
type CC13Input struct {
	Chromatix *CC13Chromatix `json:"-"`

	ExposureTrigger
	FlashTrigger
	DRCGain float32 `json:"drc_gain"`
	CCT     float32 `json:"cct"`
}

// CheckUpdateTrigger copies d into the snapshot and reports true when any
// field colour correction reads has changed.
func (in *CC13Input) CheckUpdateTrigger(d *TriggerData) bool {
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

var cc13Tree = newFlashTree(interpolateCC13)

// RunInterpolation resolves the colour correction for the snapshot.
func (in *CC13Input) RunInterpolation(out *CC13Params) error {
	if in == nil || in.Chromatix == nil || out == nil {
		return interp.ErrInvalidArgument
	}

	var trig chromatix.TriggerList
	in.ExposureTrigger.apply(in.Chromatix.ControlMethod, &trig)
	in.FlashTrigger.apply(in.Chromatix.PrivateInfo, &trig)
	trig.DRCGain = in.DRCGain
	trig.CCT = in.CCT

	var nodes [CC13MaxNode]interp.Node[CC13Params]
	var scratch [CC13MaxNonLeafNode]CC13Params
	return cc13Tree.Run(nodes[:], scratch[:], &in.Chromatix.Core, &trig, out)
}

func interpolateCC13(a, b *CC13Params, ratio float32, out *CC13Params) {
	lerpTable(out.C[:], a.C[:], b.C[:], ratio)
	lerpTable(out.K[:], a.K[:], b.K[:], ratio)
}
