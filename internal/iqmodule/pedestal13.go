package iqmodule

import (
	"github.com/banshee-data/iqinterp/internal/chromatix"
	"github.com/banshee-data/iqinterp/internal/interp"
	"github.com/banshee-data/iqinterp/internal/iqutil"
)

// Pedestal13 tree shape.
const (
	Pedestal13InterpolationLevel = flashLevels
	Pedestal13MaxNode            = flashMaxNode
	Pedestal13MaxNonLeafNode     = flashMaxNonLeaf
)

const (
	// Pedestal13MeshEntries is the size of each 13x10 channel mesh.
	Pedestal13MeshEntries = 130
	pedestalMaxLevel      = 1<<12 - 1
)

// Pedestal13Params holds the per-channel black level meshes.
type Pedestal13Params struct {
	R  [Pedestal13MeshEntries]uint16 `json:"r"`
	GR [Pedestal13MeshEntries]uint16 `json:"gr"`
	GB [Pedestal13MeshEntries]uint16 `json:"gb"`
	B  [Pedestal13MeshEntries]uint16 `json:"b"`
}

// Pedestal13Chromatix is the pedestal calibration.
type Pedestal13Chromatix struct {
	ControlMethod chromatix.ControlMethod      `json:"control_method"`
	PrivateInfo   chromatix.PrivateInformation `json:"private_information"`
	Core          FlashCore[Pedestal13Params]  `json:"chromatix_pedestal13_core"`
}

// Validate checks every axis of the calibration.
func (c *Pedestal13Chromatix) Validate() error {
	return validateFlashCore(c.Core, c.ControlMethod, nil)
}

// Pedestal13Input is the trigger snapshot for pedestal correction.
type Pedestal13Input struct {
	Chromatix *Pedestal13Chromatix `json:"-"`

	ExposureTrigger
	FlashTrigger
	DRCGain float32 `json:"drc_gain"`
	CCT     float32 `json:"cct"`
}

// CheckUpdateTrigger reports whether any pedestal trigger changed.
func (in *Pedestal13Input) CheckUpdateTrigger(d *TriggerData) bool {
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

var pedestal13Tree = newFlashTree(interpolatePedestal13)

// RunInterpolation resolves the pedestal meshes.
func (in *Pedestal13Input) RunInterpolation(out *Pedestal13Params) error {
	if in == nil || in.Chromatix == nil || out == nil {
		return interp.ErrInvalidArgument
	}

	var trig chromatix.TriggerList
	in.ExposureTrigger.apply(in.Chromatix.ControlMethod, &trig)
	in.FlashTrigger.apply(in.Chromatix.PrivateInfo, &trig)
	trig.DRCGain = in.DRCGain
	trig.CCT = in.CCT

	var nodes [Pedestal13MaxNode]interp.Node[Pedestal13Params]
	var scratch [Pedestal13MaxNonLeafNode]Pedestal13Params
	return pedestal13Tree.Run(nodes[:], scratch[:], &in.Chromatix.Core, &trig, out)
}

func interpolatePedestal13(a, b *Pedestal13Params, ratio float32, out *Pedestal13Params) {
	for i := 0; i < Pedestal13MeshEntries; i++ {
		out.R[i] = blendLevel(a.R[i], b.R[i], ratio)
		out.GR[i] = blendLevel(a.GR[i], b.GR[i], ratio)
		out.GB[i] = blendLevel(a.GB[i], b.GB[i], ratio)
		out.B[i] = blendLevel(a.B[i], b.B[i], ratio)
	}
}

func blendLevel(a, b uint16, ratio float32) uint16 {
	return iqutil.QuantizeToUint16(lerp(float32(a), float32(b), ratio), 0, pedestalMaxLevel)
}
