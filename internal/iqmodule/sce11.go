package iqmodule

import (
	"github.com/banshee-data/iqinterp/internal/chromatix"
	"github.com/banshee-data/iqinterp/internal/interp"
	"github.com/banshee-data/iqinterp/internal/iqutil"
)

// SCE11 tree shape: AEC > colour temperature.
const (
	SCE11InterpolationLevel = 3
	SCE11MaxNode            = 7 // 1 + 2 + 4
	SCE11MaxNonLeafNode     = 3 // 1 + 2
)

// SCE11Triangles is the number of triangles in each skin colour mesh.
const SCE11Triangles = 5

// SCE11Point is a point in the CbCr plane.
type SCE11Point [2]int

// SCE11Triangle is one triangle of a skin colour mesh.
type SCE11Triangle [3]SCE11Point

// SCE11Params is the skin colour enhancement tuning. Colours inside each
// original triangle are mapped onto the matching target triangle.
type SCE11Params struct {
	ShiftVectorCb  float32                       `json:"shift_vector_cb"`
	ShiftVectorCr  float32                       `json:"shift_vector_cr"`
	OriTriangle    [SCE11Triangles]SCE11Triangle `json:"ori_triangle"`
	TargetTriangle [SCE11Triangles]SCE11Triangle `json:"target_triangle"`
}

// SCE11Core is the skin colour calibration layout.
type SCE11Core = []chromatix.AECRegion[[]chromatix.Region[SCE11Params]]

// SCE11Chromatix is the skin colour enhancement calibration.
type SCE11Chromatix struct {
	ControlMethod chromatix.ControlMethod `json:"control_method"`
	Core          SCE11Core               `json:"chromatix_sce11_core"`
}

// Validate checks every axis of the calibration.
func (c *SCE11Chromatix) Validate() error {
	return chromatix.ValidateAECRegions("aec", c.Core, c.ControlMethod.AECExpControl,
		func(cct *[]chromatix.Region[SCE11Params]) error {
			return chromatix.ValidateRegions[SCE11Params]("cct", *cct, nil)
		})
}

// SCE11Input is the trigger snapshot for skin colour enhancement.
type SCE11Input struct {
	Chromatix *SCE11Chromatix `json:"-"`

	LuxIndex float32 `json:"lux_index"`
	Gain     float32 `json:"gain"`
	CCT      float32 `json:"cct"`
}

// CheckUpdateTrigger reports whether any skin colour trigger changed.
func (in *SCE11Input) CheckUpdateTrigger(d *TriggerData) bool {
	if iqutil.FloatEqual(in.LuxIndex, d.AECLuxIndex) &&
		iqutil.FloatEqual(in.Gain, d.AECGain) &&
		iqutil.FloatEqual(in.CCT, d.AWBColorTemperature) {
		return false
	}
	in.LuxIndex = d.AECLuxIndex
	in.Gain = d.AECGain
	in.CCT = d.AWBColorTemperature
	return true
}

var sce11Tree = &interp.Tree[SCE11Params, chromatix.TriggerList]{
	Levels: SCE11InterpolationLevel,
	Operations: []operation[SCE11Params]{
		{Search: chromatix.AECSearch[SCE11Params, []chromatix.Region[SCE11Params]](), ChildrenPerNode: 2},
		{Search: chromatix.CCTSearch[SCE11Params, SCE11Params](), ChildrenPerNode: 2},
	},
	Blend: interp.GuardedBlend(interpolateSCE11),
}

// RunInterpolation resolves the skin colour tuning.
func (in *SCE11Input) RunInterpolation(out *SCE11Params) error {
	if in == nil || in.Chromatix == nil || out == nil {
		return interp.ErrInvalidArgument
	}

	cm := in.Chromatix.ControlMethod
	trig := chromatix.TriggerList{
		Control: cm,
		AEC:     chromatix.SelectAEC(cm.AECExpControl, in.LuxIndex, in.Gain),
		CCT:     in.CCT,
	}

	var nodes [SCE11MaxNode]interp.Node[SCE11Params]
	var scratch [SCE11MaxNonLeafNode]SCE11Params
	return sce11Tree.Run(nodes[:], scratch[:], &in.Chromatix.Core, &trig, out)
}

func interpolateSCE11(a, b *SCE11Params, r float32, out *SCE11Params) {
	out.ShiftVectorCb = lerp(a.ShiftVectorCb, b.ShiftVectorCb, r)
	out.ShiftVectorCr = lerp(a.ShiftVectorCr, b.ShiftVectorCr, r)
	for t := 0; t < SCE11Triangles; t++ {
		for p := 0; p < 3; p++ {
			for k := 0; k < 2; k++ {
				out.OriTriangle[t][p][k] = roundAbs(a.OriTriangle[t][p][k], b.OriTriangle[t][p][k], r)
				out.TargetTriangle[t][p][k] = roundAbs(a.TargetTriangle[t][p][k], b.TargetTriangle[t][p][k], r)
			}
		}
	}
}
