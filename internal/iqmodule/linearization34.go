package iqmodule

import (
	"fmt"

	"github.com/banshee-data/iqinterp/internal/chromatix"
	"github.com/banshee-data/iqinterp/internal/interp"
	"github.com/banshee-data/iqinterp/internal/iqutil"
)

// Linearization34 tree shape.
const (
	Linearization34InterpolationLevel = flashLevels
	Linearization34MaxNode            = flashMaxNode
	Linearization34MaxNonLeafNode     = flashMaxNonLeaf
)

const (
	// LinearizationKnees is the number of knee points per channel curve.
	LinearizationKnees = 8
	// LinearizationBases is the number of output levels per channel curve.
	LinearizationBases = LinearizationKnees + 1
	// LinearizationMaxValue is the 14-bit pixel ceiling.
	LinearizationMaxValue = 1<<14 - 1
)

// LinearizationCurve is one channel's piecewise linear curve. Knee i maps
// to Base[i+1]; Base[0] is the output at zero input.
type LinearizationCurve struct {
	Knee [LinearizationKnees]float32 `json:"lut_p"`
	Base [LinearizationBases]float32 `json:"lut_base"`
}

// Linearization34Params holds the four Bayer channel curves.
type Linearization34Params struct {
	R  LinearizationCurve `json:"r"`
	GR LinearizationCurve `json:"gr"`
	GB LinearizationCurve `json:"gb"`
	B  LinearizationCurve `json:"b"`
}

// Linearization34Chromatix is the linearization calibration.
type Linearization34Chromatix struct {
	ControlMethod chromatix.ControlMethod          `json:"control_method"`
	PrivateInfo   chromatix.PrivateInformation     `json:"private_information"`
	Core          FlashCore[Linearization34Params] `json:"chromatix_linearization34_core"`
}

// Validate checks every axis of the calibration and that each curve's knees
// are non-decreasing.
func (c *Linearization34Chromatix) Validate() error {
	return validateFlashCore(c.Core, c.ControlMethod, func(p *Linearization34Params) error {
		for _, ch := range []struct {
			name  string
			curve *LinearizationCurve
		}{{"r", &p.R}, {"gr", &p.GR}, {"gb", &p.GB}, {"b", &p.B}} {
			for i := 1; i < LinearizationKnees; i++ {
				if ch.curve.Knee[i] < ch.curve.Knee[i-1] {
					return fmt.Errorf("%s knee %d below knee %d: %w", ch.name, i, i-1, ErrInvalidParams)
				}
			}
		}
		return nil
	})
}

// Linearization34Input is the trigger snapshot for linearization.
type Linearization34Input struct {
	Chromatix *Linearization34Chromatix `json:"-"`

	ExposureTrigger
	FlashTrigger
	DRCGain float32 `json:"drc_gain"`
	CCT     float32 `json:"cct"`
}

// CheckUpdateTrigger reports whether any linearization trigger changed.
func (in *Linearization34Input) CheckUpdateTrigger(d *TriggerData) bool {
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

var linearization34Tree = newFlashTree(interpolateLinearization34)

// RunInterpolation resolves the linearization curves.
func (in *Linearization34Input) RunInterpolation(out *Linearization34Params) error {
	if in == nil || in.Chromatix == nil || out == nil {
		return interp.ErrInvalidArgument
	}

	var trig chromatix.TriggerList
	in.ExposureTrigger.apply(in.Chromatix.ControlMethod, &trig)
	in.FlashTrigger.apply(in.Chromatix.PrivateInfo, &trig)
	trig.DRCGain = in.DRCGain
	trig.CCT = in.CCT

	var nodes [Linearization34MaxNode]interp.Node[Linearization34Params]
	var scratch [Linearization34MaxNonLeafNode]Linearization34Params
	return linearization34Tree.Run(nodes[:], scratch[:], &in.Chromatix.Core, &trig, out)
}

func interpolateLinearization34(a, b *Linearization34Params, ratio float32, out *Linearization34Params) {
	out.R = blendCurve(a.R, b.R, ratio)
	out.GR = blendCurve(a.GR, b.GR, ratio)
	out.GB = blendCurve(a.GB, b.GB, ratio)
	out.B = blendCurve(a.B, b.B, ratio)
}

// blendCurve blends two curves along the input axis: the knees are
// interpolated first, then each curve is sampled at the new knee and the
// samples are interpolated.
func blendCurve(a, b LinearizationCurve, ratio float32) LinearizationCurve {
	var out LinearizationCurve
	for i := 0; i < LinearizationKnees; i++ {
		x := lerp(a.Knee[i], b.Knee[i], ratio)
		ya := a.sample(x)
		yb := b.sample(x)
		out.Knee[i] = x
		out.Base[i+1] = iqutil.Clamp(lerp(ya, yb, ratio), 0, LinearizationMaxValue)
	}
	out.Base[0] = 0
	// The first segment only keeps its base when it lies on the identity.
	if out.Knee[0] != out.Base[1] {
		out.Base[1] = 0
	}
	return out
}

// sample evaluates the curve at x. Below the first knee the curve runs from
// (0, Base[0]); past the last knee it runs to (max, max).
func (c *LinearizationCurve) sample(x float32) float32 {
	const last = LinearizationKnees - 1

	var x0, y0, x1, y1 float32
	switch {
	case x < c.Knee[0]:
		x0, y0, x1, y1 = 0, c.Base[0], c.Knee[0], c.Base[1]
	case x >= c.Knee[last]:
		x0, y0, x1, y1 = c.Knee[last], c.Base[last+1], LinearizationMaxValue, LinearizationMaxValue
	default:
		for i := 0; i < last; i++ {
			if x >= c.Knee[i] && x < c.Knee[i+1] {
				x0, y0, x1, y1 = c.Knee[i], c.Base[i+1], c.Knee[i+1], c.Base[i+2]
				break
			}
		}
	}

	if x1 == x0 {
		return LinearizationMaxValue
	}
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}
