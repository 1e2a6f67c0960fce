package chromatix

import (
	"math"

	"github.com/banshee-data/iqinterp/internal/interp"
	"github.com/banshee-data/iqinterp/internal/iqutil"
)

// The searches below are generic over the module's parameter type P and the
// payload type Next of the regions found at the parent's depth. A module
// builds its operation table by instantiating one search per level.
//
// A parent's NodeData is always a pointer to its region slice. A child's
// NodeData is a pointer to the selected region's payload. When that payload
// is the parameter set itself, the child's Data points at it as well, so
// leaves are read straight from calibration memory.

// RangeSearch searches a level of Region keyed on the trigger returned by
// value.
func RangeSearch[P, Next any](value func(*TriggerList) float32) interp.SearchFunc[P, TriggerList] {
	return func(parent *interp.Node[P], trig *TriggerList, slots []interp.Node[P]) int {
		if parent == nil || trig == nil {
			return 0
		}
		regions, ok := parent.NodeData.(*[]Region[Next])
		if !ok || regions == nil {
			return 0
		}
		return attach(parent, slots, *regions,
			func(r *Region[Next]) iqutil.TriggerRegion { return r.Trigger.TriggerRegion() },
			func(r *Region[Next]) any { return &r.Data },
			value(trig))
	}
}

// DRCGainSearch searches a DRC gain level.
func DRCGainSearch[P, Next any]() interp.SearchFunc[P, TriggerList] {
	return RangeSearch[P, Next](func(t *TriggerList) float32 { return t.DRCGain })
}

// CCTSearch searches a colour temperature level.
func CCTSearch[P, Next any]() interp.SearchFunc[P, TriggerList] {
	return RangeSearch[P, Next](func(t *TriggerList) float32 { return t.CCT })
}

// TotalScaleRatioSearch searches a total scale ratio level.
func TotalScaleRatioSearch[P, Next any]() interp.SearchFunc[P, TriggerList] {
	return RangeSearch[P, Next](func(t *TriggerList) float32 { return t.TotalScaleRatio })
}

// AECSearch searches an AEC level, using the range the control method
// selects from each region.
func AECSearch[P, Next any]() interp.SearchFunc[P, TriggerList] {
	return func(parent *interp.Node[P], trig *TriggerList, slots []interp.Node[P]) int {
		if parent == nil || trig == nil {
			return 0
		}
		regions, ok := parent.NodeData.(*[]AECRegion[Next])
		if !ok || regions == nil {
			return 0
		}
		ctrl := trig.Control.AECExpControl
		return attach(parent, slots, *regions,
			func(r *AECRegion[Next]) iqutil.TriggerRegion { return r.Trigger.Region(ctrl) },
			func(r *AECRegion[Next]) any { return &r.Data },
			trig.AEC)
	}
}

// HDRAECSearch searches an HDR exposure level, using the range the control
// method selects from each region.
func HDRAECSearch[P, Next any]() interp.SearchFunc[P, TriggerList] {
	return func(parent *interp.Node[P], trig *TriggerList, slots []interp.Node[P]) int {
		if parent == nil || trig == nil {
			return 0
		}
		regions, ok := parent.NodeData.(*[]HDRAECRegion[Next])
		if !ok || regions == nil {
			return 0
		}
		ctrl := trig.Control.AECHDRControl
		return attach(parent, slots, *regions,
			func(r *HDRAECRegion[Next]) iqutil.TriggerRegion { return r.Trigger.Region(ctrl) },
			func(r *HDRAECRegion[Next]) any { return &r.Data },
			trig.HDRAEC)
	}
}

// LEDSearch searches the flash level. It may attach up to three children:
// flash off and single LED blended by LED sensitivity, and, with two LEDs
// firing, the dual LED entry weighted by the first-entry ratio. The dual LED
// ratio goes into the ratio slot after the last child already attached.
// A NaN sensitivity is treated as flash off and a NaN dual LED ratio as no
// dual LED contribution, so no NaN ratio reaches the blend.
func LEDSearch[P, Next any]() interp.SearchFunc[P, TriggerList] {
	return func(parent *interp.Node[P], trig *TriggerList, slots []interp.Node[P]) int {
		if parent == nil || trig == nil || len(slots) < interp.MaxChildren {
			return 0
		}
		ptr, ok := parent.NodeData.(*[]LEDRegion[Next])
		if !ok || ptr == nil || len(*ptr) == 0 {
			return 0
		}
		regions := *ptr
		n := len(regions)

		var out iqutil.InterpolationOutput
		var dualRatio float32

		switch {
		case trig.NumberOfLED == 0 || n == 1 || math.IsNaN(float64(trig.LED)):
		case trig.NumberOfLED == 1 || trig.NumberOfLED == 2:
			sens := trig.PrivateInfo.LEDSensitivityTrigger
			switch {
			case trig.LED >= sens.End:
				out.StartIndex, out.EndIndex = 1, 1
			case trig.LED <= sens.Start:
			default:
				out.StartIndex, out.EndIndex = 0, 1
				out.Ratio = iqutil.CalculateInterpolationRatio(
					float64(trig.LED), float64(sens.Start), float64(sens.End))
			}
			if trig.NumberOfLED == 2 && !math.IsNaN(float64(trig.LEDFirstEntryRatio)) {
				dualRatio = trig.LEDFirstEntryRatio
			}
		default:
			// More LEDs than calibrated for; treat as flash off.
		}

		out.StartIndex = min(out.StartIndex, n-1)
		out.EndIndex = min(out.EndIndex, n-1)

		parent.Ratio[0] = out.Ratio
		if !addRegion(parent, &slots[0], any(&regions[out.StartIndex].Data)) {
			return 0
		}
		if out.StartIndex != out.EndIndex {
			addRegion(parent, &slots[1], any(&regions[out.EndIndex].Data))
		}

		if dualRatio != 0 && n >= 3 {
			count := parent.NumChildren()
			parent.Ratio[count-1] = 1 - dualRatio
			addRegion(parent, &slots[count], any(&regions[2].Data))
		}

		return parent.NumChildren()
	}
}

// attach resolves value against regions and attaches the start region and,
// when it differs, the end region.
func attach[P, R any](
	parent *interp.Node[P],
	slots []interp.Node[P],
	regions []R,
	bounds func(*R) iqutil.TriggerRegion,
	payload func(*R) any,
	value float32,
) int {
	n := len(regions)
	if n == 0 || n > iqutil.MaxRegions || len(slots) < 2 {
		return 0
	}

	var tr [iqutil.MaxRegions]iqutil.TriggerRegion
	for i := range regions {
		tr[i] = bounds(&regions[i])
	}
	out := iqutil.ResolveTriggerRegion(tr[:n], value)

	parent.Ratio[0] = out.Ratio
	if !addRegion(parent, &slots[0], payload(&regions[out.StartIndex])) {
		return 0
	}
	if out.StartIndex != out.EndIndex {
		addRegion(parent, &slots[1], payload(&regions[out.EndIndex]))
	}
	return parent.NumChildren()
}

// addRegion attaches payload as a child. A payload that is the parameter set
// itself also becomes the child's Data.
func addRegion[P any](parent *interp.Node[P], child *interp.Node[P], payload any) bool {
	data, _ := payload.(*P)
	return parent.AddChild(child, payload, data)
}
