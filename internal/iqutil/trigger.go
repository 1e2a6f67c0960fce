package iqutil

// MaxRegions is the largest number of regions a calibration axis may carry.
const MaxRegions = 20

// TriggerRegion is one calibration region's trigger range.
type TriggerRegion struct {
	Start float32 `json:"start"`
	End   float32 `json:"end"`
}

// InterpolationOutput identifies the region pair bracketing a trigger value
// and the blend ratio between them.
type InterpolationOutput struct {
	StartIndex int
	EndIndex   int
	Ratio      float32
}

// ResolveTriggerRegion finds the region, or pair of regions, that the
// trigger value falls in.
//
// Regions are expected in ascending order without overlap. Gaps between
// neighbouring regions are where blending happens: a value strictly inside
// the gap between region i and i+1 yields {i, i+1, ratio}. A value inside a
// region, or at its end, snaps to that region with ratio 0. Values below the
// first region snap to region 0 and values past the last region snap to
// region N-1.
func ResolveTriggerRegion(regions []TriggerRegion, value float32) InterpolationOutput {
	var out InterpolationOutput

	n := len(regions)
	if n == 0 {
		return out
	}

	for i := 0; i < n; i++ {
		if i == n-1 && value > regions[i].End {
			out.StartIndex = i
			out.EndIndex = i
			return out
		}
		if i < n-1 && value > regions[i].End && value < regions[i+1].Start {
			out.StartIndex = i
			out.EndIndex = i + 1
			out.Ratio = CalculateInterpolationRatio(
				float64(value),
				float64(regions[i].End),
				float64(regions[i+1].Start))
			return out
		}
		if value <= regions[i].End {
			out.StartIndex = i
			out.EndIndex = i
			return out
		}
	}

	// Unreachable for well-formed input (NaN lands here).
	return InterpolationOutput{}
}
