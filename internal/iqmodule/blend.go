package iqmodule

import "github.com/banshee-data/iqinterp/internal/iqutil"

// The interpolate functions below may be called with out aliasing b, so
// every field is computed from a and b before it is written.

func lerp(a, b, ratio float32) float32 {
	return iqutil.BilinearInterpolate(a, b, ratio)
}

func lerpTable(out, a, b []float32, ratio float32) {
	for i := range out {
		out[i] = iqutil.BilinearInterpolate(a[i], b[i], ratio)
	}
}

// roundAbs blends integer fields and keeps the rounded magnitude.
func roundAbs(a, b int, ratio float32) int {
	return iqutil.AbsInt(iqutil.RoundToInt(lerp(float32(a), float32(b), ratio)))
}

func nearestBool(a, b bool, ratio float32) bool {
	return iqutil.NearestNeighbour(boolToFloat(a), boolToFloat(b), ratio) != 0
}

func boolToFloat(v bool) float32 {
	if v {
		return 1
	}
	return 0
}
