package iqmodule

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/iqinterp/internal/interp"
)

func tmc12Params() TMC12Params {
	return TMC12Params{
		GTMPercentage:             0.4,
		LTMPercentage:             0.6,
		ToneAnchors:               [TMC12KneePoints]float32{0, 0.2, 0.4, 0.7, 1},
		ToneTarget:                [TMC12KneePoints]float32{0, 0.2, 0.5, 0.8, 1},
		HistConvKernel:            [TMC12KneePoints]float32{1, 0, 0, 0, 0},
		ToneDarkAdj:               1,
		ToneBrightAdj:             1,
		StretchDarkStr:            1,
		StretchBrightStr:          1,
		HistClipSlope:             2,
		HistEnhanceClamp:          4,
		HistSuprRangeStart:        0.9,
		HistSuprRangeEnd:          1,
		HistBoostRangeStart:       0,
		HistBoostRangeEnd:         0.1,
		HistAvgRangeStart:         0.4,
		HistAvgRangeEnd:           0.6,
		HistSmoothingStr:          0.5,
		SceneChangeLuxIdxDeltaTh1: 50,
		SceneChangeLuxIdxDeltaTh2: 100,
		SceneChangeHistDeltaTh1:   10,
		SceneChangeHistDeltaTh2:   50,
		ContrastDarkAdj:           1,
		ContrastBrightClip:        1,
	}
}

func tmc12Input() *TMC12Input {
	return &TMC12Input{
		Chromatix: &TMC12Chromatix{
			Enable:  true,
			Reserve: TMC12Reserve{UseGTM: true, CurveModel: TMC12CurvePCHIP, ToneMaxRatio: 16},
		},
		DRCGain:     1,
		DRCGainDark: 1,
	}
}

func flatHistogram(v uint32) *TMC12Histogram {
	var h TMC12Histogram
	for i := range h {
		h[i] = v
	}
	return &h
}

func linearGamma() *[Gamma15TableSize]float32 {
	var g [Gamma15TableSize]float32
	for i := range g {
		g[i] = float32(i) * 1023 / 256
	}
	return &g
}

func f32(v float32) *float32 { return &v }

func TestDRCIndex(t *testing.T) {
	tests := []struct {
		gain float64
		want int
	}{
		{1, 0},
		{math.Pow(1.03, 10), 10},
		{100, tmc12DRCIndexMax},
		{0.5, 0},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, drcIndex(tt.gain), "gain %v", tt.gain)
	}
}

func TestTMC12AnchorKneesWithoutHistogram(t *testing.T) {
	in := tmc12Input()
	p := tmc12Params()
	p.HistEnhanceRatio = [TMC12KneePoints]float32{0.5, 0.5, 0.5, 0.5, 0.5}
	p.ContrastHEBright = 0.3

	var adrc TMC12ADRC
	require.NoError(t, TMC12PostBlend(in, nil, &p, &adrc))

	assert.Zero(t, p.HistEnhanceRatio, "histogram terms are off without a histogram")
	assert.Zero(t, p.ContrastHEBright)
	assert.False(t, adrc.HasHistogram)
	assert.InDeltaSlice(t, []float32{0, 0.2, 0.4, 0.7, 1}, adrc.KneeX[:], 1e-6)
	assert.InDeltaSlice(t, []float32{0, 0.2, 0.4, 0.7, 1}, adrc.KneeY[:], 1e-6)
	assert.InDeltaSlice(t, []float32{1, 0, 0, 1, 0, 0, 1, 0, 0}, adrc.PCHIPCoefficient[:], 1e-5)
	assert.InDelta(t, 1, adrc.DRCGainDark, 1e-6)
	assert.InDelta(t, 0.6, adrc.LTMPercentage, 1e-6)
	assert.True(t, adrc.Enable)
	assert.True(t, adrc.GTMEnable)
	assert.False(t, adrc.LTMEnable)
	assert.Equal(t, TMC12CurvePCHIP, adrc.CurveModel)
}

func TestTMC12LTMPercentageCap(t *testing.T) {
	in := tmc12Input()
	in.DRCGainDark = 16
	p := tmc12Params()
	p.DarkBoostRatio = 1
	p.LTMPercentage = 0.9

	var adrc TMC12ADRC
	require.NoError(t, TMC12PostBlend(in, nil, &p, &adrc))

	// The dark knee gain is 16, index 94 on the 1.03 ladder.
	want := math.Log(8) / (94 * math.Log(1.03))
	assert.InDelta(t, 16, adrc.DRCGainDark, 1e-5)
	assert.InDelta(t, want, p.LTMPercentage, 1e-5)
	assert.InDelta(t, 1-want, p.GTMPercentage, 1e-5)
	assert.Equal(t, p.LTMPercentage, adrc.LTMPercentage)
}

func TestTMC12Overrides(t *testing.T) {
	tests := []struct {
		name       string
		darkOffset *float32
		fourth     *float32
		wantDarkX  float64
		wantFourth float64
	}{
		{"none", nil, nil, 0.2, 0.7},
		{"dark boost offset", f32(0.5), nil, 0.2 / 1.5, 0.7},
		{"dark boost offset out of range", f32(1.5), nil, 0.2, 0.7},
		{"fourth anchor", nil, f32(0.8), 0.2, 0.8},
		{"fourth anchor above fifth", nil, f32(1.2), 0.2, 0.7},
		{"fourth anchor below third", nil, f32(0.3), 0.2, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tmc12Input()
			in.OverrideDarkBoostOffset = tt.darkOffset
			in.OverrideFourthToneAnchor = tt.fourth
			p := tmc12Params()

			var adrc TMC12ADRC
			require.NoError(t, TMC12PostBlend(in, nil, &p, &adrc))
			assert.InDelta(t, tt.wantDarkX, adrc.KneeX[1], 1e-5)
			assert.InDelta(t, tt.wantFourth, adrc.KneeX[3], 1e-6)
			assert.InDelta(t, tt.wantFourth, adrc.KneeY[3], 1e-6)
		})
	}
}

func TestTMC12ContrastCurveFromFlatHistogram(t *testing.T) {
	in := tmc12Input()
	in.Histogram = flatHistogram(100)
	in.Gamma = linearGamma()
	p := tmc12Params()

	var adrc TMC12ADRC
	require.NoError(t, TMC12PostBlend(in, nil, &p, &adrc))

	require.True(t, adrc.HasHistogram)
	assert.Equal(t, float32(1), adrc.SceneChange, "first frame is always a scene change")
	assert.InDelta(t, 102400, adrc.CDF[TMC12HistBins-1], 1e-6)
	assert.InDelta(t, 100, adrc.Histogram[500], 1e-9)

	// A flat histogram through a linear gamma gives a linear curve.
	for _, i := range []int{0, 255, 511, 767, 1023} {
		assert.InDelta(t, float64(i+1)/TMC12HistBins, adrc.ContrastEnhanceCurve[i], 1e-4, "bin %d", i)
	}
	for i := 1; i < TMC12HistBins; i++ {
		require.GreaterOrEqual(t, adrc.ContrastEnhanceCurve[i], adrc.ContrastEnhanceCurve[i-1], "bin %d", i)
	}
}

func TestTMC12SceneChangeAcrossFrames(t *testing.T) {
	in := tmc12Input()
	in.Gamma = linearGamma()
	state := &TMC12FrameState{}

	run := func(h *TMC12Histogram) TMC12ADRC {
		t.Helper()
		in.Histogram = h
		p := tmc12Params()
		var adrc TMC12ADRC
		require.NoError(t, TMC12PostBlend(in, state, &p, &adrc))
		state.Advance(&adrc)
		return adrc
	}

	assert.Equal(t, float32(1), run(flatHistogram(100)).SceneChange)
	assert.Equal(t, float32(0), run(flatHistogram(100)).SceneChange)

	third := run(flatHistogram(200))
	assert.Equal(t, float32(1), third.SceneChange, "mean bin delta of 100 is past the second threshold")
	assert.InDelta(t, 200, third.Histogram[10], 1e-9)

	in.PrevLuxIndex = 100
	in.LuxIndex = 175
	assert.InDelta(t, 0.5, run(flatHistogram(200)).SceneChange, 1e-6)
	assert.Equal(t, uint64(4), state.FrameNumber)
	assert.Len(t, state.PrevHistogram, TMC12HistBins)
}

func TestTMC12TemporalSmoothing(t *testing.T) {
	in := tmc12Input()
	in.Gamma = linearGamma()
	p := tmc12Params()
	p.SceneChangeHistDeltaTh1 = 1000
	p.SceneChangeHistDeltaTh2 = 2000

	state := &TMC12FrameState{FrameNumber: 2, PrevHistogram: make([]float64, TMC12HistBins)}
	for i := range state.PrevHistogram {
		state.PrevHistogram[i] = 100
	}

	in.Histogram = flatHistogram(200)
	var adrc TMC12ADRC
	require.NoError(t, TMC12PostBlend(in, state, &p, &adrc))
	assert.Zero(t, adrc.SceneChange)
	assert.InDelta(t, 150, adrc.Histogram[3], 1e-9, "half way to the previous histogram")
}

func TestTMC12HistogramNeedsGamma(t *testing.T) {
	in := tmc12Input()
	in.Histogram = flatHistogram(1)
	p := tmc12Params()
	var adrc TMC12ADRC
	assert.ErrorIs(t, TMC12PostBlend(in, nil, &p, &adrc), interp.ErrInvalidArgument)
	assert.ErrorIs(t, TMC12PostBlend(nil, nil, &p, &adrc), interp.ErrInvalidArgument)
}

func TestTMC12GainCurves(t *testing.T) {
	kx := [TMC12KneePoints]float64{0, 0.1, 0.4, 0.7, 1}
	ky := [TMC12KneePoints]float64{0, 0.2, 0.5, 0.8, 1}
	coef := pchipCoefficients(kx, ky)

	var pchip, bezier [TMC12HistBins]float64
	pchipGainCurve(kx, ky, coef, pchip[:])
	bezierGainCurve(kx, ky, bezier[:])

	for name, gain := range map[string][]float64{"pchip": pchip[:], "bezier": bezier[:]} {
		assert.InDelta(t, 2, gain[10], 1e-9, "%s: linear dark gain", name)
		assert.InDelta(t, 1, gain[TMC12HistBins-1], 1e-6, "%s: unity at white", name)
		for i, g := range gain {
			require.True(t, g >= 1 && g <= 2, "%s: bin %d gain %v", name, i, g)
		}
	}
}

func TestTMC12RunGainCurve(t *testing.T) {
	p := tmc12Params()
	p.DarkBoostRatio = 1
	p.LTMPercentage = 0.9

	in := tmc12Input()
	in.Chromatix.Core = exposureWith(ExposureAEC[TMC12Params]{{Trigger: wideAEC, Data: p}})
	in.DRCGainDark = 16
	require.NoError(t, in.Chromatix.Validate())

	var plain TMC12Params
	require.NoError(t, in.RunInterpolation(&plain))
	assert.InDelta(t, 0.9, plain.LTMPercentage, 1e-6)

	var out TMC12Params
	var adrc TMC12ADRC
	require.NoError(t, in.RunGainCurve(&out, &TMC12FrameState{}, &adrc))
	assert.Less(t, out.LTMPercentage, float32(0.9))
	assert.Equal(t, out.LTMPercentage, adrc.LTMPercentage)
	assert.InDelta(t, 0.9, in.Chromatix.Core[0].Data[0].Data[0].Data.LTMPercentage, 1e-6,
		"the cap applies to the resolved copy only")
}

func TestTMC12ValidateToneMaxRatio(t *testing.T) {
	c := &TMC12Chromatix{}
	assert.ErrorIs(t, c.Validate(), ErrInvalidParams)
}
