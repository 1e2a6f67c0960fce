package iqmodule

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/iqinterp/internal/interp"
	"github.com/banshee-data/iqinterp/internal/iqutil"
)

const (
	// TMC12HistBins is the number of bins in the GR Bayer histogram.
	TMC12HistBins = 1024
	// TMC12Coefficients holds d, c, b for each of the three curved segments.
	TMC12Coefficients = 9

	tmc12UnitGainStep   = 1.03
	tmc12DRCIndexMax    = 94
	tmc12GainRatioMin   = 1.0
	tmc12GainRatioMax   = 16.0
	tmc12MaxLTMGain     = 8.0
	tmc12KneeMin        = 1
	tmc12SmoothPasses   = 4
	tmc12MaxLevel       = 16383 // 14-bit
	tmc12GammaOutMax    = 1023
	tmc12BezierSamples  = 1000
	tmc12MinGainRatio   = 1.0001
	tmc12LogEpsilon     = 1.0
	tmc12GammaIndexNorm = 256
)

// TMC12Histogram is a raw GR Bayer histogram.
type TMC12Histogram [TMC12HistBins]uint32

// tmc12LogBin[i] is the log of bin i's centre on a 4096 level scale and
// tmc12InCurve[i] is that centre normalised to the last bin.
var tmc12LogBin, tmc12InCurve = func() (lb, in [TMC12HistBins]float64) {
	last := float64(4*(TMC12HistBins-1) + 2)
	for i := range lb {
		c := float64(4*i + 2)
		lb[i] = math.Log(c)
		in[i] = c / last
	}
	return lb, in
}()

// TMC12FrameState is the caller-owned history the gain curve smooths
// against. The zero value is a fresh stream.
type TMC12FrameState struct {
	FrameNumber   uint64
	PrevHistogram []float64
	PrevCDF       []float64
}

// Advance records adrc as the previous frame.
func (s *TMC12FrameState) Advance(adrc *TMC12ADRC) {
	if adrc.HasHistogram {
		s.PrevHistogram = append(s.PrevHistogram[:0], adrc.Histogram[:]...)
		s.PrevCDF = append(s.PrevCDF[:0], adrc.CDF[:]...)
	}
	s.FrameNumber++
}

func (s *TMC12FrameState) previous(buf []float64) []float64 {
	if s.FrameNumber < 2 || len(buf) != TMC12HistBins {
		return nil
	}
	return buf
}

// TMC12ADRC is the per-frame adaptive DRC output.
type TMC12ADRC struct {
	Enable     bool
	GTMEnable  bool
	LTMEnable  bool
	CurveModel TMC12CurveModel

	GTMPercentage    float32
	LTMPercentage    float32
	DRCGainDark      float32
	ContrastHEBright float32
	ContrastHEDark   float32
	SceneChange      float32

	KneeX            [TMC12KneePoints]float32
	KneeY            [TMC12KneePoints]float32
	PCHIPCoefficient [TMC12Coefficients]float32

	// Set only when the frame had a histogram.
	HasHistogram         bool
	ContrastEnhanceCurve [TMC12HistBins]float32
	Histogram            [TMC12HistBins]float64
	CDF                  [TMC12HistBins]float64
}

// TMC12PostBlend computes the frame's gain curve from the resolved tuning
// p. It adjusts p in place: the LTM share is capped by the curve's dark
// gain and, without a histogram, the histogram enhancement terms are
// zeroed. A nil state is a fresh stream.
func TMC12PostBlend(in *TMC12Input, state *TMC12FrameState, p *TMC12Params, adrc *TMC12ADRC) error {
	if in == nil || in.Chromatix == nil || p == nil || adrc == nil {
		return interp.ErrInvalidArgument
	}
	if in.Histogram != nil && in.Gamma == nil {
		return fmt.Errorf("tmc12 histogram without gamma: %w", interp.ErrInvalidArgument)
	}
	if state == nil {
		state = &TMC12FrameState{}
	}

	*adrc = TMC12ADRC{}

	var nHist float64
	if in.Histogram != nil {
		adrc.HasHistogram = true
		nHist = preprocessHistogram(in, state, p, adrc)
	} else {
		p.HistEnhanceRatio = [TMC12KneePoints]float32{}
		p.ContrastHEBright = 0
		p.ContrastHEDark = 0
	}

	kneeX, kneeY := tmc12KneePoints(in, p, nHist, adrc)
	coef := pchipCoefficients(kneeX, kneeY)

	for i := range kneeX {
		adrc.KneeX[i] = float32(kneeX[i])
		adrc.KneeY[i] = float32(kneeY[i])
	}
	for i := range coef {
		adrc.PCHIPCoefficient[i] = float32(coef[i])
	}

	if in.Histogram != nil {
		contrastCurve(in, state, p, kneeX, kneeY, coef, adrc)
	}

	reserve := in.Chromatix.Reserve
	adrc.Enable = in.Chromatix.Enable
	adrc.GTMEnable = reserve.UseGTM
	adrc.LTMEnable = reserve.UseLTM
	adrc.CurveModel = reserve.CurveModel
	adrc.GTMPercentage = p.GTMPercentage
	adrc.LTMPercentage = p.LTMPercentage
	adrc.ContrastHEBright = p.ContrastHEBright
	adrc.ContrastHEDark = p.ContrastHEDark
	return nil
}

// preprocessHistogram clips, redistributes and smooths the raw histogram
// into adrc.Histogram, detects a scene change and smooths against the
// previous frame. It returns the histogram total before temporal smoothing.
func preprocessHistogram(in *TMC12Input, state *TMC12FrameState, p *TMC12Params, adrc *TMC12ADRC) float64 {
	const n = TMC12HistBins
	h := adrc.Histogram[:]

	var raw [n]float64
	for i, v := range in.Histogram {
		raw[i] = float64(v)
	}
	total := floats.Sum(raw[:])

	histMax := float64(p.HistClipSlope) * total / n
	var clipped float64
	for i, v := range raw {
		if v < histMax {
			h[i] = v
		} else {
			h[i] = histMax
			clipped += v - histMax
		}
	}

	// Under-saturated pixels in bin 0 are redistributed too.
	if h[0] > h[1] {
		clipped += h[0] - h[1]
		h[0] = h[1]
	}
	floats.AddConst(clipped/n, h)

	// The kernel runs in place, so the left taps see already smoothed bins.
	k := p.HistConvKernel
	for pass := 0; pass < tmc12SmoothPasses; pass++ {
		for i := range h {
			h[i] *= float64(k[0])
			for t := 1; t < TMC12KneePoints; t++ {
				r := min(i+t, n-1)
				l := max(i-t, 0)
				h[i] += h[r] * float64(k[t])
				h[i] += h[l] * float64(k[t])
			}
		}
	}
	nHist := floats.Sum(h)

	luxDelta := math.Abs(float64(in.LuxIndex - in.PrevLuxIndex))
	luxFlag := sceneChangeLevel(luxDelta, p.SceneChangeLuxIdxDeltaTh1, p.SceneChangeLuxIdxDeltaTh2)

	prev := state.previous(state.PrevHistogram)
	if prev == nil {
		prev = h
	}
	histDelta := floats.Distance(prev, h, 1) / n
	histFlag := sceneChangeLevel(histDelta, p.SceneChangeHistDeltaTh1, p.SceneChangeHistDeltaTh2)

	scene := 1.0
	if state.FrameNumber != 0 {
		scene = 1 - (1-luxFlag)*(1-histFlag)
	}

	str := float64(p.HistSmoothingStr)
	if scene > 0 {
		str = float64(p.SceneChangeSmoothingStr) * scene
	}
	for i := range h {
		h[i] = str*prev[i] + (1-str)*h[i]
	}

	adrc.SceneChange = float32(scene)
	return nHist
}

func sceneChangeLevel(delta float64, th1, th2 float32) float64 {
	t1, t2 := float64(th1), float64(th2)
	switch {
	case delta >= t2:
		return 1
	case delta >= t1:
		return (delta - t1) / (t2 - t1)
	default:
		return 0
	}
}

// drcIndex converts a gain to its step index on the 1.03 gain ladder.
func drcIndex(gain float64) int {
	idx := math.Round(math.Log(gain) / math.Log(tmc12UnitGainStep))
	if math.IsNaN(idx) || idx < 0 {
		return 0
	}
	return int(min(idx, tmc12DRCIndexMax))
}

func tmc12KneePoints(in *TMC12Input, p *TMC12Params, nHist float64, adrc *TMC12ADRC) (kneeX, kneeY [TMC12KneePoints]float64) {
	anchorX, anchorY, drcGainDark := anchorKneePoints(in, p)
	adrc.DRCGainDark = float32(drcGainDark)

	var histX, histY [TMC12KneePoints]float64
	if in.Histogram != nil {
		histX, histY = histKneePoints(in, p, adrc.Histogram[:], nHist)
	}

	for i := 0; i < TMC12KneePoints; i++ {
		r := float64(p.HistEnhanceRatio[i])
		kneeX[i] = r*histX[i] + (1-r)*anchorX[i]
		kneeY[i] = r*histY[i] + (1-r)*anchorY[i]
	}

	capLTMPercentage(p, kneeY[tmc12KneeMin]/kneeX[tmc12KneeMin])
	return kneeX, kneeY
}

func anchorKneePoints(in *TMC12Input, p *TMC12Params) (x, y [TMC12KneePoints]float64, drcGainDark float64) {
	offset := float64(p.DarkBoostOffset)
	if o := in.OverrideDarkBoostOffset; o != nil && *o >= 0 && *o <= 1 {
		offset = float64(*o)
	}
	fourth := float64(p.ToneAnchors[3])
	if o := in.OverrideFourthToneAnchor; o != nil && *o > p.ToneAnchors[2] && *o < p.ToneAnchors[4] {
		fourth = float64(*o)
	}

	drcGain := math.Pow(tmc12UnitGainStep, float64(drcIndex(float64(in.DRCGain))))
	gainRatio := iqutil.Clamp((float64(in.DRCGainDark)-1)*float64(p.DarkBoostRatio)+1+offset,
		tmc12GainRatioMin, tmc12GainRatioMax)
	drcGainDark = min(drcGain*gainRatio, float64(in.Chromatix.Reserve.ToneMaxRatio))
	gainRatio = max(gainRatio, tmc12MinGainRatio)

	mid := float64(p.ToneAnchors[2])
	darkY := min(mid/gainRatio, float64(p.ToneAnchors[1]))

	x = [TMC12KneePoints]float64{0, darkY / drcGainDark, mid / drcGain, fourth, 1}
	y = [TMC12KneePoints]float64{0, darkY, mid, fourth, 1}
	return x, y, drcGainDark
}

func histKneePoints(in *TMC12Input, p *TMC12Params, h []float64, nHist float64) (x, y [TMC12KneePoints]float64) {
	type band struct {
		lo, hi     float64
		sum, count float64
	}
	supr := band{lo: nHist * float64(p.HistSuprRangeStart), hi: nHist * float64(p.HistSuprRangeEnd)}
	boost := band{lo: nHist * float64(p.HistBoostRangeStart), hi: nHist * float64(p.HistBoostRangeEnd)}
	avg := band{lo: nHist * float64(p.HistAvgRangeStart), hi: nHist * float64(p.HistAvgRangeEnd)}

	var cum float64
	for i, v := range h {
		weighted := v * tmc12LogBin[i]
		cum += v
		for _, b := range []*band{&supr, &boost, &avg} {
			if cum >= b.lo && cum <= b.hi {
				b.sum += weighted
				b.count += v
			}
		}
	}
	logMean := func(b band) float64 {
		if b.count == 0 {
			return 0
		}
		return math.Exp(b.sum / b.count)
	}
	lwAvg, lwMax, lwMin := logMean(avg), logMean(supr), logMean(boost)

	target := iqutil.Clamp(float64(p.ToneTarget[2])*tmc12GammaOutMax, 0, tmc12GammaOutMax)
	a := inverseGamma(in.Gamma, target, 1) / tmc12GammaIndexNorm

	sbs, sds := float64(p.StretchBrightStr), float64(p.StretchDarkStr)
	adaptiveMax := sbs*lwMax + (1-sbs)*tmc12MaxLevel
	adaptiveMin := sds * lwMin

	logMin := math.Log(adaptiveMin + tmc12LogEpsilon)
	logMax := math.Log(adaptiveMax + tmc12LogEpsilon)
	f := (2*math.Log(lwAvg+tmc12LogEpsilon) - logMin - logMax) / (logMax - logMin)

	adj := float64(p.ToneDarkAdj)
	if f > 0 {
		adj = float64(p.ToneBrightAdj)
	}
	globalGain := a * math.Pow(adj, f) / (lwAvg / tmc12MaxLevel)
	clampE := float64(p.HistEnhanceClamp)
	drc := float64(in.DRCGain)
	globalGain = iqutil.Clamp(globalGain, drc/clampE, drc*clampE)

	gainMin := globalGain * float64(p.ContrastDarkAdj)
	gainMax := iqutil.Clamp(float64(p.ContrastBrightClip)*2-globalGain, 1, globalGain)

	x = [TMC12KneePoints]float64{0, lwMin / tmc12MaxLevel, lwAvg / tmc12MaxLevel, lwMax / tmc12MaxLevel, 1}
	y = [TMC12KneePoints]float64{0, x[1] * gainMin, x[2] * globalGain, x[3] * gainMax, 1}
	return x, y
}

// inverseGamma maps a gamma output level back to a fractional table index,
// scanning from index from. Levels beyond the table map to the last index.
func inverseGamma(gamma *[Gamma15TableSize]float32, level float64, from int) float64 {
	idx, _ := inverseGammaFrom(gamma, level, from)
	return idx
}

func inverseGammaFrom(gamma *[Gamma15TableSize]float32, level float64, from int) (float64, int) {
	for gi := max(from, 1); gi < Gamma15TableSize; gi++ {
		hi, lo := float64(gamma[gi]), float64(gamma[gi-1])
		if level <= hi {
			return ((hi-level)*float64(gi-1) + (level-lo)*float64(gi)) / (hi - lo), gi
		}
	}
	return Gamma15TableSize - 1, Gamma15TableSize
}

// capLTMPercentage limits the LTM share so that LTM never supplies more
// than the maximum LTM gain of the dark knee's gain.
func capLTMPercentage(p *TMC12Params, maxGain float64) {
	maxPct := min(math.Log(tmc12MaxLTMGain)/math.Log(math.Pow(tmc12UnitGainStep, float64(drcIndex(maxGain)))), 1)
	if float64(p.LTMPercentage) > maxPct {
		p.LTMPercentage = float32(maxPct)
		p.GTMPercentage = 1 - p.LTMPercentage
	}
}

// pchipCoefficients returns the cubic coefficients d, c, b of the three
// curved segments between knees 1 and 4.
func pchipCoefficients(x, y [TMC12KneePoints]float64) [TMC12Coefficients]float64 {
	const n = TMC12KneePoints
	var h, delta [n - 1]float64
	for i := 0; i < n-1; i++ {
		h[i] = x[i+1] - x[i]
		delta[i] = (y[i+1] - y[i]) / h[i]
	}

	var d [n]float64
	d[0] = pchipEndSlope(h[0], h[1], delta[0], delta[1])
	d[n-1] = pchipEndSlope(h[n-2], h[n-3], delta[n-2], delta[n-3])
	for i := 1; i < n-1; i++ {
		w1 := 2*h[i] + h[i-1]
		w2 := h[i] + 2*h[i-1]
		d[i] = (w1 + w2) / (w1/delta[i-1] + w2/delta[i])
	}

	var coef [TMC12Coefficients]float64
	for s := 1; s < n-1; s++ {
		c := (3*delta[s] - 2*d[s] - d[s+1]) / h[s]
		b := (d[s] - 2*delta[s] + d[s+1]) / h[s] / h[s]
		coef[(s-1)*3+0] = d[s]
		coef[(s-1)*3+1] = c
		coef[(s-1)*3+2] = b
	}
	return coef
}

// pchipEndSlope is the shape preserving three point end slope. h0 and
// delta0 belong to the end interval.
func pchipEndSlope(h0, h1, delta0, delta1 float64) float64 {
	t := ((2*h0+h1)*delta0 - h0*delta1) / (h0 + h1)
	switch {
	case delta0*delta1 < 0 && math.Abs(t) > math.Abs(3*delta0):
		return 3 * delta0
	case t*delta0 < 0:
		return 0
	default:
		return t
	}
}

func contrastCurve(in *TMC12Input, state *TMC12FrameState, p *TMC12Params,
	kneeX, kneeY [TMC12KneePoints]float64, coef [TMC12Coefficients]float64, adrc *TMC12ADRC) {
	const n = TMC12HistBins
	cdf := floats.CumSum(adrc.CDF[:], adrc.Histogram[:])

	prev := state.previous(state.PrevCDF)
	if prev == nil {
		prev = cdf
	}
	s := float64(p.HistCurveSmoothingStr)
	for i := range cdf {
		cdf[i] = s*prev[i] + (1-s)*cdf[i]
	}

	var gain [n]float64
	if in.Chromatix.Reserve.CurveModel == TMC12CurvePCHIP {
		pchipGainCurve(kneeX, kneeY, coef, gain[:])
	} else {
		bezierGainCurve(kneeX, kneeY, gain[:])
	}

	var out [n]float64
	total := cdf[n-1]
	gi := 1
	for i := range out {
		var target float64
		if total > 0 {
			target = iqutil.Clamp(cdf[i]/total*tmc12GammaOutMax, 0, tmc12GammaOutMax)
		}
		var idx float64
		idx, gi = inverseGammaFrom(in.Gamma, target, gi)
		out[i] = idx / tmc12GammaIndexNorm
	}

	// Blend toward the plain gain curve on a scene change.
	if scene := float64(adrc.SceneChange); scene > 0 {
		str := float64(p.SceneChangeCurveSmoothingStr) * scene
		for i := range out {
			linear := iqutil.Clamp(gain[i]*tmc12InCurve[i], 0, 1)
			out[i] = str*linear + (1-str)*out[i]
		}
	}

	for i, v := range out {
		adrc.ContrastEnhanceCurve[i] = float32(v)
	}
}

// pchipGainCurve samples the knee curve as a gain per bin: linear up to the
// dark knee, then the three PCHIP segments.
func pchipGainCurve(kx, ky [TMC12KneePoints]float64, coef [TMC12Coefficients]float64, out []float64) {
	linearGain := ky[1] / kx[1]
	for i := range out {
		x := tmc12InCurve[i]
		var y float64
		seg := -1
		switch {
		case x <= kx[1]:
			y = x * linearGain
		case x <= kx[2]:
			seg = 1
		case x <= kx[3]:
			seg = 2
		default:
			seg = 3
		}
		if seg > 0 {
			dx := x - kx[seg]
			c := coef[(seg-1)*3:]
			y = ky[seg] + dx*(c[0]+dx*(c[1]+dx*c[2]))
		}
		out[i] = gainAt(x, y, linearGain)
	}
	out[0] = out[1]
}

// bezierGainCurve samples a quartic Bezier through the knees, linear up to
// the dark knee.
func bezierGainCurve(kx, ky [TMC12KneePoints]float64, out []float64) {
	linearGain := ky[1] / kx[1]

	var bx, by [tmc12BezierSamples]float64
	for i := range bx {
		t := float64(i) / (tmc12BezierSamples - 1)
		u := 1 - t
		w := [TMC12KneePoints]float64{u * u * u * u, 4 * u * u * u * t, 6 * u * u * t * t, 4 * u * t * t * t, t * t * t * t}
		bx[i] = kx[1] + (kx[4]-kx[1])*floats.Dot(w[:], kx[:])
		by[i] = ky[1] + (ky[4]-ky[1])*floats.Dot(w[:], ky[:])
	}

	for i := range out {
		x := tmc12InCurve[i]
		var y float64
		if x <= kx[1] {
			y = x * linearGain
		} else {
			for b := 1; b < tmc12BezierSamples; b++ {
				if x <= bx[b] {
					y = ((bx[b]-x)*by[b-1] + (x-bx[b-1])*by[b]) / (bx[b] - bx[b-1])
					break
				}
			}
		}
		out[i] = gainAt(x, y, linearGain)
	}
}

func gainAt(x, y, linearGain float64) float64 {
	y = iqutil.Clamp(y, 0, 1)
	if x == 0 {
		x = 1
	}
	return iqutil.Clamp(y/x, 1, linearGain)
}
