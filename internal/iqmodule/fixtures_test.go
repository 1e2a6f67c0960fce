package iqmodule

import "github.com/banshee-data/iqinterp/internal/chromatix"

var wideRange = chromatix.Range{Start: 0, End: 1000}

var wideAEC = chromatix.AECTrigger{LuxIdxStart: 0, LuxIdxEnd: 1000, GainStart: 0, GainEnd: 1000}

var wideHDR = chromatix.HDRAECTrigger{
	ExpTimeStart: 0, ExpTimeEnd: 1000,
	AECSensitivityStart: 0, AECSensitivityEnd: 1000,
	ExpGainStart: 0, ExpGainEnd: 1000,
}

// gapped lays vals out on the ranges [0,10], [20,30], [40,50], ...
func gapped[P any](vals ...P) []chromatix.Region[P] {
	regions := make([]chromatix.Region[P], len(vals))
	for i, v := range vals {
		start := float32(20 * i)
		regions[i] = chromatix.Region[P]{Trigger: chromatix.Range{Start: start, End: start + 10}, Data: v}
	}
	return regions
}

// flashWith wraps one AEC region per LED entry, each over its own CCT axis.
func flashWith[P any](leds ...FlashCCT[P]) FlashCore[P] {
	ledRegions := make(FlashLED[P], len(leds))
	for i, cct := range leds {
		ledRegions[i] = chromatix.LEDRegion[FlashAEC[P]]{
			Data: FlashAEC[P]{{Trigger: wideAEC, Data: cct}},
		}
	}
	return FlashCore[P]{{
		Trigger: wideRange,
		Data:    FlashHDR[P]{{Trigger: wideHDR, Data: ledRegions}},
	}}
}

// exposureWith places aec under a single DRC and HDR region.
func exposureWith[P any](aec ExposureAEC[P]) ExposureCore[P] {
	return ExposureCore[P]{{
		Trigger: wideRange,
		Data:    ExposureHDR[P]{{Trigger: wideHDR, Data: aec}},
	}}
}

func cc13(v float32) CC13Params {
	var p CC13Params
	p.C[0] = v
	p.C[8] = -v
	p.K[0] = 10 * v
	return p
}

func cc13Chromatix(leds ...FlashCCT[CC13Params]) *CC13Chromatix {
	return &CC13Chromatix{
		PrivateInfo: chromatix.PrivateInformation{
			LEDSensitivityTrigger: chromatix.Range{Start: 0, End: 100},
		},
		Core: flashWith(leds...),
	}
}
