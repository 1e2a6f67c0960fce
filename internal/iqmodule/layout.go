package iqmodule

import (
	"github.com/banshee-data/iqinterp/internal/chromatix"
	"github.com/banshee-data/iqinterp/internal/interp"
)

// Flash layout: DRC gain > HDR exposure > LED > AEC > colour temperature.
// Used by the colour and black-level modules that retune under flash.
type (
	FlashCCT[P any]  = []chromatix.Region[P]
	FlashAEC[P any]  = []chromatix.AECRegion[FlashCCT[P]]
	FlashLED[P any]  = []chromatix.LEDRegion[FlashAEC[P]]
	FlashHDR[P any]  = []chromatix.HDRAECRegion[FlashLED[P]]
	FlashCore[P any] = []chromatix.Region[FlashHDR[P]]
)

// Exposure layout: DRC gain > HDR exposure > AEC.
type (
	ExposureAEC[P any]  = []chromatix.AECRegion[P]
	ExposureHDR[P any]  = []chromatix.HDRAECRegion[ExposureAEC[P]]
	ExposureCore[P any] = []chromatix.Region[ExposureHDR[P]]
)

// ScaleCore prefixes the exposure layout with a total scale ratio level.
type ScaleCore[P any] = []chromatix.Region[ExposureCore[P]]

// Flash layout tree shape.
const (
	flashLevels     = 6
	flashMaxNode    = 91 // 1 + 1*2 + 2*2 + 4*3 + 12*2 + 24*2
	flashMaxNonLeaf = 43 // 1 + 1*2 + 2*2 + 4*3 + 12*2
)

// Exposure layout tree shape.
const (
	exposureLevels     = 4
	exposureMaxNode    = 15 // 1 + 1*2 + 2*2 + 4*2
	exposureMaxNonLeaf = 7  // 1 + 1*2 + 2*2
)

type operation[P any] = interp.NodeOperation[P, chromatix.TriggerList]

func flashOperations[P any]() []operation[P] {
	return []operation[P]{
		{Search: chromatix.DRCGainSearch[P, FlashHDR[P]](), ChildrenPerNode: 2},
		{Search: chromatix.HDRAECSearch[P, FlashLED[P]](), ChildrenPerNode: 2},
		{Search: chromatix.LEDSearch[P, FlashAEC[P]](), ChildrenPerNode: 3},
		{Search: chromatix.AECSearch[P, FlashCCT[P]](), ChildrenPerNode: 2},
		{Search: chromatix.CCTSearch[P, P](), ChildrenPerNode: 2},
	}
}

func exposureOperations[P any]() []operation[P] {
	return []operation[P]{
		{Search: chromatix.DRCGainSearch[P, ExposureHDR[P]](), ChildrenPerNode: 2},
		{Search: chromatix.HDRAECSearch[P, ExposureAEC[P]](), ChildrenPerNode: 2},
		{Search: chromatix.AECSearch[P, P](), ChildrenPerNode: 2},
	}
}

func newFlashTree[P any](interpolate func(a, b *P, ratio float32, out *P)) *interp.Tree[P, chromatix.TriggerList] {
	return &interp.Tree[P, chromatix.TriggerList]{
		Levels:     flashLevels,
		Operations: flashOperations[P](),
		Blend:      interp.GuardedBlend(interpolate),
	}
}

func newExposureTree[P any](interpolate func(a, b *P, ratio float32, out *P)) *interp.Tree[P, chromatix.TriggerList] {
	return &interp.Tree[P, chromatix.TriggerList]{
		Levels:     exposureLevels,
		Operations: exposureOperations[P](),
		Blend:      interp.GuardedBlend(interpolate),
	}
}

func validateFlashCore[P any](core FlashCore[P], cm chromatix.ControlMethod, leaf func(*P) error) error {
	return chromatix.ValidateRegions("drc", core, func(hdr *FlashHDR[P]) error {
		return chromatix.ValidateHDRAECRegions("hdr", *hdr, cm.AECHDRControl, func(led *FlashLED[P]) error {
			return chromatix.ValidateLEDRegions(*led, func(aec *FlashAEC[P]) error {
				return chromatix.ValidateAECRegions("aec", *aec, cm.AECExpControl, func(cct *FlashCCT[P]) error {
					return chromatix.ValidateRegions("cct", *cct, leaf)
				})
			})
		})
	})
}

func validateExposureCore[P any](core ExposureCore[P], cm chromatix.ControlMethod, leaf func(*P) error) error {
	return chromatix.ValidateRegions("drc", core, func(hdr *ExposureHDR[P]) error {
		return chromatix.ValidateHDRAECRegions("hdr", *hdr, cm.AECHDRControl, func(aec *ExposureAEC[P]) error {
			return chromatix.ValidateAECRegions("aec", *aec, cm.AECExpControl, leaf)
		})
	})
}
