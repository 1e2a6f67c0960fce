// Package chromatix describes vendor calibration data in the nested layout
// the IQ modules consume. Every calibration axis is a slice of regions, each
// carrying a trigger range and a payload. The payload is either the next
// axis down or, at the bottom, the module's parameter set.
package chromatix

import "github.com/banshee-data/iqinterp/internal/iqutil"

// Range is a plain start/end trigger range.
type Range struct {
	Start float32 `json:"start"`
	End   float32 `json:"end"`
}

// TriggerRegion converts r for the region resolver.
func (r Range) TriggerRegion() iqutil.TriggerRegion {
	return iqutil.TriggerRegion{Start: r.Start, End: r.End}
}

// AECControl selects the AEC trigger axis.
type AECControl int

const (
	AECControlLuxIndex AECControl = iota
	AECControlGain
)

// HDRAECControl selects the HDR exposure trigger axis.
type HDRAECControl int

const (
	HDRAECControlExpTimeRatio HDRAECControl = iota
	HDRAECControlSensitivityRatio
	HDRAECControlExpGainRatio
)

// ControlMethod picks which runtime signal drives the AEC and HDR levels.
// It is read once per call and applies to every level it gates.
type ControlMethod struct {
	AECExpControl AECControl    `json:"aec_exp_control"`
	AECHDRControl HDRAECControl `json:"aec_hdr_control"`
}

// PrivateInformation holds calibration fields used outside the region
// hierarchy.
type PrivateInformation struct {
	LEDSensitivityTrigger Range `json:"led_sensitivity_trigger"`
}

// AECTrigger carries both AEC trigger ranges; ControlMethod picks one.
type AECTrigger struct {
	LuxIdxStart float32 `json:"lux_idx_start"`
	LuxIdxEnd   float32 `json:"lux_idx_end"`
	GainStart   float32 `json:"gain_start"`
	GainEnd     float32 `json:"gain_end"`
}

// Region returns the range selected by ctrl.
func (t AECTrigger) Region(ctrl AECControl) iqutil.TriggerRegion {
	switch ctrl {
	case AECControlGain:
		return iqutil.TriggerRegion{Start: t.GainStart, End: t.GainEnd}
	default:
		return iqutil.TriggerRegion{Start: t.LuxIdxStart, End: t.LuxIdxEnd}
	}
}

// HDRAECTrigger carries the three HDR exposure ranges; ControlMethod picks
// one.
type HDRAECTrigger struct {
	ExpTimeStart        float32 `json:"exp_time_start"`
	ExpTimeEnd          float32 `json:"exp_time_end"`
	AECSensitivityStart float32 `json:"aec_sensitivity_start"`
	AECSensitivityEnd   float32 `json:"aec_sensitivity_end"`
	ExpGainStart        float32 `json:"exp_gain_start"`
	ExpGainEnd          float32 `json:"exp_gain_end"`
}

// Region returns the range selected by ctrl.
func (t HDRAECTrigger) Region(ctrl HDRAECControl) iqutil.TriggerRegion {
	switch ctrl {
	case HDRAECControlSensitivityRatio:
		return iqutil.TriggerRegion{Start: t.AECSensitivityStart, End: t.AECSensitivityEnd}
	case HDRAECControlExpGainRatio:
		return iqutil.TriggerRegion{Start: t.ExpGainStart, End: t.ExpGainEnd}
	default:
		return iqutil.TriggerRegion{Start: t.ExpTimeStart, End: t.ExpTimeEnd}
	}
}

// SelectAEC returns the runtime AEC trigger selected by ctrl.
func SelectAEC(ctrl AECControl, luxIndex, gain float32) float32 {
	if ctrl == AECControlGain {
		return gain
	}
	return luxIndex
}

// SelectHDRAEC returns the runtime HDR trigger selected by ctrl.
func SelectHDRAEC(ctrl HDRAECControl, expTimeRatio, sensitivityRatio, expGainRatio float32) float32 {
	switch ctrl {
	case HDRAECControlSensitivityRatio:
		return sensitivityRatio
	case HDRAECControlExpGainRatio:
		return expGainRatio
	default:
		return expTimeRatio
	}
}

// Region is a calibration region keyed on a single range: DRC gain, colour
// temperature, scale ratio or lens position.
type Region[T any] struct {
	Trigger Range `json:"trigger"`
	Data    T     `json:"data"`
}

// AECRegion is a calibration region keyed on lux index or gain.
type AECRegion[T any] struct {
	Trigger AECTrigger `json:"aec_trigger"`
	Data    T          `json:"data"`
}

// HDRAECRegion is a calibration region keyed on an HDR exposure ratio.
type HDRAECRegion[T any] struct {
	Trigger HDRAECTrigger `json:"hdr_aec_trigger"`
	Data    T             `json:"data"`
}

// LEDRegion is a flash calibration entry. Entries are positional: 0 is
// flash off, 1 is single LED, 2 is dual LED.
type LEDRegion[T any] struct {
	Data T `json:"data"`
}

// TriggerList is the per-call trigger context handed to every level search.
// The runtime values are already reduced to one scalar per axis.
type TriggerList struct {
	Control     ControlMethod
	PrivateInfo PrivateInformation

	DRCGain         float32
	HDRAEC          float32
	AEC             float32
	CCT             float32
	TotalScaleRatio float32

	LED                float32
	NumberOfLED        int
	LEDFirstEntryRatio float32
}
