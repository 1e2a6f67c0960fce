package iqutil

// ControlVar names a runtime signal a calibration field can be keyed on.
type ControlVar int

const (
	ControlLensZoom ControlVar = iota
	ControlLuxIndex
	ControlGain
	ControlDRCGain
	ControlExpTimeRatio
	ControlAECSensitivityRatio
	ControlCCT
	ControlLensPosition
	ControlTotalScaleRatio
	ControlPostScaleRatio
	ControlPreScaleRatio
)

// HysteresisDirection selects which way a dynamic enable latches.
type HysteresisDirection int

const (
	// HysteresisUpward enables once the trigger reaches the end of the band
	// and disables once it drops below the start.
	HysteresisUpward HysteresisDirection = iota
	// HysteresisDownward enables at or below the start of the band and
	// disables above the end.
	HysteresisDownward
)

// TriggerCouplet carries two start/end bands. The second band applies when
// the control variable is gain or exposure-time ratio.
type TriggerCouplet struct {
	Start1 float32 `json:"start1"`
	End1   float32 `json:"end1"`
	Start2 float32 `json:"start2"`
	End2   float32 `json:"end2"`
}

// DynamicEnable decides whether a module is switched on for the current
// trigger value, with hysteresis between the start and end of the band.
type DynamicEnable struct {
	Enabled    bool                `json:"enabled"`
	ControlVar ControlVar          `json:"control_var"`
	Direction  HysteresisDirection `json:"direction"`
	Couplet    TriggerCouplet      `json:"couplet"`
}

// Band returns the start/end pair that applies to d.ControlVar.
func (d DynamicEnable) Band() (start, end float32) {
	if d.ControlVar == ControlGain || d.ControlVar == ControlExpTimeRatio {
		return d.Couplet.Start2, d.Couplet.End2
	}
	return d.Couplet.Start1, d.Couplet.End1
}

// Evaluate returns the new enable state given the trigger value and the
// previous state. Inside the band the previous state is kept. When dynamic
// enable is off the module is always on.
func (d DynamicEnable) Evaluate(trigger float32, previous bool) bool {
	if !d.Enabled {
		return true
	}

	start, end := d.Band()
	state := previous

	if d.Direction == HysteresisUpward {
		if trigger >= end {
			state = true
		} else if trigger < start {
			state = false
		}
		return state
	}

	if trigger > end {
		state = false
	} else if trigger <= start {
		state = true
	}
	return state
}
