package sweep

import (
	"fmt"
	"slices"

	"github.com/banshee-data/iqinterp/internal/iqmodule"
)

// Axis names the trigger a sweep varies.
type Axis string

const (
	AxisLux         Axis = "lux"
	AxisGain        Axis = "gain"
	AxisSensitivity Axis = "sensitivity"
	AxisExpTime     Axis = "exp-time"
	AxisExpGain     Axis = "exp-gain"
	AxisCCT         Axis = "cct"
	AxisDRC         Axis = "drc"
	AxisDRCDark     Axis = "drc-dark"
	AxisScale       Axis = "scale"
	AxisLED         Axis = "led"
)

var axisSetters = map[Axis]func(*iqmodule.TriggerData, float32){
	AxisLux:         func(d *iqmodule.TriggerData, v float32) { d.AECLuxIndex = v },
	AxisGain:        func(d *iqmodule.TriggerData, v float32) { d.AECGain = v },
	AxisSensitivity: func(d *iqmodule.TriggerData, v float32) { d.AECSensitivity = v },
	AxisExpTime:     func(d *iqmodule.TriggerData, v float32) { d.AECExposureTime = v },
	AxisExpGain:     func(d *iqmodule.TriggerData, v float32) { d.AECExposureGainRatio = v },
	AxisCCT:         func(d *iqmodule.TriggerData, v float32) { d.AWBColorTemperature = v },
	AxisDRC:         func(d *iqmodule.TriggerData, v float32) { d.DRCGain = v },
	AxisDRCDark:     func(d *iqmodule.TriggerData, v float32) { d.DRCGainDark = v },
	AxisScale:       func(d *iqmodule.TriggerData, v float32) { d.TotalScaleRatio = v },
	AxisLED:         func(d *iqmodule.TriggerData, v float32) { d.LEDSensitivity = v },
}

// Axes returns every sweepable axis, sorted.
func Axes() []Axis {
	out := make([]Axis, 0, len(axisSetters))
	for a := range axisSetters {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

// ParseAxis validates an axis name.
func ParseAxis(s string) (Axis, error) {
	a := Axis(s)
	if _, ok := axisSetters[a]; !ok {
		return "", fmt.Errorf("unknown axis %q (want one of %v)", s, Axes())
	}
	return a, nil
}

// Apply sets the axis' trigger in d to v.
func (a Axis) Apply(d *iqmodule.TriggerData, v float64) error {
	set, ok := axisSetters[a]
	if !ok {
		return fmt.Errorf("unknown axis %q", a)
	}
	set(d, float32(v))
	return nil
}
