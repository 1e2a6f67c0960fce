// Package iqmodule wires the interpolation engine to the individual ISP IQ
// modules. Each module supplies its calibration layout, its parameter set
// and the per-field blend, and exposes RunInterpolation on its input
// snapshot together with CheckUpdateTrigger for change detection.
package iqmodule

import (
	"github.com/banshee-data/iqinterp/internal/chromatix"
	"github.com/banshee-data/iqinterp/internal/iqutil"
)

// TriggerData is the runtime scene state published by metering and control
// once per frame. Modules copy the fields they use into their own input
// snapshot through CheckUpdateTrigger.
type TriggerData struct {
	AECLuxIndex          float32 `json:"aec_lux_index"`
	AECPrevLuxIndex      float32 `json:"aec_prev_lux_index"`
	AECGain              float32 `json:"aec_gain"`
	AECSensitivity       float32 `json:"aec_sensitivity"`
	AECExposureTime      float32 `json:"aec_exposure_time"`
	AECExposureGainRatio float32 `json:"aec_exposure_gain_ratio"`

	AWBColorTemperature float32 `json:"awb_color_temperature"`

	DRCGain     float32 `json:"drc_gain"`
	DRCGainDark float32 `json:"drc_gain_dark"`

	TotalScaleRatio float32 `json:"total_scale_ratio"`

	LEDSensitivity     float32 `json:"led_sensitivity"`
	NumberOfLED        int     `json:"number_of_led"`
	LEDFirstEntryRatio float32 `json:"led_first_entry_ratio"`
}

// ExposureTrigger is the AEC and HDR part of a module's input. The
// calibration's control method decides which of these feeds each level.
type ExposureTrigger struct {
	LuxIndex          float32 `json:"lux_index"`
	Gain              float32 `json:"gain"`
	AECSensitivity    float32 `json:"aec_sensitivity"`
	ExposureTime      float32 `json:"exposure_time"`
	ExposureGainRatio float32 `json:"exposure_gain_ratio"`
}

func (e *ExposureTrigger) matches(d *TriggerData) bool {
	return iqutil.FloatEqual(e.LuxIndex, d.AECLuxIndex) &&
		iqutil.FloatEqual(e.Gain, d.AECGain) &&
		iqutil.FloatEqual(e.AECSensitivity, d.AECSensitivity) &&
		iqutil.FloatEqual(e.ExposureTime, d.AECExposureTime) &&
		iqutil.FloatEqual(e.ExposureGainRatio, d.AECExposureGainRatio)
}

func (e *ExposureTrigger) capture(d *TriggerData) {
	e.LuxIndex = d.AECLuxIndex
	e.Gain = d.AECGain
	e.AECSensitivity = d.AECSensitivity
	e.ExposureTime = d.AECExposureTime
	e.ExposureGainRatio = d.AECExposureGainRatio
}

func (e *ExposureTrigger) apply(cm chromatix.ControlMethod, t *chromatix.TriggerList) {
	t.Control = cm
	t.AEC = chromatix.SelectAEC(cm.AECExpControl, e.LuxIndex, e.Gain)
	t.HDRAEC = chromatix.SelectHDRAEC(cm.AECHDRControl, e.ExposureTime, e.AECSensitivity, e.ExposureGainRatio)
}

// FlashTrigger is the LED part of a module's input.
type FlashTrigger struct {
	LEDSensitivity     float32 `json:"led_sensitivity"`
	NumberOfLED        int     `json:"number_of_led"`
	LEDFirstEntryRatio float32 `json:"led_first_entry_ratio"`
}

func (f *FlashTrigger) matches(d *TriggerData) bool {
	return iqutil.FloatEqual(f.LEDSensitivity, d.LEDSensitivity) &&
		f.NumberOfLED == d.NumberOfLED &&
		iqutil.FloatEqual(f.LEDFirstEntryRatio, d.LEDFirstEntryRatio)
}

func (f *FlashTrigger) capture(d *TriggerData) {
	f.LEDSensitivity = d.LEDSensitivity
	f.NumberOfLED = d.NumberOfLED
	f.LEDFirstEntryRatio = d.LEDFirstEntryRatio
}

func (f *FlashTrigger) apply(priv chromatix.PrivateInformation, t *chromatix.TriggerList) {
	t.PrivateInfo = priv
	t.LED = f.LEDSensitivity
	t.NumberOfLED = f.NumberOfLED
	t.LEDFirstEntryRatio = f.LEDFirstEntryRatio
}

// ControlValue returns the runtime signal cv names. Signals TriggerData
// does not carry (lens zoom and position, pre and post scale) read as 0.
func (d *TriggerData) ControlValue(cv iqutil.ControlVar) float32 {
	switch cv {
	case iqutil.ControlLuxIndex:
		return d.AECLuxIndex
	case iqutil.ControlGain:
		return d.AECGain
	case iqutil.ControlDRCGain:
		return d.DRCGain
	case iqutil.ControlExpTimeRatio:
		return d.AECExposureTime
	case iqutil.ControlAECSensitivityRatio:
		return d.AECSensitivity
	case iqutil.ControlCCT:
		return d.AWBColorTemperature
	case iqutil.ControlTotalScaleRatio:
		return d.TotalScaleRatio
	default:
		return 0
	}
}
