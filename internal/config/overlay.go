package config

import (
	"errors"
	"fmt"

	"mistctl"
)

var (
	errEmptySchedule = errors.New("mister_auto_rh_schedule must not be empty")
	errBadDriver     = fmt.Errorf("sensor_driver must be %q or %q", DriverHDC1080, DriverSHT4X)
)

// Overlay is a partial configuration: unset fields mean "keep the
// default". It is both the persisted NV payload and the wire form of the
// config API, so only explicitly-set fields are ever serialized.
type Overlay struct {
	WifiSSID     *string `json:"wifi_ssid,omitempty"`
	WifiPassword *string `json:"wifi_password,omitempty"`

	DisplayEnabled *bool `json:"display_enabled,omitempty"`
	NetworkEnabled *bool `json:"network_enabled,omitempty"`
	SensorEnabled  *bool `json:"sensor_enabled,omitempty"`

	SensorDriver           *string  `json:"sensor_driver,omitempty"`
	SensorDelayMs          *uint32  `json:"sensor_delay_ms,omitempty"`
	SensorDelayErrMs       *uint32  `json:"sensor_delay_err_ms,omitempty"`
	SensorCalibrationRHAdj *float64 `json:"sensor_calibration_rh_adj,omitempty"`

	ControlsMinPressMs *uint32 `json:"controls_min_press_ms,omitempty"`
	ControlsMinHoldMs  *uint32 `json:"controls_min_hold_ms,omitempty"`

	MisterAutoRHSchedule    []mistctl.ScheduleEntry `json:"mister_auto_rh_schedule,omitempty"`
	MisterAutoOnRHAdj       *float64                `json:"mister_auto_on_rh_adj,omitempty"`
	MisterAutoOffRHAdj      *float64                `json:"mister_auto_off_rh_adj,omitempty"`
	MisterAutoDurationMinMs *uint32                 `json:"mister_auto_duration_min_ms,omitempty"`

	ResetWaitSecs *uint32 `json:"reset_wait_secs,omitempty"`
}

// Apply lays the overlay's set fields over c, validating as it goes. On
// error c may be partially written and must be discarded by the caller.
func (o *Overlay) Apply(c *Instance) error {
	if o.WifiSSID != nil {
		c.WifiSSID = *o.WifiSSID
	}
	if o.WifiPassword != nil {
		c.WifiPassword = *o.WifiPassword
	}
	if o.DisplayEnabled != nil {
		c.DisplayEnabled = *o.DisplayEnabled
	}
	if o.NetworkEnabled != nil {
		c.NetworkEnabled = *o.NetworkEnabled
	}
	if o.SensorEnabled != nil {
		c.SensorEnabled = *o.SensorEnabled
	}
	if o.SensorDriver != nil {
		if *o.SensorDriver != DriverHDC1080 && *o.SensorDriver != DriverSHT4X {
			return errBadDriver
		}
		c.SensorDriver = *o.SensorDriver
	}
	if o.SensorDelayMs != nil {
		if *o.SensorDelayMs == 0 {
			return errors.New("sensor_delay_ms must be > 0")
		}
		c.SensorDelayMs = *o.SensorDelayMs
	}
	if o.SensorDelayErrMs != nil {
		if *o.SensorDelayErrMs == 0 {
			return errors.New("sensor_delay_err_ms must be > 0")
		}
		c.SensorDelayErrMs = *o.SensorDelayErrMs
	}
	if o.SensorCalibrationRHAdj != nil {
		adj := *o.SensorCalibrationRHAdj
		c.SensorCalibrationRHAdj = &adj
	}
	if o.ControlsMinPressMs != nil {
		c.ControlsMinPressMs = *o.ControlsMinPressMs
	}
	if o.ControlsMinHoldMs != nil {
		c.ControlsMinHoldMs = *o.ControlsMinHoldMs
	}
	if o.MisterAutoRHSchedule != nil {
		if len(o.MisterAutoRHSchedule) == 0 {
			return errEmptySchedule
		}
		for i, e := range o.MisterAutoRHSchedule {
			if e.TargetRH <= 0 || e.TargetRH > 100 {
				return fmt.Errorf("schedule entry %d: rh %.1f outside (0, 100]", i, e.TargetRH)
			}
			if e.RunSecs == 0 {
				return fmt.Errorf("schedule entry %d: run_secs must be > 0", i)
			}
		}
		c.MisterAutoRHSchedule = append([]mistctl.ScheduleEntry(nil), o.MisterAutoRHSchedule...)
	}
	if o.MisterAutoOnRHAdj != nil {
		c.MisterAutoOnRHAdj = *o.MisterAutoOnRHAdj
	}
	if o.MisterAutoOffRHAdj != nil {
		c.MisterAutoOffRHAdj = *o.MisterAutoOffRHAdj
	}
	if o.MisterAutoDurationMinMs != nil {
		c.MisterAutoDurationMinMs = *o.MisterAutoDurationMinMs
	}
	if o.ResetWaitSecs != nil {
		c.ResetWaitSecs = *o.ResetWaitSecs
	}
	return nil
}
