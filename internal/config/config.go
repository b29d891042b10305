// Package config owns the live configuration snapshot: compiled-in
// defaults, the partial overlay persisted to NV storage, and the store that
// hot-swaps snapshots atomically.
package config

import (
	"mistctl"
)

// Supported sensor driver selectors.
const (
	DriverHDC1080 = "hdc1080"
	DriverSHT4X   = "sht4x"
)

// Defaults applied at first boot and underneath any persisted overlay.
const (
	defaultSensorDelayMs    = 5000
	defaultSensorDelayErrMs = 10000
	defaultMinPressMs       = 50
	defaultMinHoldMs        = 3000
	defaultOnRHAdj          = 1.0
	defaultDurationMinMs    = 60000
	defaultResetWaitSecs    = 5
)

// Instance is an immutable configuration snapshot. It is replaced
// wholesale, never mutated in place; readers hold a pointer to a
// momentarily-fixed snapshot.
type Instance struct {
	WifiSSID     string
	WifiPassword string

	DisplayEnabled bool
	NetworkEnabled bool
	SensorEnabled  bool

	SensorDriver           string
	SensorDelayMs          uint32
	SensorDelayErrMs       uint32
	SensorCalibrationRHAdj *float64

	ControlsMinPressMs uint32
	ControlsMinHoldMs  uint32

	MisterAutoRHSchedule    []mistctl.ScheduleEntry
	MisterAutoOnRHAdj       float64
	MisterAutoOffRHAdj      float64 // reserved, not applied to rh_off
	MisterAutoDurationMinMs uint32

	ResetWaitSecs uint32
}

// Default returns a fresh snapshot with compiled-in defaults.
func Default() *Instance {
	return &Instance{
		DisplayEnabled:   true,
		NetworkEnabled:   true,
		SensorEnabled:    true,
		SensorDriver:     DriverHDC1080,
		SensorDelayMs:    defaultSensorDelayMs,
		SensorDelayErrMs: defaultSensorDelayErrMs,

		ControlsMinPressMs: defaultMinPressMs,
		ControlsMinHoldMs:  defaultMinHoldMs,

		MisterAutoRHSchedule: []mistctl.ScheduleEntry{
			{TargetRH: 90, RunSecs: 1800},
		},
		MisterAutoOnRHAdj:       defaultOnRHAdj,
		MisterAutoDurationMinMs: defaultDurationMinMs,

		ResetWaitSecs: defaultResetWaitSecs,
	}
}

// Schedule returns the schedule entry at idx.
func (c *Instance) Schedule(idx int) (mistctl.ScheduleEntry, bool) {
	if idx < 0 || idx >= len(c.MisterAutoRHSchedule) {
		return mistctl.ScheduleEntry{}, false
	}
	return c.MisterAutoRHSchedule[idx], true
}

// AutoOnRH is the humidity at or below which the mister turns on for the
// given target.
func (c *Instance) AutoOnRH(targetRH float64) float64 {
	return targetRH - c.MisterAutoOnRHAdj
}

// AutoOffRH is the humidity at or above which the mister turns off. The
// off-adjustment field is reserved and deliberately not applied here.
func (c *Instance) AutoOffRH(targetRH float64) float64 {
	return targetRH
}
