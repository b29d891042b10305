package mistctl

import (
	"encoding/json"
	"fmt"
	"time"
)

// Mode is the operator's intent for the mister. It is persisted as a single
// byte in non-volatile storage and restored at boot.
type Mode uint8

const (
	ModeAuto Mode = 1
	ModeOff  Mode = 2
	ModeOn   Mode = 3
)

// ParseMode converts the wire form ("auto" | "off" | "on") to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "auto":
		return ModeAuto, nil
	case "off":
		return ModeOff, nil
	case "on":
		return ModeOn, nil
	}
	return 0, fmt.Errorf("invalid mode %q: must be auto, off, or on", s)
}

// ModeFromByte maps a persisted byte back to a Mode. Anything outside the
// valid range (including the erased flash value) reads as "absent".
func ModeFromByte(b byte) (Mode, bool) {
	m := Mode(b)
	if m < ModeAuto || m > ModeOn {
		return 0, false
	}
	return m, true
}

func (m Mode) Valid() bool { return m >= ModeAuto && m <= ModeOn }

// Next returns the following mode in the cyclic toggle order
// auto -> off -> on -> auto.
func (m Mode) Next() Mode {
	if m >= ModeOn || !m.Valid() {
		return ModeAuto
	}
	return m + 1
}

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeOff:
		return "off"
	case ModeOn:
		return "on"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

func (m Mode) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

func (m *Mode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Status is the engine's actuation decision. It is always derived, never
// persisted.
type Status uint8

const (
	StatusOff Status = iota
	StatusOn
	StatusFault
)

func (s Status) String() string {
	switch s {
	case StatusOff:
		return "off"
	case StatusOn:
		return "on"
	case StatusFault:
		return "fault"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

func (s Status) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// ChangeMode asks the control engine to switch modes. A nil Mode means
// "toggle to the next mode".
type ChangeMode struct {
	Mode *Mode
}

// ChipAction is a device-level request handled by the reset coordinator.
type ChipAction uint8

const ChipActionReset ChipAction = 1

// SensorMetrics is one sensor reading. A nil *SensorMetrics on the sensor
// bus signifies a fault (retry budget exhausted or invalid values).
type SensorMetrics struct {
	Temp float64 `json:"temp"`
	RH   float64 `json:"rh"`
}

// ScheduleEntry is one setpoint of the auto schedule: hold the humidity near
// TargetRH for RunSecs once captured. MaxWaitSecs is reserved for a future
// cap on how long a Pending entry may wait before being skipped.
type ScheduleEntry struct {
	TargetRH    float64 `json:"rh"`
	RunSecs     uint32  `json:"run_secs"`
	MaxWaitSecs *uint32 `json:"max_wait_secs,omitempty"`
}

// AutoScheduleMode is the stepper's phase for the active schedule entry.
type AutoScheduleMode uint8

const (
	AutoInitial AutoScheduleMode = iota
	AutoPending
	AutoRunning
)

func (m AutoScheduleMode) String() string {
	switch m {
	case AutoInitial:
		return "initial"
	case AutoPending:
		return "pending"
	case AutoRunning:
		return "running"
	}
	return fmt.Sprintf("auto(%d)", uint8(m))
}

func (m AutoScheduleMode) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

// AutoScheduleState tracks which schedule entry is active and, while
// Running, when its run started. Idx is only meaningful outside Initial.
type AutoScheduleState struct {
	Mode      AutoScheduleMode
	Idx       int
	StartTime time.Time
}

// Reset hard-cancels the schedule back to Initial at index 0.
func (s *AutoScheduleState) Reset() {
	s.Mode = AutoInitial
	s.Idx = 0
	s.StartTime = time.Time{}
}

// RunningFor reports the elapsed run time of the current entry.
func (s *AutoScheduleState) RunningFor(now time.Time) time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	return now.Sub(s.StartTime)
}

// Event is a single appliance log entry.
type Event struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}

// Event types recorded in the appliance log.
const (
	EventModeChange   = "MODE_CHANGE"
	EventStatusChange = "STATUS_CHANGE"
	EventConfigApply  = "CONFIG_APPLY"
	EventConfigReset  = "CONFIG_RESET"
	EventSensorFault  = "SENSOR_FAULT"
	EventChipReset    = "CHIP_RESET"
)
