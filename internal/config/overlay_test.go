package config

import (
	"encoding/json"
	"testing"

	"mistctl"
)

func strPtr(s string) *string   { return &s }
func u32Ptr(v uint32) *uint32   { return &v }
func f64Ptr(v float64) *float64 { return &v }

func TestOverlayApply_UnsetFieldsKeepDefaults(t *testing.T) {
	t.Parallel()

	inst := Default()
	if err := (&Overlay{}).Apply(inst); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	def := Default()
	if inst.SensorDriver != def.SensorDriver || inst.SensorDelayMs != def.SensorDelayMs {
		t.Fatalf("empty overlay changed defaults: %+v", inst)
	}
	if len(inst.MisterAutoRHSchedule) != 1 || inst.MisterAutoRHSchedule[0].TargetRH != 90 {
		t.Fatalf("default schedule altered: %+v", inst.MisterAutoRHSchedule)
	}
}

func TestOverlayApply_SetFieldsOverride(t *testing.T) {
	t.Parallel()

	o := Overlay{
		SensorDriver:  strPtr(DriverSHT4X),
		SensorDelayMs: u32Ptr(1000),
		MisterAutoRHSchedule: []mistctl.ScheduleEntry{
			{TargetRH: 85, RunSecs: 120},
			{TargetRH: 92, RunSecs: 600},
		},
		MisterAutoOnRHAdj: f64Ptr(2.5),
		ResetWaitSecs:     u32Ptr(1),
	}
	inst := Default()
	if err := o.Apply(inst); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if inst.SensorDriver != DriverSHT4X || inst.SensorDelayMs != 1000 {
		t.Fatalf("sensor fields not applied: %+v", inst)
	}
	if len(inst.MisterAutoRHSchedule) != 2 || inst.MisterAutoRHSchedule[1].RunSecs != 600 {
		t.Fatalf("schedule not applied: %+v", inst.MisterAutoRHSchedule)
	}
	if inst.MisterAutoOnRHAdj != 2.5 || inst.ResetWaitSecs != 1 {
		t.Fatalf("numeric fields not applied: %+v", inst)
	}
	// Untouched fields keep defaults.
	if inst.SensorDelayErrMs != Default().SensorDelayErrMs {
		t.Fatalf("unset field changed: %d", inst.SensorDelayErrMs)
	}
}

func TestOverlayApply_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		o    Overlay
	}{
		{"unknown driver", Overlay{SensorDriver: strPtr("bme280")}},
		{"zero sensor delay", Overlay{SensorDelayMs: u32Ptr(0)}},
		{"zero sensor err delay", Overlay{SensorDelayErrMs: u32Ptr(0)}},
		{"empty schedule", Overlay{MisterAutoRHSchedule: []mistctl.ScheduleEntry{}}},
		{"rh out of range", Overlay{MisterAutoRHSchedule: []mistctl.ScheduleEntry{{TargetRH: 150, RunSecs: 60}}}},
		{"zero run secs", Overlay{MisterAutoRHSchedule: []mistctl.ScheduleEntry{{TargetRH: 90, RunSecs: 0}}}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := tc.o.Apply(Default()); err == nil {
				t.Fatalf("expected validation error for %+v", tc.o)
			}
		})
	}
}

func TestOverlayJSON_OmitsUnsetFields(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Overlay{SensorDelayMs: u32Ptr(2000)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"sensor_delay_ms":2000}` {
		t.Fatalf("unexpected encoding: %s", b)
	}

	var o Overlay
	if err := json.Unmarshal(b, &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o.SensorDelayMs == nil || *o.SensorDelayMs != 2000 || o.SensorDriver != nil {
		t.Fatalf("round trip mismatch: %+v", o)
	}
}

func TestHysteresisBounds(t *testing.T) {
	t.Parallel()

	inst := Default()
	inst.MisterAutoOnRHAdj = 1.5
	if got := inst.AutoOnRH(90); got != 88.5 {
		t.Fatalf("AutoOnRH = %v, want 88.5", got)
	}
	// The off threshold is the target itself.
	if got := inst.AutoOffRH(90); got != 90 {
		t.Fatalf("AutoOffRH = %v, want 90", got)
	}
}
