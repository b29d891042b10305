package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mistctl"
	"mistctl/internal/bus"
	"mistctl/internal/config"
	"mistctl/internal/logger"
	"mistctl/internal/nvram"
	"mistctl/internal/repository"
)

func testConfig(t *testing.T, o config.Overlay) *config.Store {
	t.Helper()
	nv, err := nvram.Open(filepath.Join(t.TempDir(), "cfg.nv"), 4096)
	if err != nil {
		t.Fatalf("nvram.Open: %v", err)
	}
	t.Cleanup(func() { _ = nv.Close() })

	store := config.NewStore(repository.NewConfigRecordNVRAM(nv),
		bus.New[mistctl.ChipAction](4), nil, logger.Get(logger.DebugLevel))
	if err := store.Apply(context.Background(), o); err != nil {
		t.Fatalf("seed config: %v", err)
	}
	return store
}

func TestMonitoring_UnknownFieldsOmitted(t *testing.T) {
	t.Parallel()

	st := mistctl.NewState()
	svc := NewMonitoringService(testConfig(t, config.Overlay{}), st)

	view := svc.Status(context.Background())
	if view.Mode != nil {
		t.Fatalf("mode must be absent before load, got %v", *view.Mode)
	}
	if view.Status != mistctl.StatusOff {
		t.Fatalf("status = %v, want off", view.Status)
	}
	if view.Metrics != nil {
		t.Fatalf("metrics must be absent, got %+v", view.Metrics)
	}
	if view.ActiveAutoSchedule == nil || view.ActiveAutoSchedule.Mode != mistctl.AutoInitial {
		t.Fatalf("auto schedule = %+v, want initial", view.ActiveAutoSchedule)
	}
	if view.ActiveAutoSchedule.Idx != nil || view.ActiveAutoSchedule.RH != nil {
		t.Fatalf("initial view must omit entry fields: %+v", view.ActiveAutoSchedule)
	}
}

func TestMonitoring_RunningEntryProgress(t *testing.T) {
	t.Parallel()

	schedule := []mistctl.ScheduleEntry{{TargetRH: 85, RunSecs: 120}}
	st := mistctl.NewState()
	svc := NewMonitoringService(testConfig(t, config.Overlay{MisterAutoRHSchedule: schedule}), st)

	st.SetMode(mistctl.ModeAuto)
	st.SetStatus(mistctl.StatusOn)
	st.SetMetrics(&mistctl.SensorMetrics{Temp: 21, RH: 84})
	st.UpdateAutoSchedule(func(a *mistctl.AutoScheduleState) {
		a.Mode = mistctl.AutoRunning
		a.Idx = 0
		a.StartTime = time.Now().Add(-30 * time.Second)
	})

	view := svc.Status(context.Background())
	if view.Mode == nil || *view.Mode != mistctl.ModeAuto {
		t.Fatalf("mode = %v, want auto", view.Mode)
	}
	if view.Metrics == nil || view.Metrics.RH != 84 {
		t.Fatalf("metrics = %+v", view.Metrics)
	}

	auto := view.ActiveAutoSchedule
	if auto == nil || auto.Mode != mistctl.AutoRunning {
		t.Fatalf("auto view = %+v", auto)
	}
	if auto.Idx == nil || *auto.Idx != 0 || auto.RH == nil || *auto.RH != 85 {
		t.Fatalf("entry fields = %+v", auto)
	}
	if auto.TotalMs == nil || *auto.TotalMs != 120000 {
		t.Fatalf("total = %v, want 120000", auto.TotalMs)
	}
	if auto.RemainingMs == nil || *auto.RemainingMs > 90000 || *auto.RemainingMs < 80000 {
		t.Fatalf("remaining = %v, want roughly 90000", auto.RemainingMs)
	}
}

func TestMonitoring_PendingEntryHasNoRemaining(t *testing.T) {
	t.Parallel()

	schedule := []mistctl.ScheduleEntry{{TargetRH: 92, RunSecs: 60}}
	st := mistctl.NewState()
	svc := NewMonitoringService(testConfig(t, config.Overlay{MisterAutoRHSchedule: schedule}), st)

	st.SetMode(mistctl.ModeAuto)
	st.UpdateAutoSchedule(func(a *mistctl.AutoScheduleState) {
		a.Mode = mistctl.AutoPending
		a.Idx = 0
	})

	auto := svc.Status(context.Background()).ActiveAutoSchedule
	if auto == nil || auto.Mode != mistctl.AutoPending {
		t.Fatalf("auto view = %+v", auto)
	}
	if auto.RH == nil || *auto.RH != 92 || auto.RemainingMs != nil {
		t.Fatalf("pending view = %+v", auto)
	}
}

func TestModeService_ChangePublishesRequest(t *testing.T) {
	t.Parallel()

	st := mistctl.NewState()
	buses := mistctl.NewBuses()
	sub := buses.ChangeMode.Subscribe()
	t.Cleanup(sub.Close)

	svc := NewModeService(st, buses)
	if svc.Mode(context.Background()) != nil {
		t.Fatal("mode must be nil before load")
	}

	on := mistctl.ModeOn
	if err := svc.Change(context.Background(), &on); err != nil {
		t.Fatalf("Change: %v", err)
	}
	ev, ok := sub.Next()
	if !ok || ev.Value.Mode == nil || *ev.Value.Mode != mistctl.ModeOn {
		t.Fatalf("published request = %+v (%v)", ev.Value, ok)
	}

	// nil mode is a toggle request.
	if err := svc.Change(context.Background(), nil); err != nil {
		t.Fatalf("Change(nil): %v", err)
	}
	ev, ok = sub.Next()
	if !ok || ev.Value.Mode != nil {
		t.Fatalf("toggle request = %+v (%v)", ev.Value, ok)
	}

	bad := mistctl.Mode(9)
	if err := svc.Change(context.Background(), &bad); err == nil {
		t.Fatal("invalid mode must be rejected")
	}
}

func TestChipControl_PublishesResetAndReturnsWait(t *testing.T) {
	t.Parallel()

	wait := uint32(7)
	cfg := testConfig(t, config.Overlay{ResetWaitSecs: &wait})
	buses := mistctl.NewBuses()
	sub := buses.Chip.Subscribe()
	t.Cleanup(sub.Close)

	svc := NewChipControlService(cfg, buses)
	if got := svc.RequestReset(context.Background()); got != 7 {
		t.Fatalf("wait = %d, want 7", got)
	}
	ev, ok := sub.Next()
	if !ok || ev.Value != mistctl.ChipActionReset {
		t.Fatalf("published action = %+v (%v)", ev.Value, ok)
	}
}
