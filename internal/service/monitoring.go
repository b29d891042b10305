package service

import (
	"context"
	"time"

	"mistctl"
	"mistctl/internal/config"
)

// StatusView is the API form of the appliance status. Unknown fields are
// omitted.
type StatusView struct {
	Mode               *mistctl.Mode          `json:"mode,omitempty"`
	Status             mistctl.Status         `json:"status"`
	ActiveAutoSchedule *ActiveAutoSchedule    `json:"active_auto_schedule,omitempty"`
	Metrics            *mistctl.SensorMetrics `json:"metrics,omitempty"`
}

// ActiveAutoSchedule summarizes the stepper's progress for the API.
type ActiveAutoSchedule struct {
	Mode        mistctl.AutoScheduleMode `json:"mode"`
	Idx         *int                     `json:"idx,omitempty"`
	RH          *float64                 `json:"rh,omitempty"`
	RemainingMs *int64                   `json:"remaining_ms,omitempty"`
	TotalMs     *int64                   `json:"total_ms,omitempty"`
}

type MonitoringService struct {
	cfg *config.Store
	st  *mistctl.State
}

func NewMonitoringService(cfg *config.Store, st *mistctl.State) *MonitoringService {
	return &MonitoringService{cfg: cfg, st: st}
}

// Status assembles the live snapshot from the shared state cells.
func (s *MonitoringService) Status(_ context.Context) StatusView {
	view := StatusView{
		Status:             s.st.Status(),
		ActiveAutoSchedule: s.autoScheduleView(),
		Metrics:            s.st.Metrics(),
	}
	if mode, ok := s.st.Mode(); ok {
		view.Mode = &mode
	}
	return view
}

func (s *MonitoringService) autoScheduleView() *ActiveAutoSchedule {
	auto := s.st.AutoSchedule()
	view := &ActiveAutoSchedule{Mode: auto.Mode}
	if auto.Mode == mistctl.AutoInitial {
		return view
	}

	entry, ok := s.cfg.Current().Schedule(auto.Idx)
	if !ok {
		return view
	}
	idx := auto.Idx
	rh := entry.TargetRH
	total := int64(entry.RunSecs) * 1000
	view.Idx = &idx
	view.RH = &rh
	view.TotalMs = &total

	if auto.Mode == mistctl.AutoRunning {
		remaining := total - auto.RunningFor(time.Now()).Milliseconds()
		if remaining < 0 {
			remaining = 0
		}
		view.RemainingMs = &remaining
	}
	return view
}
