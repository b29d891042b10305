package service

import (
	"context"

	"mistctl"
	"mistctl/internal/config"
	"mistctl/internal/repository"
)

// Monitoring exposes the read-only status snapshot served by the API and
// the WebSocket stream.
type Monitoring interface {
	Status(ctx context.Context) StatusView
}

// ModeControl exposes the operator mode: reading it and requesting a
// change (nil target means toggle).
type ModeControl interface {
	Mode(ctx context.Context) *mistctl.Mode
	Change(ctx context.Context, mode *mistctl.Mode) error
}

// ConfigAdmin exposes the configuration overlay lifecycle.
type ConfigAdmin interface {
	Overlay(ctx context.Context) config.Overlay
	Apply(ctx context.Context, o config.Overlay) error
	ResetDefaults(ctx context.Context) error
	ResetWaitSecs(ctx context.Context) uint32
}

// ChipControl requests device-level actions.
type ChipControl interface {
	// RequestReset schedules a grace-delayed restart and returns the delay
	// in seconds.
	RequestReset(ctx context.Context) uint32
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]mistctl.Event, error)
}

// Service aggregates all sub-services consumed by the HTTP layer.
type Service struct {
	Monitoring
	ModeControl
	ConfigAdmin
	ChipControl
	EventLog
}

func NewService(cfg *config.Store, st *mistctl.State, buses *mistctl.Buses, repos *repository.Repository) *Service {
	return &Service{
		Monitoring:  NewMonitoringService(cfg, st),
		ModeControl: NewModeService(st, buses),
		ConfigAdmin: NewConfigAdminService(cfg),
		ChipControl: NewChipControlService(cfg, buses),
		EventLog:    NewEventLogService(repos.Events),
	}
}
