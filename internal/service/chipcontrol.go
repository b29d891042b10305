package service

import (
	"context"

	"mistctl"
	"mistctl/internal/bus"
	"mistctl/internal/config"
)

type ChipControlService struct {
	cfg *config.Store
	pub *bus.Bus[mistctl.ChipAction]
}

func NewChipControlService(cfg *config.Store, buses *mistctl.Buses) *ChipControlService {
	return &ChipControlService{cfg: cfg, pub: buses.Chip}
}

func (s *ChipControlService) RequestReset(_ context.Context) uint32 {
	s.pub.Publish(mistctl.ChipActionReset)
	return s.cfg.Current().ResetWaitSecs
}
