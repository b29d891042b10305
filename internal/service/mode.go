package service

import (
	"context"
	"fmt"

	"mistctl"
	"mistctl/internal/bus"
)

type ModeService struct {
	st  *mistctl.State
	pub *bus.Bus[mistctl.ChangeMode]
}

func NewModeService(st *mistctl.State, buses *mistctl.Buses) *ModeService {
	return &ModeService{st: st, pub: buses.ChangeMode}
}

func (s *ModeService) Mode(_ context.Context) *mistctl.Mode {
	mode, ok := s.st.Mode()
	if !ok {
		return nil
	}
	return &mode
}

// Change publishes a mode-change request for the control engine. A nil
// mode advances to the next one in the toggle order.
func (s *ModeService) Change(_ context.Context, mode *mistctl.Mode) error {
	if mode != nil && !mode.Valid() {
		return fmt.Errorf("invalid mode %d", uint8(*mode))
	}
	s.pub.Publish(mistctl.ChangeMode{Mode: mode})
	return nil
}
