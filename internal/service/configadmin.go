package service

import (
	"context"

	"mistctl/internal/config"
)

type ConfigAdminService struct {
	cfg *config.Store
}

func NewConfigAdminService(cfg *config.Store) *ConfigAdminService {
	return &ConfigAdminService{cfg: cfg}
}

func (s *ConfigAdminService) Overlay(_ context.Context) config.Overlay {
	return s.cfg.Overlay()
}

func (s *ConfigAdminService) Apply(ctx context.Context, o config.Overlay) error {
	return s.cfg.Apply(ctx, o)
}

func (s *ConfigAdminService) ResetDefaults(ctx context.Context) error {
	return s.cfg.Reset(ctx)
}

func (s *ConfigAdminService) ResetWaitSecs(_ context.Context) uint32 {
	return s.cfg.Current().ResetWaitSecs
}
