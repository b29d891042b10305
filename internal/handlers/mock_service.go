package handlers

import (
	"context"
	"time"

	"mistctl"
	"mistctl/internal/config"
	"mistctl/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockMonitoring struct {
	view service.StatusView
}

func (m *mockMonitoring) Status(ctx context.Context) service.StatusView {
	return m.view
}

type mockModeControl struct {
	mode        *mistctl.Mode
	changeErr   error
	changeCalls int
	lastChange  *mistctl.Mode
}

func (m *mockModeControl) Mode(ctx context.Context) *mistctl.Mode {
	return m.mode
}

func (m *mockModeControl) Change(ctx context.Context, mode *mistctl.Mode) error {
	m.changeCalls++
	m.lastChange = mode
	return m.changeErr
}

type mockConfigAdmin struct {
	overlay   config.Overlay
	applyErr  error
	resetErr  error
	waitSecs  uint32
	lastApply config.Overlay
	applied   int
	resets    int
}

func (m *mockConfigAdmin) Overlay(ctx context.Context) config.Overlay {
	return m.overlay
}

func (m *mockConfigAdmin) Apply(ctx context.Context, o config.Overlay) error {
	m.applied++
	m.lastApply = o
	return m.applyErr
}

func (m *mockConfigAdmin) ResetDefaults(ctx context.Context) error {
	m.resets++
	return m.resetErr
}

func (m *mockConfigAdmin) ResetWaitSecs(ctx context.Context) uint32 {
	return m.waitSecs
}

type mockChipControl struct {
	waitSecs uint32
	requests int
}

func (m *mockChipControl) RequestReset(ctx context.Context) uint32 {
	m.requests++
	return m.waitSecs
}

type mockEventLog struct {
	resp     []mistctl.Event
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]mistctl.Event, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
