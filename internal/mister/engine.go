// Package mister holds the humidity control engine: the mode/status state
// machine driving the mister relay, the auto-schedule stepper and the
// status LED loop.
package mister

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mistctl"
	"mistctl/internal/bus"
	"mistctl/internal/config"
	"mistctl/internal/gpio"
	"mistctl/internal/logger"
	"mistctl/internal/repository"
)

const engineErrSleep = 5 * time.Second

// autoRHState is the anti-flap guard: the last accepted status and when the
// current cycle started. It is cleared whenever the observed status desyncs
// from the last published one.
type autoRHState struct {
	status     mistctl.Status
	cycleStart time.Time
}

// Engine consumes mode-change requests and sensor readings, decides the
// actuator state, persists mode and broadcasts status changes.
type Engine struct {
	cfg      *config.Store
	st       *mistctl.State
	modeRepo repository.ModeRepo
	events   repository.EventRepo
	pin      gpio.OutputPin
	log      *logger.Logger

	changeModeSub *bus.Subscription[mistctl.ChangeMode]
	sensorSub     *bus.Subscription[*mistctl.SensorMetrics]
	modeChanged   *bus.Bus[mistctl.Mode]
	statusChanged *bus.Bus[mistctl.Status]

	now  func() time.Time
	auto *autoRHState
}

// NewEngine wires the engine to the shared buses. events may be nil; the
// appliance log is best-effort.
func NewEngine(cfg *config.Store, st *mistctl.State, buses *mistctl.Buses,
	modeRepo repository.ModeRepo, events repository.EventRepo,
	pin gpio.OutputPin, log *logger.Logger) *Engine {
	return &Engine{
		cfg:           cfg,
		st:            st,
		modeRepo:      modeRepo,
		events:        events,
		pin:           pin,
		log:           log,
		changeModeSub: buses.ChangeMode.Subscribe(),
		sensorSub:     buses.Sensor.Subscribe(),
		modeChanged:   buses.ModeChanged,
		statusChanged: buses.StatusChanged,
		now:           time.Now,
	}
}

// Run restores the persisted mode and processes events until ctx is
// canceled. Errors never terminate the loop; they are logged and followed
// by a backoff sleep.
func (e *Engine) Run(ctx context.Context) {
	e.loadMode(ctx)
	for ctx.Err() == nil {
		if err := e.poll(ctx); err != nil {
			e.log.Warnw("mister operation poll failed", "err", err)
			sleep(ctx, engineErrSleep)
		}
	}
}

func (e *Engine) poll(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-e.changeModeSub.Ready():
		ev, ok := e.changeModeSub.Next()
		if !ok {
			return nil
		}
		if ev.Lagged > 0 {
			e.log.Warnw("change-mode subscriber lagged", "dropped", ev.Lagged)
			return nil
		}
		return e.handleChangeMode(ctx, ev.Value)
	case <-e.sensorSub.Ready():
		ev, ok := e.sensorSub.Next()
		if !ok {
			return nil
		}
		if ev.Lagged > 0 {
			e.log.Warnw("sensor subscriber lagged", "dropped", ev.Lagged)
			return nil
		}
		return e.handleMetrics(ctx, ev.Value)
	}
}

// loadMode restores the persisted mode, defaulting to auto when the byte is
// absent or invalid.
func (e *Engine) loadMode(ctx context.Context) {
	mode, ok, err := e.modeRepo.Load(ctx)
	if err != nil {
		e.log.Warnw("failed to load persisted mode", "err", err)
	}
	if err != nil || !ok {
		mode = mistctl.ModeAuto
	} else {
		e.log.Infow("restored previous mode", "mode", mode)
	}
	e.st.SetMode(mode)
	e.modeChanged.Publish(mode)
}

// handleChangeMode applies an explicit mode or advances to the next one in
// the cyclic order auto -> off -> on -> auto.
func (e *Engine) handleChangeMode(ctx context.Context, cm mistctl.ChangeMode) error {
	var mode mistctl.Mode
	if cm.Mode != nil {
		mode = *cm.Mode
	} else if cur, ok := e.st.Mode(); ok {
		mode = cur.Next()
	} else {
		mode = mistctl.ModeAuto
	}

	if err := e.storeMode(ctx, mode); err != nil {
		return err
	}
	return e.applyModeStatus(ctx, mode)
}

func (e *Engine) storeMode(ctx context.Context, mode mistctl.Mode) error {
	if err := e.modeRepo.Store(ctx, mode); err != nil {
		return fmt.Errorf("persist mode: %w", err)
	}
	e.log.Infow("mode persisted", "mode", mode)
	e.st.SetMode(mode)
	e.modeChanged.Publish(mode)
	e.appendEvent(ctx, mistctl.EventModeChange, "mode changed to "+mode.String(),
		map[string]any{"mode": mode.String()})
	return nil
}

// applyModeStatus forces the status a fresh mode implies. Auto starts Off
// as the safe state until the schedule stepper takes over.
func (e *Engine) applyModeStatus(ctx context.Context, mode mistctl.Mode) error {
	switch mode {
	case mistctl.ModeOn:
		return e.changeStatus(ctx, mistctl.StatusOn)
	case mistctl.ModeOff:
		return e.changeStatus(ctx, mistctl.StatusOff)
	default:
		return e.changeStatus(ctx, mistctl.StatusOff)
	}
}

func (e *Engine) handleMetrics(ctx context.Context, m *mistctl.SensorMetrics) error {
	if !e.st.IsModeAuto() {
		return nil
	}

	if m == nil {
		e.log.Warnw("no sensor metrics, forcing mister status to fault")
		e.auto = nil
		e.appendEvent(ctx, mistctl.EventSensorFault, "sensor fault while in auto mode", nil)
		return e.changeStatus(ctx, mistctl.StatusFault)
	}

	inst := e.cfg.Current()
	entry, ok := inst.Schedule(e.st.AutoSchedule().Idx)
	if !ok {
		e.auto = nil
		if err := e.changeStatus(ctx, mistctl.StatusFault); err != nil {
			return err
		}
		return errors.New("mode is auto without a valid schedule entry")
	}
	return e.autoRHPoll(ctx, inst, entry.TargetRH, m)
}

// autoRHPoll applies hysteresis against the active setpoint and the
// anti-flap minimum dwell between accepted status changes.
func (e *Engine) autoRHPoll(ctx context.Context, inst *config.Instance, targetRH float64, m *mistctl.SensorMetrics) error {
	status := e.st.Status()
	rhOn := inst.AutoOnRH(targetRH)
	rhOff := inst.AutoOffRH(targetRH)

	// Verify the guard still matches the published status.
	if e.auto != nil && e.auto.status != status {
		e.auto = nil
	}

	// Inside the dead band the previous status is preserved, whichever
	// direction the humidity is moving.
	candidate := status
	switch {
	case m.RH <= rhOn:
		candidate = mistctl.StatusOn
	case m.RH >= rhOff:
		candidate = mistctl.StatusOff
	}

	if candidate == status {
		// Still verifies the pin level.
		return e.changeStatus(ctx, candidate)
	}

	now := e.now()
	minCycle := time.Duration(inst.MisterAutoDurationMinMs) * time.Millisecond
	if e.auto == nil {
		e.auto = &autoRHState{status: candidate, cycleStart: now}
		return e.changeStatus(ctx, candidate)
	}
	if now.Sub(e.auto.cycleStart) >= minCycle {
		e.auto.status = candidate
		e.auto.cycleStart = now
		return e.changeStatus(ctx, candidate)
	}

	// Flapping too fast: suppress the change, output stays as-is.
	e.log.Debugw("status change suppressed by anti-flap guard",
		"candidate", candidate, "since_ms", now.Sub(e.auto.cycleStart).Milliseconds())
	return nil
}

// changeStatus drives the relay (idempotently; fault fails safe to low)
// and broadcasts the status only when it actually changed.
func (e *Engine) changeStatus(ctx context.Context, s mistctl.Status) error {
	high := s == mistctl.StatusOn
	if e.pin.High() != high {
		if err := e.pin.Set(high); err != nil {
			return fmt.Errorf("drive mister power pin: %w", err)
		}
	}

	if e.st.Status() != s {
		e.st.SetStatus(s)
		e.log.Infow("mister status changed", "status", s)
		e.statusChanged.Publish(s)
		e.appendEvent(ctx, mistctl.EventStatusChange, "status changed to "+s.String(),
			map[string]any{"status": s.String()})
	}
	return nil
}

func (e *Engine) appendEvent(ctx context.Context, typ, desc string, meta any) {
	if e.events == nil {
		return
	}
	if err := e.events.Append(ctx, mistctl.Event{Type: typ, Description: desc, Metadata: meta}); err != nil {
		e.log.Debugw("failed to append event", "type", typ, "err", err)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
