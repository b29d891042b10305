package mister

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mistctl"
	"mistctl/internal/bus"
	"mistctl/internal/config"
	"mistctl/internal/logger"
)

const (
	stepperPendingRecheck = 100 * time.Millisecond
	stepperYield          = 50 * time.Millisecond
	stepperErrSleep       = 500 * time.Millisecond
)

// Stepper walks the configured cyclic setpoint list while the mode is
// auto, so the engine always has a well-defined current target. It owns
// the AutoScheduleState cell; leaving auto resets it unconditionally.
type Stepper struct {
	cfg *config.Store
	st  *mistctl.State
	sub *bus.Subscription[mistctl.Mode]
	log *logger.Logger

	now            func() time.Time
	pendingRecheck time.Duration
	yield          time.Duration
	errSleep       time.Duration
}

func NewStepper(cfg *config.Store, st *mistctl.State, buses *mistctl.Buses, log *logger.Logger) *Stepper {
	return &Stepper{
		cfg:            cfg,
		st:             st,
		sub:            buses.ModeChanged.Subscribe(),
		log:            log,
		now:            time.Now,
		pendingRecheck: stepperPendingRecheck,
		yield:          stepperYield,
		errSleep:       stepperErrSleep,
	}
}

// Run steps the schedule until ctx is canceled. Step errors are local and
// recoverable: log, back off, try again.
func (s *Stepper) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := s.step(ctx); err != nil {
			s.log.Warnw("auto schedule step failed", "err", err)
			sleep(ctx, s.errSleep)
			continue
		}
		sleep(ctx, s.yield)
	}
}

// step performs one stepper iteration: initialize on entering auto, cancel
// on leaving it, otherwise sleep toward the next transition while racing a
// mode change.
func (s *Stepper) step(ctx context.Context) error {
	auto := s.st.AutoSchedule()

	if auto.Mode == mistctl.AutoInitial {
		if !s.st.IsModeAuto() {
			return nil
		}
		return s.start(0)
	}
	if !s.st.IsModeAuto() {
		s.reset()
		return nil
	}

	inst := s.cfg.Current()
	entry, ok := inst.Schedule(auto.Idx)
	if !ok {
		s.reset()
		return fmt.Errorf("no auto schedule entry for idx %d", auto.Idx)
	}

	var wait time.Duration
	switch auto.Mode {
	case mistctl.AutoPending:
		wait = s.pendingRecheck
	case mistctl.AutoRunning:
		if auto.StartTime.IsZero() {
			s.reset()
			return errors.New("auto schedule running with no start time")
		}
		wait = time.Duration(entry.RunSecs)*time.Second - auto.RunningFor(s.now())
	}

	if wait <= 0 {
		return s.check(ctx)
	}

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-s.sub.Ready():
		ev, ok := s.sub.Next()
		if !ok {
			return nil
		}
		if ev.Lagged > 0 {
			s.log.Warnw("mode-changed subscriber lagged", "dropped", ev.Lagged)
			return nil
		}
		s.log.Infow("mode changed, resetting auto schedule", "mode", ev.Value)
		s.reset()
		return nil
	case <-t.C:
		return s.check(ctx)
	}
}

// check inspects the last known reading and advances the Pending/Running
// state machine for the current entry.
func (s *Stepper) check(_ context.Context) error {
	inst := s.cfg.Current()
	auto := s.st.AutoSchedule()
	entry, ok := inst.Schedule(auto.Idx)
	if !ok {
		s.reset()
		return fmt.Errorf("no auto schedule entry for idx %d", auto.Idx)
	}

	m := s.st.Metrics()
	if m == nil {
		return errors.New("no sensor metrics to evaluate auto schedule")
	}

	switch auto.Mode {
	case mistctl.AutoPending:
		rhOn := inst.AutoOnRH(entry.TargetRH)
		rhOff := inst.AutoOffRH(entry.TargetRH)
		if m.RH >= rhOn && m.RH <= rhOff {
			start := s.now()
			s.st.UpdateAutoSchedule(func(a *mistctl.AutoScheduleState) {
				a.Mode = mistctl.AutoRunning
				a.StartTime = start
			})
			s.log.Infow("auto schedule entry captured", "idx", auto.Idx, "rh", m.RH,
				"target_rh", entry.TargetRH, "run_secs", entry.RunSecs)
		}
	case mistctl.AutoRunning:
		if auto.RunningFor(s.now()) >= time.Duration(entry.RunSecs)*time.Second {
			return s.advance(inst, auto.Idx)
		}
	}
	return nil
}

// advance moves to the next schedule index, wrapping past the last entry.
func (s *Stepper) advance(inst *config.Instance, idx int) error {
	next := idx + 1
	if next >= len(inst.MisterAutoRHSchedule) {
		next = 0
	}
	return s.start(next)
}

// start enters Pending for the given index.
func (s *Stepper) start(idx int) error {
	entry, ok := s.cfg.Current().Schedule(idx)
	if !ok {
		return fmt.Errorf("no auto schedule entry for idx %d", idx)
	}
	s.st.UpdateAutoSchedule(func(a *mistctl.AutoScheduleState) {
		a.Reset()
		a.Idx = idx
		a.Mode = mistctl.AutoPending
	})
	s.log.Infow("started auto schedule entry", "idx", idx,
		"target_rh", entry.TargetRH, "run_secs", entry.RunSecs)
	return nil
}

func (s *Stepper) reset() {
	s.st.UpdateAutoSchedule(func(a *mistctl.AutoScheduleState) { a.Reset() })
}
