package mister

import (
	"context"
	"time"

	"mistctl"
	"mistctl/internal/bus"
	"mistctl/internal/gpio"
	"mistctl/internal/logger"
)

const ledBlinkInterval = 400 * time.Millisecond

// StatusLED mirrors the published status on the LED pin: solid for On,
// dark for Off, blinking while Fault persists. It races status events
// against a periodic timer and reacts to whichever fires first.
type StatusLED struct {
	st    *mistctl.State
	pin   gpio.OutputPin
	sub   *bus.Subscription[mistctl.Status]
	log   *logger.Logger
	blink time.Duration
}

func NewStatusLED(st *mistctl.State, buses *mistctl.Buses, pin gpio.OutputPin, log *logger.Logger) *StatusLED {
	return &StatusLED{
		st:    st,
		pin:   pin,
		sub:   buses.StatusChanged.Subscribe(),
		log:   log,
		blink: ledBlinkInterval,
	}
}

func (l *StatusLED) Run(ctx context.Context) {
	for ctx.Err() == nil {
		t := time.NewTimer(l.blink)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-l.sub.Ready():
			t.Stop()
			ev, ok := l.sub.Next()
			if !ok {
				continue
			}
			if ev.Lagged > 0 {
				l.log.Warnw("status subscriber lagged", "dropped", ev.Lagged)
				continue
			}
			l.apply(ev.Value)
		case <-t.C:
			// Alternate the LED while faulted.
			if l.st.Status() == mistctl.StatusFault {
				l.set(!l.pin.High())
			}
		}
	}
}

func (l *StatusLED) apply(s mistctl.Status) {
	switch s {
	case mistctl.StatusOn, mistctl.StatusFault:
		if !l.pin.High() {
			l.set(true)
		}
	case mistctl.StatusOff:
		if l.pin.High() {
			l.set(false)
		}
	}
}

func (l *StatusLED) set(high bool) {
	if err := l.pin.Set(high); err != nil {
		l.log.Warnw("failed to drive status led", "err", err)
	}
}
