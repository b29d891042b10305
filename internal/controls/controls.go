// Package controls watches the physical mode button and publishes a toggle
// request when it is pressed.
package controls

import (
	"context"
	"time"

	"mistctl"
	"mistctl/internal/bus"
	"mistctl/internal/config"
	"mistctl/internal/gpio"
	"mistctl/internal/logger"
)

const buttonPollInterval = 10 * time.Millisecond

// Buttons polls the mode button pin. A press held at least the press
// threshold toggles the mode on release; a press reaching the hold
// threshold is recognized and consumed without action (reserved for a
// future function).
type Buttons struct {
	cfg *config.Store
	pin gpio.InputPin
	pub *bus.Bus[mistctl.ChangeMode]
	log *logger.Logger

	poll time.Duration
	now  func() time.Time
}

func NewButtons(cfg *config.Store, pin gpio.InputPin, changeMode *bus.Bus[mistctl.ChangeMode], log *logger.Logger) *Buttons {
	return &Buttons{
		cfg:  cfg,
		pin:  pin,
		pub:  changeMode,
		log:  log,
		poll: buttonPollInterval,
		now:  time.Now,
	}
}

func (b *Buttons) Run(ctx context.Context) {
	var (
		pressed bool
		start   time.Time
	)
	for {
		t := time.NewTimer(b.poll)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}

		high, err := b.pin.Read()
		if err != nil {
			b.log.Warnw("failed to read mode button", "err", err)
			continue
		}

		switch {
		case high && !pressed:
			pressed = true
			start = b.now()
		case !high && pressed:
			pressed = false
			held := b.now().Sub(start)
			inst := b.cfg.Current()
			switch {
			case held >= time.Duration(inst.ControlsMinHoldMs)*time.Millisecond:
				b.log.Infow("mode button held", "held_ms", held.Milliseconds())
			case held >= time.Duration(inst.ControlsMinPressMs)*time.Millisecond:
				b.log.Infow("mode button pressed, toggling mode")
				b.pub.Publish(mistctl.ChangeMode{})
			}
		}
	}
}
