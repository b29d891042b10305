// Package chip is the reset coordinator: it decouples "a reset is needed"
// from "the reset happens now", so an HTTP handler can finish responding
// before the device restarts.
package chip

import (
	"context"
	"os"
	"time"

	"mistctl"
	"mistctl/internal/bus"
	"mistctl/internal/config"
	"mistctl/internal/logger"
	"mistctl/internal/repository"
)

// Coordinator waits for chip actions and performs them after the
// configured grace period.
type Coordinator struct {
	sub    *bus.Subscription[mistctl.ChipAction]
	cfg    *config.Store
	events repository.EventRepo
	log    *logger.Logger

	// restart performs the unconditional device restart. The default exits
	// the process and relies on the supervisor to bring the daemon back up,
	// which is the service-world equivalent of a hardware reboot.
	restart func()
}

// NewCoordinator subscribes to the action bus. events may be nil; scheduled
// resets then go unrecorded.
func NewCoordinator(actions *bus.Bus[mistctl.ChipAction], cfg *config.Store, events repository.EventRepo, log *logger.Logger) *Coordinator {
	return &Coordinator{
		sub:     actions.Subscribe(),
		cfg:     cfg,
		events:  events,
		log:     log,
		restart: func() { os.Exit(0) },
	}
}

// Run processes actions until ctx is canceled. Lag on the action bus is
// ignored: a reset request lost under extreme overflow is not retried, the
// triggering caller surfaces its own error.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		ev, err := c.sub.Recv(ctx)
		if err != nil {
			return
		}
		if ev.Lagged > 0 {
			c.log.Warnw("chip action subscriber lagged", "dropped", ev.Lagged)
			continue
		}
		switch ev.Value {
		case mistctl.ChipActionReset:
			c.reset(ctx)
		default:
			c.log.Warnw("unknown chip action", "action", ev.Value)
		}
	}
}

func (c *Coordinator) reset(ctx context.Context) {
	waitSecs := c.cfg.Current().ResetWaitSecs
	wait := time.Duration(waitSecs) * time.Second
	c.log.Infow("device reset requested", "wait", wait)
	c.appendEvent(ctx, "device reset scheduled", map[string]any{"wait_secs": waitSecs})

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return
	case <-t.C:
	}

	c.log.Infow("restarting device")
	c.restart()
}

func (c *Coordinator) appendEvent(ctx context.Context, desc string, meta any) {
	if c.events == nil {
		return
	}
	if err := c.events.Append(ctx, mistctl.Event{Type: mistctl.EventChipReset, Description: desc, Metadata: meta}); err != nil {
		c.log.Debugw("failed to append event", "type", mistctl.EventChipReset, "err", err)
	}
}
