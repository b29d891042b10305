package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"mistctl"
	"mistctl/internal/bus"
	"mistctl/internal/config"
	"mistctl/internal/logger"
)

const (
	// maxRH clamps calibrated humidity.
	maxRH = 100.0

	// Bounded retry budget per poll cycle. The device gets a reset and a
	// settle delay before the final attempt.
	maxReadAttempts        = 3
	defaultReadRetryDelay  = 100 * time.Millisecond
	defaultResetSettleTime = time.Second
)

// Task cyclically reads the sensor, applies calibration and publishes
// either a reading or nil (fault). It never gives up: exhausted retries
// surface as one absent publication, then the driver is rebuilt from
// scratch on the error cadence.
type Task struct {
	cfg     *config.Store
	st      *mistctl.State
	pub     *bus.Bus[*mistctl.SensorMetrics]
	factory Factory
	log     *logger.Logger

	retryDelay time.Duration
	settleTime time.Duration
}

func NewTask(cfg *config.Store, st *mistctl.State, pub *bus.Bus[*mistctl.SensorMetrics], factory Factory, log *logger.Logger) *Task {
	return &Task{
		cfg:        cfg,
		st:         st,
		pub:        pub,
		factory:    factory,
		log:        log,
		retryDelay: defaultReadRetryDelay,
		settleTime: defaultResetSettleTime,
	}
}

// Run polls until ctx is canceled.
func (t *Task) Run(ctx context.Context) {
	for ctx.Err() == nil {
		inst := t.cfg.Current()
		dev, err := t.factory(inst)
		if err != nil {
			t.log.Warnw("failed to create sensor device", "err", err, "driver", inst.SensorDriver)
			t.publish(nil)
			if !sleep(ctx, errDelay(inst)) {
				return
			}
			continue
		}

		t.log.Infow("sensor device ready", "driver", inst.SensorDriver)
		for ctx.Err() == nil {
			if recreate := t.poll(ctx, dev); recreate {
				t.log.Infow("reinitializing sensor device")
				break
			}
		}
	}
}

// poll performs one acquisition cycle. It reports whether the driver must
// be rebuilt before the next cycle.
func (t *Task) poll(ctx context.Context, dev Driver) bool {
	inst := t.cfg.Current()

	m, err := t.read(ctx, dev)
	if err != nil {
		t.log.Errorw("sensor read failed, reporting fault", "err", err)
		t.publish(nil)
		sleep(ctx, errDelay(inst))
		return true
	}

	if adj := inst.SensorCalibrationRHAdj; adj != nil {
		m.RH += *adj
		if m.RH > maxRH {
			m.RH = maxRH
		}
	}
	t.log.Debugw("sensor reading", "temp", m.Temp, "rh", m.RH)
	t.publish(m)

	sleep(ctx, time.Duration(inst.SensorDelayMs)*time.Millisecond)
	return false
}

// read attempts the device read up to the retry budget with a constant
// backoff between attempts. Non-positive values count as a failed read.
func (t *Task) read(ctx context.Context, dev Driver) (*mistctl.SensorMetrics, error) {
	var (
		m       *mistctl.SensorMetrics
		attempt int
	)
	op := func() error {
		attempt++
		temp, rh, err := dev.Read()
		if err == nil && (temp <= 0 || rh <= 0) {
			err = fmt.Errorf("invalid sensor reading (temp: %.2f, rh: %.2f)", temp, rh)
		}
		if err != nil {
			if attempt == maxReadAttempts-1 {
				// Give the device a chance to recover before the last try.
				if rerr := dev.Reset(); rerr != nil {
					t.log.Errorw("failed to reset sensor", "err", rerr)
				}
				sleep(ctx, t.settleTime)
			}
			return err
		}
		m = &mistctl.SensorMetrics{Temp: temp, RH: rh}
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(t.retryDelay), maxReadAttempts-1), ctx))
	if err != nil {
		return nil, err
	}
	return m, nil
}

// publish stores the last-known-good reading and broadcasts it. A nil
// reading clears the cell so consumers see the fault.
func (t *Task) publish(m *mistctl.SensorMetrics) {
	t.st.SetMetrics(m)
	t.pub.Publish(m)
}

func errDelay(inst *config.Instance) time.Duration {
	return time.Duration(inst.SensorDelayErrMs) * time.Millisecond
}

// sleep pauses for d unless ctx ends first; it reports false on
// cancellation.
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
