package sensor

import (
	"math/rand"
	"sync"

	"mistctl/internal/config"
)

// Sim is a fake sensor for simulated-hardware mode: a gentle random walk
// around a midpoint, so the control loop has something to chew on during
// development.
type Sim struct {
	mu   sync.Mutex
	temp float64
	rh   float64
}

func NewSim() *Sim {
	return &Sim{temp: 22.0, rh: 85.0}
}

// SimFactory ignores the configured driver and always hands out the same
// simulated device.
func SimFactory(s *Sim) Factory {
	return func(_ *config.Instance) (Driver, error) { return s, nil }
}

func (s *Sim) Read() (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temp += (rand.Float64() - 0.5) * 0.2
	s.rh += (rand.Float64() - 0.5) * 0.8
	if s.rh > 100 {
		s.rh = 100
	}
	if s.rh < 50 {
		s.rh = 50
	}
	return s.temp, s.rh, nil
}

func (s *Sim) Reset() error { return nil }

// Set pins the simulated reading, useful from tests and debug tooling.
func (s *Sim) Set(temp, rh float64) {
	s.mu.Lock()
	s.temp, s.rh = temp, rh
	s.mu.Unlock()
}
