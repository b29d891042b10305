package mistctl

import (
	"sync"

	"mistctl/internal/bus"
)

// State owns the shared cells every task reads: active mode, published
// status, auto-schedule progress and the last known sensor reading. Each
// cell follows a single-writer/many-reader discipline; locks are never held
// across blocking operations.
type State struct {
	mu      sync.RWMutex
	mode    *Mode
	status  Status
	auto    AutoScheduleState
	metrics *SensorMetrics
}

func NewState() *State {
	return &State{status: StatusOff}
}

// Mode returns the active mode; ok is false before the first mode load.
func (s *State) Mode() (Mode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mode == nil {
		return 0, false
	}
	return *s.mode, true
}

func (s *State) SetMode(m Mode) {
	s.mu.Lock()
	s.mode = &m
	s.mu.Unlock()
}

func (s *State) IsModeAuto() bool {
	m, ok := s.Mode()
	return ok && m == ModeAuto
}

func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *State) SetStatus(v Status) {
	s.mu.Lock()
	s.status = v
	s.mu.Unlock()
}

func (s *State) AutoSchedule() AutoScheduleState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auto
}

// UpdateAutoSchedule mutates the auto-schedule cell under the write lock.
func (s *State) UpdateAutoSchedule(fn func(*AutoScheduleState)) {
	s.mu.Lock()
	fn(&s.auto)
	s.mu.Unlock()
}

// Metrics returns the last known good sensor reading, or nil after a fault.
func (s *State) Metrics() *SensorMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics
}

func (s *State) SetMetrics(m *SensorMetrics) {
	s.mu.Lock()
	s.metrics = m
	s.mu.Unlock()
}

// Buses groups the broadcast channels wiring producers (sensor, button,
// API) to consumers (engine, stepper, LED, API).
type Buses struct {
	ChangeMode    *bus.Bus[ChangeMode]
	ModeChanged   *bus.Bus[Mode]
	StatusChanged *bus.Bus[Status]
	Sensor        *bus.Bus[*SensorMetrics]
	Chip          *bus.Bus[ChipAction]
}

func NewBuses() *Buses {
	return &Buses{
		ChangeMode:    bus.New[ChangeMode](4),
		ModeChanged:   bus.New[Mode](4),
		StatusChanged: bus.New[Status](4),
		Sensor:        bus.New[*SensorMetrics](4),
		Chip:          bus.New[ChipAction](4),
	}
}
