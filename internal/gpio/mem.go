package gpio

import "sync"

// MemPin is an in-memory pin used in simulated-hardware mode and in tests.
// It records every level transition it is asked to make.
type MemPin struct {
	mu     sync.Mutex
	high   bool
	Writes []bool
}

func NewMemPin() *MemPin { return &MemPin{} }

func (p *MemPin) Set(high bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.high = high
	p.Writes = append(p.Writes, high)
	return nil
}

func (p *MemPin) High() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.high
}

// WriteCount reports how many level writes the pin has seen.
func (p *MemPin) WriteCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Writes)
}

// SetLevel drives the pin from the outside, e.g. a simulated button press.
func (p *MemPin) SetLevel(high bool) {
	p.mu.Lock()
	p.high = high
	p.mu.Unlock()
}

func (p *MemPin) Read() (bool, error) { return p.High(), nil }
