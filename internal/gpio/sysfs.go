package gpio

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SysfsOutput drives a GPIO line through the kernel's sysfs interface. The
// line is expected to be exported and configured as an output already
// (udev or boot scripts own that); dir is e.g. /sys/class/gpio/gpio17.
type SysfsOutput struct {
	mu   sync.Mutex
	path string
	high bool
}

// NewSysfsOutput opens the line and drives it low so the actuator starts
// de-energized.
func NewSysfsOutput(dir string) (*SysfsOutput, error) {
	p := &SysfsOutput{path: filepath.Join(dir, "value")}
	if err := p.Set(false); err != nil {
		return nil, fmt.Errorf("gpio: init output %q: %w", dir, err)
	}
	return p, nil
}

func (p *SysfsOutput) Set(high bool) error {
	v := []byte("0")
	if high {
		v = []byte("1")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := os.WriteFile(p.path, v, 0o644); err != nil {
		return fmt.Errorf("gpio: write %q: %w", p.path, err)
	}
	p.high = high
	return nil
}

func (p *SysfsOutput) High() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.high
}

// SysfsInput samples a GPIO line exported as an input.
type SysfsInput struct {
	path string
}

func NewSysfsInput(dir string) *SysfsInput {
	return &SysfsInput{path: filepath.Join(dir, "value")}
}

func (p *SysfsInput) Read() (bool, error) {
	b, err := os.ReadFile(p.path)
	if err != nil {
		return false, fmt.Errorf("gpio: read %q: %w", p.path, err)
	}
	return len(b) > 0 && bytes.TrimSpace(b)[0] == '1', nil
}
