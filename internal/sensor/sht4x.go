package sensor

import (
	"fmt"
	"path/filepath"
)

// SHT4X reads a Sensirion SHT4x through the kernel hwmon driver, e.g.
// /sys/class/hwmon/hwmon1.
type SHT4X struct {
	tempPath string
	rhPath   string
	dir      string
}

func NewSHT4X(dir string) (*SHT4X, error) {
	if err := probeDir(dir); err != nil {
		return nil, fmt.Errorf("sht4x: %w", err)
	}
	return &SHT4X{
		dir:      dir,
		tempPath: filepath.Join(dir, "temp1_input"),
		rhPath:   filepath.Join(dir, "humidity1_input"),
	}, nil
}

func (d *SHT4X) Read() (float64, float64, error) {
	temp, err := readMilliFile(d.tempPath)
	if err != nil {
		return 0, 0, fmt.Errorf("sht4x: read temperature: %w", err)
	}
	rh, err := readMilliFile(d.rhPath)
	if err != nil {
		return 0, 0, fmt.Errorf("sht4x: read humidity: %w", err)
	}
	return temp, rh, nil
}

func (d *SHT4X) Reset() error {
	if err := probeDir(d.dir); err != nil {
		return fmt.Errorf("sht4x: %w", err)
	}
	return nil
}
