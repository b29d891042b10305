package sensor

import (
	"fmt"
	"path/filepath"
)

// HDC1080 reads a TI HDC1080 through the kernel hdc100x iio driver, e.g.
// /sys/bus/iio/devices/iio:device0.
type HDC1080 struct {
	tempPath string
	rhPath   string
	dir      string
}

func NewHDC1080(dir string) (*HDC1080, error) {
	if err := probeDir(dir); err != nil {
		return nil, fmt.Errorf("hdc1080: %w", err)
	}
	return &HDC1080{
		dir:      dir,
		tempPath: filepath.Join(dir, "in_temp_input"),
		rhPath:   filepath.Join(dir, "in_humidityrelative_input"),
	}, nil
}

func (d *HDC1080) Read() (float64, float64, error) {
	temp, err := readMilliFile(d.tempPath)
	if err != nil {
		return 0, 0, fmt.Errorf("hdc1080: read temperature: %w", err)
	}
	rh, err := readMilliFile(d.rhPath)
	if err != nil {
		return 0, 0, fmt.Errorf("hdc1080: read humidity: %w", err)
	}
	return temp, rh, nil
}

// Reset verifies the device is still bound; actual re-initialization is the
// kernel driver's job and happens when the loop recreates this driver.
func (d *HDC1080) Reset() error {
	if err := probeDir(d.dir); err != nil {
		return fmt.Errorf("hdc1080: %w", err)
	}
	return nil
}
