// Package sensor owns the temperature/RH acquisition pipeline: two
// interchangeable sysfs-backed I2C drivers and the polling task that
// retries, recovers and republishes readings.
package sensor

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"mistctl/internal/config"
)

// Driver is the capability the acquisition loop needs from a physical
// sensor device.
type Driver interface {
	// Read returns temperature in °C and relative humidity in percent.
	Read() (temp, rh float64, err error)
	// Reset asks the device to reinitialize after repeated read failures.
	Reset() error
}

// Factory creates a fresh driver for the configured sensor. The loop calls
// it again whenever a device wedges and needs full re-initialization.
type Factory func(inst *config.Instance) (Driver, error)

// SysfsFactory selects between the two kernel-driver-backed sensors by the
// snapshot's driver field. hdcDir is the HDC1080's iio device directory,
// shtDir the SHT4x's hwmon directory.
func SysfsFactory(hdcDir, shtDir string) Factory {
	return func(inst *config.Instance) (Driver, error) {
		switch inst.SensorDriver {
		case config.DriverHDC1080:
			return NewHDC1080(hdcDir)
		case config.DriverSHT4X:
			return NewSHT4X(shtDir)
		}
		return nil, fmt.Errorf("unknown sensor driver %q", inst.SensorDriver)
	}
}

// readMilliFile reads a sysfs attribute holding an integer in milli-units
// and returns the scaled value.
func readMilliFile(path string) (float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", path, err)
	}
	return v / 1000, nil
}

// probeDir reports whether the device's sysfs node is still present, i.e.
// the kernel still has the device bound.
func probeDir(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("sensor device node missing: %w", err)
	}
	return nil
}
