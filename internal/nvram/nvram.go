// Package nvram emulates the flat byte-addressed non-volatile region the
// appliance keeps its mode byte and config record in. The region is backed
// by a fixed-size file; bytes that were never written read as the erased
// value, matching flash semantics.
package nvram

import (
	"fmt"
	"os"
	"sync"
)

// Erased is the value of a byte that has never been written.
const Erased byte = 0xFF

// Device is a fixed-size non-volatile byte region.
type Device struct {
	mu   sync.Mutex
	f    *os.File
	size int64
}

// Open opens or creates the region at path with the given size. A freshly
// created region reads fully erased.
func Open(path string, size int64) (*Device, error) {
	if size <= 0 {
		return nil, fmt.Errorf("nvram: invalid region size %d", size)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("nvram: open %q: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("nvram: stat %q: %w", path, err)
	}
	if st.Size() < size {
		blank := make([]byte, size-st.Size())
		for i := range blank {
			blank[i] = Erased
		}
		if _, err := f.WriteAt(blank, st.Size()); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("nvram: initialize %q: %w", path, err)
		}
	}
	return &Device{f: f, size: size}, nil
}

func (d *Device) checkRange(off int64, n int) error {
	if off < 0 || off+int64(n) > d.size {
		return fmt.Errorf("nvram: range [%d, %d) outside region of %d bytes", off, off+int64(n), d.size)
	}
	return nil
}

// ReadAt fills p from the region starting at off.
func (d *Device) ReadAt(off int64, p []byte) error {
	if err := d.checkRange(off, len(p)); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.f.ReadAt(p, off); err != nil {
		return fmt.Errorf("nvram: read at %#x: %w", off, err)
	}
	return nil
}

// WriteAt writes p to the region starting at off and syncs to disk.
func (d *Device) WriteAt(off int64, p []byte) error {
	if err := d.checkRange(off, len(p)); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.f.WriteAt(p, off); err != nil {
		return fmt.Errorf("nvram: write at %#x: %w", off, err)
	}
	if err := d.f.Sync(); err != nil {
		return fmt.Errorf("nvram: sync: %w", err)
	}
	return nil
}

// Erase resets n bytes starting at off back to the erased value.
func (d *Device) Erase(off int64, n int) error {
	blank := make([]byte, n)
	for i := range blank {
		blank[i] = Erased
	}
	return d.WriteAt(off, blank)
}

func (d *Device) Close() error { return d.f.Close() }
