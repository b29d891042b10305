package repository

import (
	"context"
	"path/filepath"
	"testing"

	"mistctl"
	"mistctl/internal/nvram"
)

func openTestNVRAM(t *testing.T) *nvram.Device {
	t.Helper()
	nv, err := nvram.Open(filepath.Join(t.TempDir(), "region.nv"), 4096)
	if err != nil {
		t.Fatalf("nvram.Open: %v", err)
	}
	t.Cleanup(func() { _ = nv.Close() })
	return nv
}

func TestModeLoad_FreshRegionAbsent(t *testing.T) {
	t.Parallel()

	repo := NewModeNVRAM(openTestNVRAM(t))
	_, ok, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("erased mode byte must read as absent")
	}
}

func TestModeStoreLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	repo := NewModeNVRAM(openTestNVRAM(t))
	ctx := context.Background()

	for _, mode := range []mistctl.Mode{mistctl.ModeAuto, mistctl.ModeOff, mistctl.ModeOn} {
		if err := repo.Store(ctx, mode); err != nil {
			t.Fatalf("Store(%v): %v", mode, err)
		}
		got, ok, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if !ok || got != mode {
			t.Fatalf("Load = (%v, %v), want (%v, true)", got, ok, mode)
		}
	}
}

func TestModeLoad_GarbageByteAbsent(t *testing.T) {
	t.Parallel()

	nv := openTestNVRAM(t)
	if err := nv.WriteAt(modeOffset, []byte{0x7E}); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	repo := NewModeNVRAM(nv)
	_, ok, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("out-of-range mode byte must read as absent")
	}
}
