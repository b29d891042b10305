package repository

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"
)

func TestConfigRecord_FreshRegionAbsent(t *testing.T) {
	t.Parallel()

	repo := NewConfigRecordNVRAM(openTestNVRAM(t))
	_, ok, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("erased record must read as absent")
	}
}

func TestConfigRecord_StoreLoadRoundTrip(t *testing.T) {
	t.Parallel()

	repo := NewConfigRecordNVRAM(openTestNVRAM(t))
	ctx := context.Background()

	payload := []byte(`{"sensor_delay_ms":1000}`)
	if err := repo.Store(ctx, payload); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, ok, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok || !bytes.Equal(got, payload) {
		t.Fatalf("Load = (%q, %v), want (%q, true)", got, ok, payload)
	}
}

func TestConfigRecord_EraseRevertsToAbsent(t *testing.T) {
	t.Parallel()

	repo := NewConfigRecordNVRAM(openTestNVRAM(t))
	ctx := context.Background()

	if err := repo.Store(ctx, []byte("x")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := repo.Erase(ctx); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	_, ok, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("erased record must read as absent")
	}
}

func TestConfigRecord_OversizePayloadRejectedAndUnchanged(t *testing.T) {
	t.Parallel()

	repo := NewConfigRecordNVRAM(openTestNVRAM(t))
	ctx := context.Background()

	old := []byte("keep me")
	if err := repo.Store(ctx, old); err != nil {
		t.Fatalf("Store: %v", err)
	}

	big := make([]byte, configMaxPayload+1)
	if err := repo.Store(ctx, big); !errors.Is(err, ErrRecordTooLarge) {
		t.Fatalf("Store oversize = %v, want ErrRecordTooLarge", err)
	}

	got, ok, err := repo.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load = (%v, %v)", ok, err)
	}
	if !bytes.Equal(got, old) {
		t.Fatalf("record changed after rejected store: %q", got)
	}
}

func TestConfigRecord_CorruptLengthIsError(t *testing.T) {
	t.Parallel()

	nv := openTestNVRAM(t)
	var hdr [configHeaderLen]byte
	binary.BigEndian.PutUint16(hdr[:], configMaxPayload+100)
	if err := nv.WriteAt(configOffset, hdr[:]); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	repo := NewConfigRecordNVRAM(nv)
	_, _, err := repo.Load(context.Background())
	if err == nil {
		t.Fatal("expected error for corrupt length field")
	}
}
