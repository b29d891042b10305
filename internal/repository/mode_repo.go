package repository

import (
	"context"

	"mistctl"
	"mistctl/internal/nvram"
)

// NV region layout. The mode byte and the config record live in disjoint
// ranges of the same flat region; each user performs short, non-overlapping
// read/write sequences.
const (
	modeOffset = 0x00

	configOffset     = 0x10
	configHeaderLen  = 2
	configMaxPayload = 2048
)

type ModeNVRAM struct {
	nv *nvram.Device
}

func NewModeNVRAM(nv *nvram.Device) *ModeNVRAM { return &ModeNVRAM{nv: nv} }

func (r *ModeNVRAM) Load(_ context.Context) (mistctl.Mode, bool, error) {
	var b [1]byte
	if err := r.nv.ReadAt(modeOffset, b[:]); err != nil {
		return 0, false, err
	}
	mode, ok := mistctl.ModeFromByte(b[0])
	return mode, ok, nil
}

func (r *ModeNVRAM) Store(_ context.Context, mode mistctl.Mode) error {
	return r.nv.WriteAt(modeOffset, []byte{byte(mode)})
}
