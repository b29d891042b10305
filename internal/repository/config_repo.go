package repository

import (
	"context"
	"encoding/binary"
	"fmt"

	"mistctl/internal/nvram"
)

// lengthSentinel is the all-ones erased value of the length field, meaning
// "no persisted config".
const lengthSentinel = 0xFFFF

// ErrRecordTooLarge is returned when an encoded overlay does not fit the
// reserved config region.
var ErrRecordTooLarge = fmt.Errorf("config record exceeds %d bytes", configMaxPayload)

type ConfigRecordNVRAM struct {
	nv *nvram.Device
}

func NewConfigRecordNVRAM(nv *nvram.Device) *ConfigRecordNVRAM {
	return &ConfigRecordNVRAM{nv: nv}
}

func (r *ConfigRecordNVRAM) Load(_ context.Context) ([]byte, bool, error) {
	var hdr [configHeaderLen]byte
	if err := r.nv.ReadAt(configOffset, hdr[:]); err != nil {
		return nil, false, err
	}
	n := binary.BigEndian.Uint16(hdr[:])
	if n == lengthSentinel {
		return nil, false, nil
	}
	if int(n) > configMaxPayload {
		return nil, false, fmt.Errorf("config record length %d is corrupt", n)
	}
	payload := make([]byte, n)
	if err := r.nv.ReadAt(configOffset+configHeaderLen, payload); err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (r *ConfigRecordNVRAM) Store(_ context.Context, payload []byte) error {
	if len(payload) > configMaxPayload {
		return ErrRecordTooLarge
	}
	rec := make([]byte, configHeaderLen+len(payload))
	binary.BigEndian.PutUint16(rec, uint16(len(payload)))
	copy(rec[configHeaderLen:], payload)
	return r.nv.WriteAt(configOffset, rec)
}

// Erase resets the length field to the sentinel, reverting to defaults on
// the next load. The stale payload bytes are left behind; the sentinel
// makes them unreachable.
func (r *ConfigRecordNVRAM) Erase(_ context.Context) error {
	return r.nv.Erase(configOffset, configHeaderLen)
}
