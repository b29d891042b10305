package repository

import (
	"context"
	"database/sql"
	"time"

	"mistctl"
	"mistctl/internal/nvram"
)

// ModeRepo persists the operator mode as a single byte in NV storage.
type ModeRepo interface {
	// Load returns the stored mode; ok is false when the byte is erased or
	// out of range.
	Load(ctx context.Context) (mode mistctl.Mode, ok bool, err error)
	Store(ctx context.Context, mode mistctl.Mode) error
}

// ConfigRecordRepo persists the encoded configuration overlay as a framed
// record (u16 big-endian length + payload) in NV storage.
type ConfigRecordRepo interface {
	// Load returns the stored payload; ok is false when the length field
	// holds the erased sentinel.
	Load(ctx context.Context) (payload []byte, ok bool, err error)
	Store(ctx context.Context, payload []byte) error
	Erase(ctx context.Context) error
}

// EventRepo is the append-only appliance log.
type EventRepo interface {
	Append(ctx context.Context, e mistctl.Event) error
	List(ctx context.Context, from, to time.Time, typ string) ([]mistctl.Event, error)
}

type Repository struct {
	Mode      ModeRepo
	ConfigRec ConfigRecordRepo
	Events    EventRepo
}

func NewRepository(nv *nvram.Device, db *sql.DB) *Repository {
	return &Repository{
		Mode:      NewModeNVRAM(nv),
		ConfigRec: NewConfigRecordNVRAM(nv),
		Events:    NewEventSQLite(db),
	}
}
