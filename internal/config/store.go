package config

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"mistctl"
	"mistctl/internal/bus"
	"mistctl/internal/logger"
	"mistctl/internal/repository"
)

// Store holds the authoritative configuration snapshot. Readers get a cheap
// handle to a fixed snapshot via Current; Apply and Reset persist first and
// then swap the whole snapshot under the write lock, so no reader ever
// observes a half-updated configuration. Every successful replacement
// publishes a chip reset so all tasks reinitialize from fresh config.
type Store struct {
	rec    repository.ConfigRecordRepo
	chip   *bus.Bus[mistctl.ChipAction]
	events repository.EventRepo
	log    *logger.Logger

	mu      sync.RWMutex
	cur     *Instance
	overlay Overlay
}

// NewStore wires the store to its record and the chip-action bus. events may
// be nil; the store then runs without an audit log.
func NewStore(rec repository.ConfigRecordRepo, chip *bus.Bus[mistctl.ChipAction], events repository.EventRepo, log *logger.Logger) *Store {
	return &Store{rec: rec, chip: chip, events: events, log: log, cur: Default()}
}

// Load restores the persisted overlay at boot. A corrupt or undecodable
// record is proactively erased so the device cannot get stuck replaying bad
// data; the store then runs on defaults.
func (s *Store) Load(ctx context.Context) error {
	payload, present, err := s.rec.Load(ctx)
	if err != nil {
		s.log.Warnw("config record unreadable, reverting to defaults", "err", err)
		return s.eraseToDefaults(ctx)
	}
	if !present {
		return nil
	}

	var o Overlay
	if err := json.Unmarshal(payload, &o); err != nil {
		s.log.Warnw("config record undecodable, reverting to defaults", "err", err)
		return s.eraseToDefaults(ctx)
	}
	inst := Default()
	if err := o.Apply(inst); err != nil {
		s.log.Warnw("persisted config overlay invalid, reverting to defaults", "err", err)
		return s.eraseToDefaults(ctx)
	}

	s.mu.Lock()
	s.cur = inst
	s.overlay = o
	s.mu.Unlock()
	return nil
}

func (s *Store) eraseToDefaults(ctx context.Context) error {
	if err := s.rec.Erase(ctx); err != nil {
		return fmt.Errorf("erase config record: %w", err)
	}
	s.mu.Lock()
	s.cur = Default()
	s.overlay = Overlay{}
	s.mu.Unlock()
	return nil
}

// Current returns the live snapshot.
func (s *Store) Current() *Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Overlay returns the explicitly-set fields of the live configuration.
func (s *Store) Overlay() Overlay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overlay
}

// Apply persists the overlay, then replaces the live snapshot and requests
// a deferred device reset. If the overlay turns out invalid the record is
// rolled back to the defaults sentinel and the live snapshot is left
// untouched. A persist failure (e.g. record too large) changes nothing.
func (s *Store) Apply(ctx context.Context, o Overlay) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode config overlay: %w", err)
	}
	if err := s.rec.Store(ctx, payload); err != nil {
		return fmt.Errorf("persist config overlay: %w", err)
	}

	inst := Default()
	if err := o.Apply(inst); err != nil {
		if rerr := s.rec.Erase(ctx); rerr != nil {
			s.log.Errorw("failed to roll back config record", "err", rerr)
		}
		return fmt.Errorf("apply config overlay: %w", err)
	}

	s.chip.Publish(mistctl.ChipActionReset)

	s.mu.Lock()
	s.cur = inst
	s.overlay = o
	s.mu.Unlock()

	s.log.Infow("configuration applied", "reset_wait_secs", inst.ResetWaitSecs)
	s.appendEvent(ctx, mistctl.EventConfigApply, "configuration overlay applied",
		map[string]any{"reset_wait_secs": inst.ResetWaitSecs})
	return nil
}

// Reset clears the persisted record, requests a reset and swaps in
// defaults.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.rec.Erase(ctx); err != nil {
		return fmt.Errorf("erase config record: %w", err)
	}
	s.chip.Publish(mistctl.ChipActionReset)

	s.mu.Lock()
	s.cur = Default()
	s.overlay = Overlay{}
	s.mu.Unlock()

	s.log.Infow("configuration reset to defaults")
	s.appendEvent(ctx, mistctl.EventConfigReset, "configuration reset to defaults", nil)
	return nil
}

func (s *Store) appendEvent(ctx context.Context, typ, desc string, meta any) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, mistctl.Event{Type: typ, Description: desc, Metadata: meta}); err != nil {
		s.log.Debugw("failed to append event", "type", typ, "err", err)
	}
}
