package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Collection is a homogeneous list of records serialized as one JSON array
// under a single slot. Every write replaces the whole slot.
type Collection[T any] struct {
	store SlotStore
	slot  string
	log   *zap.Logger
}

// NewCollection binds a typed collection to a slot.
func NewCollection[T any](store SlotStore, slot string, log *zap.Logger) *Collection[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collection[T]{store: store, slot: slot, log: log}
}

// Load decodes the slot. A slot that was never written yields an empty
// slice; undecodable bytes yield an error wrapping ErrCorruptState.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	data, err := c.store.Get(ctx, c.slot)
	if errors.Is(err, ErrSlotNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %s: %w", c.slot, err)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: slot %s: %v", ErrCorruptState, c.slot, err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// LoadOrEmpty is the fail-soft variant of Load for call sites that treat the
// slot as a re-derivable cache: any failure is logged and yields an empty slice.
func (c *Collection[T]) LoadOrEmpty(ctx context.Context) []T {
	records, err := c.Load(ctx)
	if err != nil {
		c.log.Warn("treating slot as empty", zap.String("slot", c.slot), zap.Error(err))
		return []T{}
	}
	return records
}

// Save encodes records and overwrites the slot.
func (c *Collection[T]) Save(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode slot %s: %w", c.slot, err)
	}
	if err := c.store.Put(ctx, c.slot, data); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", c.slot, err)
	}
	c.log.Debug("slot saved", zap.String("slot", c.slot), zap.Int("records", len(records)))
	return nil
}

// Flag is a one-shot marker slot, e.g. "defaults have been seeded".
type Flag struct {
	store SlotStore
	slot  string
}

type flagPayload struct {
	SetAt time.Time `json:"setAt"`
}

// NewFlag binds a marker to a slot.
func NewFlag(store SlotStore, slot string) *Flag {
	return &Flag{store: store, slot: slot}
}

// IsSet reports whether the marker has been written.
func (f *Flag) IsSet(ctx context.Context) (bool, error) {
	_, err := f.store.Get(ctx, f.slot)
	if errors.Is(err, ErrSlotNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read flag %s: %w", f.slot, err)
	}
	return true, nil
}

// Set writes the marker with the given timestamp.
func (f *Flag) Set(ctx context.Context, at time.Time) error {
	data, err := json.Marshal(flagPayload{SetAt: at.UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode flag %s: %w", f.slot, err)
	}
	if err := f.store.Put(ctx, f.slot, data); err != nil {
		return fmt.Errorf("failed to write flag %s: %w", f.slot, err)
	}
	return nil
}
