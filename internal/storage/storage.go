// Package storage persists named collections of records ("slots") behind a
// small port so repositories never touch a concrete backend.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrSlotNotFound is returned by a SlotStore when nothing was ever written to a slot.
	ErrSlotNotFound = errors.New("slot not found")
	// ErrCorruptState is returned when a slot holds bytes that cannot be decoded.
	ErrCorruptState = errors.New("corrupt state")
)

// SlotStore reads and overwrites opaque payloads under string keys.
// Implementations: MemoryStore, FileStore, SQLStore, S3Store.
type SlotStore interface {
	Get(ctx context.Context, slot string) ([]byte, error)
	Put(ctx context.Context, slot string, data []byte) error
	Delete(ctx context.Context, slot string) error
}
