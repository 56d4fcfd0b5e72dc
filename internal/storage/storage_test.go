package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// exerciseSlotStore runs the contract every backend must satisfy.
func exerciseSlotStore(t *testing.T, store SlotStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Get-Missing", func(t *testing.T) {
		_, err := store.Get(ctx, "missing_slot")
		assert.ErrorIs(t, err, ErrSlotNotFound)
	})

	t.Run("Put-Get", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "planting_guides", []byte(`[{"id":"1"}]`)))
		data, err := store.Get(ctx, "planting_guides")
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"1"}]`, string(data))
	})

	t.Run("Put-Overwrites", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "planting_guides", []byte(`[]`)))
		data, err := store.Get(ctx, "planting_guides")
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "planting_guides"))
		_, err := store.Get(ctx, "planting_guides")
		assert.ErrorIs(t, err, ErrSlotNotFound)
		assert.NoError(t, store.Delete(ctx, "planting_guides"), "deleting a missing slot is not an error")
	})
}

func TestMemoryStore(t *testing.T) {
	exerciseSlotStore(t, NewMemoryStore())

	t.Run("ReturnsCopies", func(t *testing.T) {
		ctx := context.Background()
		store := NewMemoryStore()
		payload := []byte(`[1]`)
		require.NoError(t, store.Put(ctx, "s", payload))
		payload[1] = '2'

		got, err := store.Get(ctx, "s")
		require.NoError(t, err)
		assert.Equal(t, "[1]", string(got))
	})
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	exerciseSlotStore(t, store)

	t.Run("WritesJSONFile", func(t *testing.T) {
		require.NoError(t, store.Put(context.Background(), "tools", []byte(`[]`)))
		_, err := os.Stat(filepath.Join(dir, "tools.json"))
		assert.NoError(t, err)
	})

	t.Run("RejectsTraversal", func(t *testing.T) {
		err := store.Put(context.Background(), "../escape", []byte(`[]`))
		assert.Error(t, err)
		_, err = store.Get(context.Background(), "a/b")
		assert.Error(t, err)
	})
}

func TestCollection(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingSlotLoadsEmpty", func(t *testing.T) {
		c := NewCollection[record](NewMemoryStore(), "records", nil)
		got, err := c.Load(ctx)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("SaveLoad", func(t *testing.T) {
		c := NewCollection[record](NewMemoryStore(), "records", nil)
		want := []record{{ID: "a", Title: "Oak"}, {ID: "b", Title: "Pine"}}
		require.NoError(t, c.Save(ctx, want))

		got, err := c.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("SaveNilWritesEmptyArray", func(t *testing.T) {
		store := NewMemoryStore()
		c := NewCollection[record](store, "records", nil)
		require.NoError(t, c.Save(ctx, nil))

		data, err := store.Get(ctx, "records")
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})

	t.Run("CorruptSlot", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Put(ctx, "records", []byte("{not json")))
		c := NewCollection[record](store, "records", nil)

		_, err := c.Load(ctx)
		assert.ErrorIs(t, err, ErrCorruptState)

		assert.Empty(t, c.LoadOrEmpty(ctx), "fail-soft helper degrades to empty")
	})

	t.Run("BackendError", func(t *testing.T) {
		c := NewCollection[record](failingStore{}, "records", nil)
		_, err := c.Load(ctx)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCorruptState)

		assert.Error(t, c.Save(ctx, []record{{ID: "x"}}))
	})
}

func TestFlag(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	f := NewFlag(store, "seeded")

	set, err := f.IsSet(ctx)
	require.NoError(t, err)
	assert.False(t, set)

	require.NoError(t, f.Set(ctx, time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)))

	set, err = f.IsSet(ctx)
	require.NoError(t, err)
	assert.True(t, set)
}

type failingStore struct{}

var errBackend = errors.New("disk on fire")

func (failingStore) Get(context.Context, string) ([]byte, error)  { return nil, errBackend }
func (failingStore) Put(context.Context, string, []byte) error     { return errBackend }
func (failingStore) Delete(context.Context, string) error          { return errBackend }
