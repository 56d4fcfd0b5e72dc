package app

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"treecare/internal/advisor"
	"treecare/internal/config"
	"treecare/internal/storage"
)

func TestNew_WiresServices(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.HasLLM())
	assert.Nil(t, a.Clipper)

	guides, err := a.Guides.List(ctx)
	require.NoError(t, err)
	require.Len(t, guides, 3)

	started, err := a.Guides.Start(ctx, guides[0].ID)
	require.NoError(t, err)
	assert.True(t, started.UserProgress.IsStarted)

	trees, err := a.Catalog.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, trees)

	rec := httptest.NewRecorder()
	a.Collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `treecare_guide_transitions_total{kind="start"} 1`)
	assert.Contains(t, string(body), `treecare_slot_operations_total{op="put",result="ok",slot="planting_guides"}`)
}

func TestNew_AdvisorWithoutLLM(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()

	s, err := a.Advisor.NewSession(ctx, advisor.General)
	require.NoError(t, err)
	_, err = a.Advisor.Send(ctx, s.ID, "Is it too late to plant?", nil)
	assert.Error(t, err)
}

func TestNew_AdvisorRecordsUsage(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{reply: "Plant in early autumn."}
	a, err := New(ctx, testConfig(t), nil, WithLLM(client))
	require.NoError(t, err)

	s, err := a.Advisor.NewSession(ctx, advisor.Planting)
	require.NoError(t, err)
	reply, err := a.Advisor.Send(ctx, s.ID, "When should I plant a maple?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Plant in early autumn.", reply.Content)

	usage, err := a.Metrics.GetDailyUsage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, usage, 1)

	require.NoError(t, a.Close())
	assert.False(t, client.closed, "injected clients are owned by the caller")
}

func TestNew_WithSlotStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	a, err := New(ctx, testConfig(t), nil, WithSlotStore(store))
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Guides.List(ctx)
	require.NoError(t, err)

	_, err = store.Get(ctx, "planting_guides")
	assert.NoError(t, err)
}

func TestOpenSlotStore(t *testing.T) {
	ctx := context.Background()

	t.Run("File", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Storage.Driver = config.DriverFile
		cfg.Storage.FileDir = t.TempDir()
		s, closeFn, err := openSlotStore(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		assert.Nil(t, closeFn)
		assert.IsType(t, &storage.FileStore{}, s)
	})

	t.Run("SQLite", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Storage.Driver = config.DriverSQLite
		cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "slots.db")
		s, closeFn, err := openSlotStore(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		require.NotNil(t, closeFn)
		defer closeFn()
		assert.IsType(t, &storage.SQLStore{}, s)
	})

	t.Run("Unknown", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Storage.Driver = "floppy"
		_, _, err := openSlotStore(ctx, cfg, zap.NewNop())
		assert.Error(t, err)
	})
}
