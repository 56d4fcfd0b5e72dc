package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treecare/internal/database"
	"treecare/internal/shared"
	"treecare/internal/storage"
)

func newTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewStore(db.SQL)
	s.now = func() time.Time { return now }
	return s
}

func TestStore_DailyUsage(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "advisor", Model: "m", PromptTokens: 100, CompletionTokens: 20, Timestamp: now}))
	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "advisor", Model: "m", PromptTokens: 50, CompletionTokens: 5, Timestamp: now.Add(-time.Hour)}))
	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "clipper", Model: "m", PromptTokens: 10, CompletionTokens: 1, Timestamp: now.AddDate(0, 0, -1)}))
	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "old", Model: "m", PromptTokens: 999, Timestamp: now.AddDate(0, 0, -30)}))

	usage, err := s.GetDailyUsage(ctx, 7)
	require.NoError(t, err)
	require.Len(t, usage, 2)

	assert.Equal(t, DailyUsage{Date: "2026-05-10", TotalPrompt: 150, TotalCompletion: 25, TotalExecution: 2}, usage[0])
	assert.Equal(t, DailyUsage{Date: "2026-05-09", TotalPrompt: 10, TotalCompletion: 1, TotalExecution: 1}, usage[1])
}

func TestStore_Cleanup(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "a", Model: "m", PromptTokens: 1, Timestamp: now.AddDate(0, 0, -40)}))
	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "b", Model: "m", PromptTokens: 1, Timestamp: now.AddDate(0, 0, -31)}))
	require.NoError(t, s.Record(ctx, ExecutionMetric{AgentName: "c", Model: "m", PromptTokens: 1, Timestamp: now}))

	removed, err := s.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
}

func TestStore_RecordMetaSkipsEmptyUsage(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	require.NoError(t, s.RecordMeta(ctx, shared.AgentMeta{AgentName: "advisor"}))
	require.NoError(t, s.RecordMeta(ctx, shared.AgentMeta{
		AgentName: "advisor",
		Usage:     shared.TokenUsage{PromptTokens: 12, CompletionTokens: 3, Model: "gpt"},
		Latency:   250 * time.Millisecond,
	}))

	usage, err := s.GetDailyUsage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 1, usage[0].TotalExecution)
	assert.Equal(t, 12, usage[0].TotalPrompt)
}

func TestMapUsage(t *testing.T) {
	m := MapUsage("clipper", shared.TokenUsage{PromptTokens: 7, CompletionTokens: 2, Model: "llama"}, 1500*time.Millisecond)
	assert.Equal(t, "clipper", m.AgentName)
	assert.Equal(t, "llama", m.Model)
	assert.Equal(t, int64(1500), m.LatencyMS)
}

func TestGetSysHealth(t *testing.T) {
	h := GetSysHealth(t.TempDir())
	assert.Positive(t, h.Goroutines)
	assert.Equal(t, "0 B", h.DataDiskSize)
}

func TestInstrumentSlots(t *testing.T) {
	ctx := context.Background()
	c := NewCollector()
	store := InstrumentSlots(storage.NewMemoryStore(), c)

	_, _ = store.Get(ctx, "tools")
	require.NoError(t, store.Put(ctx, "tools", []byte(`[]`)))
	_, err := store.Get(ctx, "tools")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.slotOps.WithLabelValues("tools", "get", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.slotOps.WithLabelValues("tools", "get", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.slotOps.WithLabelValues("tools", "put", "ok")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.GuideTransition("start")
	c.ObserveAdvisor(time.Second)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `treecare_guide_transitions_total{kind="start"} 1`))
	assert.Contains(t, body, "treecare_advisor_request_seconds_count 1")
}
