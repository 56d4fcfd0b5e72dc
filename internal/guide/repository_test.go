package guide

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treecare/internal/storage"
)

func newTestRepository(store storage.SlotStore) *Repository {
	return NewRepository(store, nil,
		WithRepositoryClock(func() time.Time { return t0 }),
		WithIDGenerator(sequentialIDs()),
	)
}

func TestRepository_SeedsOnce(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := newTestRepository(store)

	first, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, second, 3)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}

	// A fresh repository over the same store must not reseed either.
	third, err := NewRepository(store, nil).GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, third[0].ID)
}

func TestRepository_ConcurrentFirstRunSeedsOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(slowStore{SlotStore: storage.NewMemoryStore(), delay: 2 * time.Millisecond}, nil)

	const readers = 4
	ids := make([]string, readers)
	var wg sync.WaitGroup
	for i := range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			guides, err := repo.GetAll(ctx)
			if assert.NoError(t, err) && assert.Len(t, guides, 3) {
				ids[i] = guides[0].ID
			}
		}()
	}
	wg.Wait()

	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}
	stored, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
	assert.Equal(t, ids[0], stored[0].ID)
}

func TestRepository_EmptiedCollectionIsNotReseeded(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := newTestRepository(store)

	_, err := repo.GetAll(ctx)
	require.NoError(t, err)

	require.NoError(t, storage.NewCollection[Guide](store, guidesSlot, nil).Save(ctx, nil))

	guides, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, guides)
}

func TestRepository_LegacyDataWithoutFlag(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	legacy := []Guide{{ID: "legacy", Title: "Old", UserProgress: NewUserProgress()}}
	require.NoError(t, storage.NewCollection[Guide](store, guidesSlot, nil).Save(ctx, legacy))

	guides, err := newTestRepository(store).GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, guides, 1)
	assert.Equal(t, "legacy", guides[0].ID)

	set, err := storage.NewFlag(store, initializedSlot).IsSet(ctx)
	require.NoError(t, err)
	assert.True(t, set)
}

func TestRepository_SaveGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(storage.NewMemoryStore())

	g := Start(Guide{
		ID:                "custom",
		Title:             "Espalier Apple",
		TreeType:          "Fruit",
		Difficulty:        Expert,
		EstimatedTime:     "2 days",
		Steps:             []Step{{ID: "s1", StepNumber: 1, Title: "Wire"}, {ID: "s2", StepNumber: 2, Title: "Tie"}},
		RequiredTools:     []string{"Pliers"},
		RequiredMaterials: []string{"Wire"},
		Tips:              []string{"Be patient"},
		UserProgress:      NewUserProgress(),
	}, t0)
	g, err := CompleteStep(g, 1, "done", t0.Add(time.Minute))
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, g))

	got, err := repo.GetByID(ctx, "custom")
	require.NoError(t, err)
	if diff := cmp.Diff(g, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4, "save appends after the seeded guides")

	g.Title = "Espalier Pear"
	require.NoError(t, repo.Save(ctx, g))
	all, err = repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4, "save replaces by id")
}

func TestRepository_GetByIDNotFound(t *testing.T) {
	_, err := newTestRepository(storage.NewMemoryStore()).GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_Filters(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(storage.NewMemoryStore())

	beginner, err := repo.GetByDifficulty(ctx, Beginner)
	require.NoError(t, err)
	require.Len(t, beginner, 1)
	assert.Equal(t, "Container", beginner[0].TreeType)

	expert, err := repo.GetByDifficulty(ctx, Expert)
	require.NoError(t, err)
	assert.Empty(t, expert)

	bare, err := repo.GetByTreeType(ctx, "bare")
	require.NoError(t, err)
	require.Len(t, bare, 1)
	assert.Equal(t, "Bare Root Tree Planting", bare[0].Title)

	all, err := repo.GetByTreeType(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRepository_UpdateProgressUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := newTestRepository(store)

	_, err := repo.GetAll(ctx)
	require.NoError(t, err)
	before, err := store.Get(ctx, guidesSlot)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateProgress(ctx, Guide{ID: "ghost", Title: "Ghost"}))

	_, err = repo.GetByID(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	after, err := store.Get(ctx, guidesSlot)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestRepository_MarkStepCompletedKeepsGuideInSync(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(storage.NewMemoryStore())

	guides, err := repo.GetAll(ctx)
	require.NoError(t, err)
	id := guides[1].ID // Container, 5 steps

	require.NoError(t, repo.MarkStepCompleted(ctx, id, 3))

	g, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	step, _ := g.Step(3)
	assert.True(t, step.IsCompleted)
	assert.Equal(t, []int{3}, g.UserProgress.CompletedSteps)
	assert.Equal(t, 2, g.UserProgress.CurrentStep)

	assert.ErrorIs(t, repo.MarkStepCompleted(ctx, id, 42), ErrUnknownStep)
	assert.ErrorIs(t, repo.MarkStepCompleted(ctx, "nope", 1), ErrNotFound)
}

func TestRepository_ResetProgress(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(storage.NewMemoryStore())

	guides, err := repo.GetAll(ctx)
	require.NoError(t, err)
	g := Start(guides[0], t0)
	g, err = CompleteStep(g, 1, "n", t0)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateProgress(ctx, g))

	require.NoError(t, repo.ResetProgress(ctx, g.ID))

	got, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, got.UserProgress.IsStarted)
	assert.Empty(t, got.UserProgress.CompletedSteps)
	assert.Empty(t, got.Steps[0].Notes)
}

func TestRepository_CorruptSlot(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(ctx, guidesSlot, []byte(`{"oops":`)))

	_, err := newTestRepository(store).GetAll(ctx)
	assert.ErrorIs(t, err, storage.ErrCorruptState)
}

func TestGuideJSONFieldNames(t *testing.T) {
	g := Start(generalGuide(t), t0)
	data, err := json.Marshal(g)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"id", "title", "treeType", "difficulty", "estimatedTime", "steps", "requiredTools", "requiredMaterials", "tips", "userProgress"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, "Intermediate", raw["difficulty"])

	progress := raw["userProgress"].(map[string]any)
	for _, key := range []string{"isStarted", "startDate", "currentStep", "completedSteps", "totalTimeSpent", "isCompleted"} {
		assert.Contains(t, progress, key)
	}
	assert.NotContains(t, progress, "completionDate", "unset dates are omitted")

	step := raw["steps"].([]any)[0].(map[string]any)
	for _, key := range []string{"id", "stepNumber", "title", "description", "iconName", "estimatedTime", "isCompleted", "notes"} {
		assert.Contains(t, step, key)
	}
}
