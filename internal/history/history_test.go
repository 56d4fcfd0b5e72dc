package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treecare/internal/storage"
)

func TestJournal(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	j := New(storage.NewMemoryStore(), nil)
	j.now = func() time.Time { return now }

	totals, err := j.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, Totals{}, totals)

	oak, err := j.Add(ctx, Record{TreeName: "Red Oak", PlantingDate: now.AddDate(0, 0, -30), Location: "Backyard", SuccessRate: 1})
	require.NoError(t, err)
	_, err = j.Add(ctx, Record{TreeName: "Japanese Maple", PlantingDate: now.AddDate(0, 0, -60), SuccessRate: 0.9})
	require.NoError(t, err)
	apple, err := j.Add(ctx, Record{TreeName: "Apple Tree", SuccessRate: 0.5})
	require.NoError(t, err)
	assert.True(t, apple.PlantingDate.Equal(now))

	records, err := j.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Apple Tree", records[0].TreeName)
	assert.Equal(t, "Japanese Maple", records[2].TreeName)

	totals, err = j.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, totals.TreesPlanted)
	assert.Equal(t, 2, totals.Successful)
	assert.InDelta(t, 0.8, totals.SuccessRate, 1e-9)

	updated, err := j.AddMilestone(ctx, oak.ID, Milestone{Height: 1.4, Notes: "first new leaves"})
	require.NoError(t, err)
	require.Len(t, updated.Milestones, 1)
	assert.Equal(t, Good, updated.Milestones[0].Health)
	assert.True(t, updated.Milestones[0].Date.Equal(now))

	_, err = j.AddMilestone(ctx, "missing", Milestone{})
	assert.ErrorIs(t, err, ErrRecordNotFound)
	_, err = j.Add(ctx, Record{TreeName: "Pine", SuccessRate: 1.5})
	assert.Error(t, err)
	_, err = j.Add(ctx, Record{TreeName: " "})
	assert.Error(t, err)
}

func TestAchievements(t *testing.T) {
	all := Achievements(Stats{TreesPlanted: 2, TreesGrown: 2, GuidesCompleted: 0, AdviceQuestions: 12})
	require.Len(t, all, 4)

	byTitle := map[string]Achievement{}
	for _, a := range all {
		byTitle[a.Title] = a
	}
	assert.True(t, byTitle["First Planting"].IsUnlocked)
	assert.InDelta(t, 2.0/3.0, byTitle["Green Thumb"].Progress, 1e-9)
	assert.False(t, byTitle["Green Thumb"].IsUnlocked)
	assert.Equal(t, 0.0, byTitle["Guide Graduate"].Progress)
	assert.Equal(t, 1.0, byTitle["Researcher"].Progress, "progress is capped")

	var unlocked []string
	for _, a := range Unlocked(all) {
		unlocked = append(unlocked, a.Title)
	}
	assert.Equal(t, []string{"First Planting", "Researcher"}, unlocked)

	inProgress := InProgress(all)
	require.Len(t, inProgress, 1)
	assert.Equal(t, "Green Thumb", inProgress[0].Title)
}
