// Package history is the planting journal: which trees went in the ground,
// how they are doing, and the achievements that follow from it.
package history

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"treecare/internal/shared"
	"treecare/internal/storage"
)

const recordsSlot = "planting_history"

// SuccessThreshold is the success rate from which a planting counts as a
// tree successfully grown.
const SuccessThreshold = 0.8

var ErrRecordNotFound = errors.New("planting record not found")

type Health string

const (
	Excellent Health = "Excellent"
	Good      Health = "Good"
	Fair      Health = "Fair"
	Poor      Health = "Poor"
	Critical  Health = "Critical"
)

var Healths = []Health{Excellent, Good, Fair, Poor, Critical}

func ParseHealth(s string) (Health, error) {
	return shared.ParseEnum(s, Healths, "health status")
}

// Record is one tree planted by the user.
type Record struct {
	ID           string      `json:"id"`
	TreeID       string      `json:"treeId,omitempty"`
	TreeName     string      `json:"treeName"`
	PlantingDate time.Time   `json:"plantingDate"`
	Location     string      `json:"location"`
	SuccessRate  float64     `json:"successRate"` // 0 to 1
	Notes        string      `json:"notes"`
	Milestones   []Milestone `json:"milestones"`
}

type Milestone struct {
	ID     string    `json:"id"`
	Date   time.Time `json:"date"`
	Height float64   `json:"height"`
	Health Health    `json:"health"`
	Notes  string    `json:"notes"`
}

// Totals summarizes the journal.
type Totals struct {
	TreesPlanted int
	Successful   int
	SuccessRate  float64 // mean over all records, 0 when empty
}

// Journal owns the planting history collection.
type Journal struct {
	records *storage.Collection[Record]
	log     *zap.Logger
	newID   func() string
	now     func() time.Time
}

func New(store storage.SlotStore, log *zap.Logger) *Journal {
	if log == nil {
		log = zap.NewNop()
	}
	return &Journal{
		records: storage.NewCollection[Record](store, recordsSlot, log),
		log:     log,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// Add records a planting; a zero PlantingDate means now.
func (j *Journal) Add(ctx context.Context, r Record) (Record, error) {
	if strings.TrimSpace(r.TreeName) == "" {
		return Record{}, fmt.Errorf("tree name required")
	}
	if r.SuccessRate < 0 || r.SuccessRate > 1 {
		return Record{}, fmt.Errorf("success rate must be between 0 and 1, got %g", r.SuccessRate)
	}
	if r.ID == "" {
		r.ID = j.newID()
	}
	if r.PlantingDate.IsZero() {
		r.PlantingDate = j.now()
	}
	if r.Milestones == nil {
		r.Milestones = []Milestone{}
	}
	records, err := j.records.Load(ctx)
	if err != nil {
		return Record{}, err
	}
	if err := j.records.Save(ctx, append(records, r)); err != nil {
		return Record{}, err
	}
	j.log.Info("planting recorded", zap.String("tree", r.TreeName), zap.String("record_id", r.ID))
	return r, nil
}

// Records returns the journal, most recent planting first.
func (j *Journal) Records(ctx context.Context) ([]Record, error) {
	records, err := j.records.Load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(a, b int) bool { return records[a].PlantingDate.After(records[b].PlantingDate) })
	return records, nil
}

// AddMilestone appends a growth observation to a record.
func (j *Journal) AddMilestone(ctx context.Context, recordID string, m Milestone) (Record, error) {
	records, err := j.records.Load(ctx)
	if err != nil {
		return Record{}, err
	}
	i := slices.IndexFunc(records, func(r Record) bool { return r.ID == recordID })
	if i < 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
	}
	if m.ID == "" {
		m.ID = j.newID()
	}
	if m.Date.IsZero() {
		m.Date = j.now()
	}
	if m.Health == "" {
		m.Health = Good
	}
	records[i].Milestones = append(records[i].Milestones, m)
	if err := j.records.Save(ctx, records); err != nil {
		return Record{}, err
	}
	return records[i], nil
}

func (j *Journal) Totals(ctx context.Context) (Totals, error) {
	records, err := j.records.Load(ctx)
	if err != nil {
		return Totals{}, err
	}
	t := Totals{TreesPlanted: len(records)}
	if len(records) == 0 {
		return t, nil
	}
	var sum float64
	for _, r := range records {
		sum += r.SuccessRate
		if r.SuccessRate >= SuccessThreshold {
			t.Successful++
		}
	}
	t.SuccessRate = sum / float64(len(records))
	return t, nil
}
