// Package inventory keeps the user's tree-care tools and their maintenance log.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"treecare/internal/shared"
	"treecare/internal/storage"
)

const toolsSlot = "tools"

var ErrNotFound = errors.New("tool not found")

type Category string

const (
	Digging     Category = "Digging"
	Cutting     Category = "Cutting"
	Watering    Category = "Watering"
	Measuring   Category = "Measuring"
	Protection  Category = "Protection"
	Maintenance Category = "Maintenance"
	Planting    Category = "Planting"
)

var Categories = []Category{Digging, Cutting, Watering, Measuring, Protection, Maintenance, Planting}

type Condition string

const (
	Excellent   Condition = "Excellent"
	Good        Condition = "Good"
	Fair        Condition = "Fair"
	Poor        Condition = "Poor"
	NeedsRepair Condition = "Needs Repair"
)

var Conditions = []Condition{Excellent, Good, Fair, Poor, NeedsRepair}

type MaintenanceType string

const (
	Cleaning    MaintenanceType = "Cleaning"
	Sharpening  MaintenanceType = "Sharpening"
	Repair      MaintenanceType = "Repair"
	Replacement MaintenanceType = "Replacement"
	Oiling      MaintenanceType = "Oiling"
)

var MaintenanceTypes = []MaintenanceType{Cleaning, Sharpening, Repair, Replacement, Oiling}

func ParseCategory(s string) (Category, error) { return shared.ParseEnum(s, Categories, "tool category") }
func ParseCondition(s string) (Condition, error) { return shared.ParseEnum(s, Conditions, "condition") }
func ParseMaintenanceType(s string) (MaintenanceType, error) {
	return shared.ParseEnum(s, MaintenanceTypes, "maintenance type")
}

type Tool struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Category            Category            `json:"category"`
	Brand               string              `json:"brand"`
	PurchaseDate        time.Time           `json:"purchaseDate"`
	Price               float64             `json:"price"`
	Condition           Condition           `json:"condition"`
	Location            string              `json:"location"`
	Notes               string              `json:"notes"`
	IsAvailable         bool                `json:"isAvailable"`
	MaintenanceSchedule []MaintenanceRecord `json:"maintenanceSchedule"`
}

type MaintenanceRecord struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Type        MaintenanceType `json:"type"`
	Description string          `json:"description"`
	Cost        float64         `json:"cost"`
}

// Inventory is the tool collection. Not safe for concurrent mutation.
type Inventory struct {
	tools *storage.Collection[Tool]
	log   *zap.Logger
	newID func() string
}

func New(store storage.SlotStore, log *zap.Logger) *Inventory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Inventory{
		tools: storage.NewCollection[Tool](store, toolsSlot, log),
		log:   log,
		newID: uuid.NewString,
	}
}

func (inv *Inventory) List(ctx context.Context) ([]Tool, error) {
	return inv.tools.Load(ctx)
}

func (inv *Inventory) Get(ctx context.Context, id string) (Tool, error) {
	tools, err := inv.tools.Load(ctx)
	if err != nil {
		return Tool{}, err
	}
	if i := indexOf(tools, id); i >= 0 {
		return tools[i], nil
	}
	return Tool{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Add stores a new tool. New tools are available unless the caller says otherwise
// through Update.
func (inv *Inventory) Add(ctx context.Context, t Tool) (Tool, error) {
	if strings.TrimSpace(t.Name) == "" {
		return Tool{}, fmt.Errorf("tool name required")
	}
	tools, err := inv.tools.Load(ctx)
	if err != nil {
		return Tool{}, err
	}
	if t.ID == "" {
		t.ID = inv.newID()
	}
	if t.MaintenanceSchedule == nil {
		t.MaintenanceSchedule = []MaintenanceRecord{}
	}
	t.IsAvailable = true
	tools = append(tools, t)
	if err := inv.tools.Save(ctx, tools); err != nil {
		return Tool{}, err
	}
	inv.log.Debug("tool added", zap.String("tool_id", t.ID), zap.String("name", t.Name))
	return t, nil
}

// Update replaces a known tool.
func (inv *Inventory) Update(ctx context.Context, t Tool) error {
	tools, err := inv.tools.Load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(tools, t.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, t.ID)
	}
	tools[i] = t
	return inv.tools.Save(ctx, tools)
}

func (inv *Inventory) Delete(ctx context.Context, id string) error {
	tools, err := inv.tools.Load(ctx)
	if err != nil {
		return err
	}
	return inv.tools.Save(ctx, slices.DeleteFunc(tools, func(t Tool) bool { return t.ID == id }))
}

// Filter matches search against name or brand, ignoring case; empty
// arguments match everything.
func (inv *Inventory) Filter(ctx context.Context, search string, category Category) ([]Tool, error) {
	tools, err := inv.tools.Load(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(search)
	out := []Tool{}
	for _, t := range tools {
		if q != "" && !strings.Contains(strings.ToLower(t.Name), q) && !strings.Contains(strings.ToLower(t.Brand), q) {
			continue
		}
		if category != "" && t.Category != category {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// AddMaintenance appends a maintenance record to a tool.
func (inv *Inventory) AddMaintenance(ctx context.Context, toolID string, rec MaintenanceRecord) (Tool, error) {
	t, err := inv.Get(ctx, toolID)
	if err != nil {
		return Tool{}, err
	}
	if rec.ID == "" {
		rec.ID = inv.newID()
	}
	t.MaintenanceSchedule = append(t.MaintenanceSchedule, rec)
	if err := inv.Update(ctx, t); err != nil {
		return Tool{}, err
	}
	return t, nil
}

// MaintenanceCost sums every maintenance record of a tool.
func (inv *Inventory) MaintenanceCost(ctx context.Context, toolID string) (float64, error) {
	t, err := inv.Get(ctx, toolID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, r := range t.MaintenanceSchedule {
		total += r.Cost
	}
	return total, nil
}

func indexOf(tools []Tool, id string) int {
	return slices.IndexFunc(tools, func(t Tool) bool { return t.ID == id })
}
