// Package materials estimates the supplies a planting project needs.
package materials

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"treecare/internal/storage"
)

const calculationsSlot = "material_calculations"

type Unit string

const (
	Bags       Unit = "Bags"
	CubicYards Unit = "Cubic Yards"
	Pieces     Unit = "Pieces"
)

// Unit prices in dollars.
const (
	compostPrice = 15.99
	mulchPrice   = 3.50
	stakePrice   = 4.99
	tiePrice     = 2.49
)

const (
	defaultTreeCount = 1
	defaultSpacing   = 20.0
	defaultArea      = 100.0
)

type Input struct {
	ProjectName string
	TreeCount   int
	Spacing     float64 // feet between trees
	Area        float64 // square feet
}

type CalculatedMaterial struct {
	MaterialName   string  `json:"materialName"`
	QuantityNeeded float64 `json:"quantityNeeded"`
	Cost           float64 `json:"cost"`
	Unit           Unit    `json:"unit"`
}

type Calculation struct {
	ID                  string               `json:"id"`
	ProjectName         string               `json:"projectName"`
	TreeCount           int                  `json:"treeCount"`
	Spacing             float64              `json:"spacing"`
	Area                float64              `json:"area"`
	CalculatedMaterials []CalculatedMaterial `json:"calculatedMaterials"`
	TotalCost           float64              `json:"totalCost"`
	CalculationDate     time.Time            `json:"calculationDate"`
	Notes               string               `json:"notes"`
}

// ParseInput reads raw form values, falling back to defaults for
// anything that does not parse.
func ParseInput(projectName, treeCount, spacing, area string) Input {
	in := Input{
		ProjectName: strings.TrimSpace(projectName),
		TreeCount:   defaultTreeCount,
		Spacing:     defaultSpacing,
		Area:        defaultArea,
	}
	if n, err := strconv.Atoi(strings.TrimSpace(treeCount)); err == nil {
		in.TreeCount = n
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(spacing), 64); err == nil {
		in.Spacing = f
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(area), 64); err == nil {
		in.Area = f
	}
	return in
}

// Calculate is pure: compost, stakes and ties scale with the tree count,
// mulch with the area.
func Calculate(in Input, now time.Time) Calculation {
	trees := float64(in.TreeCount)
	mulchYards := in.Area * 0.1

	items := []CalculatedMaterial{
		{MaterialName: "Organic Compost", QuantityNeeded: trees * 2, Cost: trees * 2 * compostPrice, Unit: Bags},
		{MaterialName: "Mulch", QuantityNeeded: mulchYards, Cost: mulchYards * mulchPrice, Unit: CubicYards},
		{MaterialName: "Tree Stakes", QuantityNeeded: trees * 2, Cost: trees * 2 * stakePrice, Unit: Pieces},
		{MaterialName: "Tree Ties", QuantityNeeded: trees * 2, Cost: trees * 2 * tiePrice, Unit: Pieces},
	}

	var total float64
	for _, it := range items {
		total += it.Cost
	}

	return Calculation{
		ProjectName:         in.ProjectName,
		TreeCount:           in.TreeCount,
		Spacing:             in.Spacing,
		Area:                in.Area,
		CalculatedMaterials: items,
		TotalCost:           total,
		CalculationDate:     now,
	}
}

// Planner persists calculations.
type Planner struct {
	calcs *storage.Collection[Calculation]
	log   *zap.Logger
}

func NewPlanner(store storage.SlotStore, log *zap.Logger) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Planner{
		calcs: storage.NewCollection[Calculation](store, calculationsSlot, log),
		log:   log,
	}
}

func (p *Planner) Save(ctx context.Context, c Calculation) (Calculation, error) {
	calcs, err := p.calcs.Load(ctx)
	if err != nil {
		return Calculation{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	calcs = append(calcs, c)
	if err := p.calcs.Save(ctx, calcs); err != nil {
		return Calculation{}, err
	}
	p.log.Debug("saved material calculation",
		zap.String("project", c.ProjectName),
		zap.Float64("total_cost", c.TotalCost),
	)
	return c, nil
}

// List returns saved calculations, newest first.
func (p *Planner) List(ctx context.Context) ([]Calculation, error) {
	calcs, err := p.calcs.Load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(calcs, func(i, j int) bool {
		return calcs[i].CalculationDate.After(calcs[j].CalculationDate)
	})
	return calcs, nil
}
