package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"treecare/internal/storage"
)

const (
	treesSlot       = "saved_trees"
	initializedSlot = "saved_trees_initialized"
)

// Catalog is the tree collection.
type Catalog struct {
	trees       *storage.Collection[Tree]
	initialized *storage.Flag
	log         *zap.Logger
	newID       func() string
	now         func() time.Time

	mu     sync.Mutex // guards Add, Update and Delete
	seedMu sync.Mutex
}

// New binds the catalog to store.
func New(store storage.SlotStore, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{
		trees:       storage.NewCollection[Tree](store, treesSlot, log),
		initialized: storage.NewFlag(store, initializedSlot),
		log:         log,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// List returns every tree, seeding the defaults on first run.
func (c *Catalog) List(ctx context.Context) ([]Tree, error) {
	trees, err := c.trees.Load(ctx)
	if err != nil {
		return nil, err
	}
	done, err := c.initialized.IsSet(ctx)
	if err != nil || done {
		return trees, err
	}

	c.seedMu.Lock()
	defer c.seedMu.Unlock()
	done, err = c.initialized.IsSet(ctx)
	if err != nil {
		return nil, err
	}
	if done {
		return c.trees.Load(ctx)
	}

	if len(trees) == 0 {
		trees = DefaultTrees(c.newID)
		if err := c.trees.Save(ctx, trees); err != nil {
			return nil, fmt.Errorf("seeding trees: %w", err)
		}
		c.log.Info("seeded default trees", zap.Int("count", len(trees)))
	}
	return trees, c.initialized.Set(ctx, c.now())
}

func (c *Catalog) Get(ctx context.Context, id string) (Tree, error) {
	trees, err := c.List(ctx)
	if err != nil {
		return Tree{}, err
	}
	if i := indexOf(trees, id); i >= 0 {
		return trees[i], nil
	}
	return Tree{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Add appends t, assigning an id when it has none.
func (c *Catalog) Add(ctx context.Context, t Tree) (Tree, error) {
	if strings.TrimSpace(t.Name) == "" {
		return Tree{}, fmt.Errorf("tree name required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	trees, err := c.List(ctx)
	if err != nil {
		return Tree{}, err
	}
	if t.ID == "" {
		t.ID = c.newID()
	}
	trees = append(trees, t)
	if err := c.trees.Save(ctx, trees); err != nil {
		return Tree{}, err
	}
	return t, nil
}

// Update replaces a known tree; unknown ids return ErrNotFound.
func (c *Catalog) Update(ctx context.Context, t Tree) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	trees, err := c.List(ctx)
	if err != nil {
		return err
	}
	i := indexOf(trees, t.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, t.ID)
	}
	trees[i] = t
	return c.trees.Save(ctx, trees)
}

// Delete removes a tree; deleting an unknown id is not an error.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	trees, err := c.List(ctx)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(trees, func(t Tree) bool { return t.ID == id })
	return c.trees.Save(ctx, kept)
}

// Search matches query against name, scientific name and description, ignoring
// case. Empty query, category or environment match everything.
func (c *Catalog) Search(ctx context.Context, query string, category Category, env Environment) ([]Tree, error) {
	trees, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	out := []Tree{}
	for _, t := range trees {
		if q != "" &&
			!strings.Contains(strings.ToLower(t.Name), q) &&
			!strings.Contains(strings.ToLower(t.ScientificName), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			continue
		}
		if category != "" && t.Category != category {
			continue
		}
		if env != "" && t.Environment != env {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// PlantableIn lists trees that can be planted in month (1-12).
func (c *Catalog) PlantableIn(ctx context.Context, month int) ([]Tree, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("month out of range: %d", month)
	}
	trees, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []Tree{}
	for _, t := range trees {
		if t.PlantableIn(month) {
			out = append(out, t)
		}
	}
	return out, nil
}

func indexOf(trees []Tree, id string) int {
	return slices.IndexFunc(trees, func(t Tree) bool { return t.ID == id })
}
