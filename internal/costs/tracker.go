package costs

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"treecare/internal/storage"
)

const (
	expensesSlot = "expenses"
	budgetsSlot  = "budgets"
)

// Tracker owns the expense and budget collections.
type Tracker struct {
	expenses *storage.Collection[Expense]
	budgets  *storage.Collection[Budget]
	log      *zap.Logger
	newID    func() string
	now      func() time.Time
}

func NewTracker(store storage.SlotStore, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		expenses: storage.NewCollection[Expense](store, expensesSlot, log),
		budgets:  storage.NewCollection[Budget](store, budgetsSlot, log),
		log:      log,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// AddExpense stores e; a zero Date means now.
func (t *Tracker) AddExpense(ctx context.Context, e Expense) (Expense, error) {
	if strings.TrimSpace(e.Description) == "" {
		return Expense{}, fmt.Errorf("expense description required")
	}
	if e.Amount < 0 {
		return Expense{}, fmt.Errorf("expense amount must not be negative")
	}
	expenses, err := t.expenses.Load(ctx)
	if err != nil {
		return Expense{}, err
	}
	if e.ID == "" {
		e.ID = t.newID()
	}
	if e.Date.IsZero() {
		e.Date = t.now()
	}
	if e.Category == "" {
		e.Category = Other
	}
	expenses = append(expenses, e)
	if err := t.expenses.Save(ctx, expenses); err != nil {
		return Expense{}, err
	}
	return e, nil
}

func (t *Tracker) DeleteExpense(ctx context.Context, id string) error {
	expenses, err := t.expenses.Load(ctx)
	if err != nil {
		return err
	}
	n := len(expenses)
	expenses = slices.DeleteFunc(expenses, func(e Expense) bool { return e.ID == id })
	if len(expenses) == n {
		return fmt.Errorf("%w: %s", ErrExpenseNotFound, id)
	}
	return t.expenses.Save(ctx, expenses)
}

// ListExpenses returns expenses newest first.
func (t *Tracker) ListExpenses(ctx context.Context) ([]Expense, error) {
	expenses, err := t.expenses.Load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(expenses, func(i, j int) bool { return expenses[i].Date.After(expenses[j].Date) })
	return expenses, nil
}

// Summary totals all expenses, those in the calendar month of now, and per category.
func (t *Tracker) Summary(ctx context.Context, now time.Time) (Summary, error) {
	expenses, err := t.expenses.Load(ctx)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{ByCategory: map[Category]float64{}}
	year, month, _ := now.Date()
	for _, e := range expenses {
		s.Total += e.Amount
		s.ByCategory[e.Category] += e.Amount
		if y, m, _ := e.Date.In(now.Location()).Date(); y == year && m == month {
			s.ThisMonth += e.Amount
		}
	}
	return s, nil
}

func (t *Tracker) AddBudget(ctx context.Context, b Budget) (Budget, error) {
	if strings.TrimSpace(b.Name) == "" {
		return Budget{}, fmt.Errorf("budget name required")
	}
	if b.TotalBudget < 0 {
		return Budget{}, fmt.Errorf("budget total must not be negative")
	}
	if !b.EndDate.IsZero() && b.EndDate.Before(b.StartDate) {
		return Budget{}, fmt.Errorf("budget ends before it starts")
	}
	budgets, err := t.budgets.Load(ctx)
	if err != nil {
		return Budget{}, err
	}
	if b.ID == "" {
		b.ID = t.newID()
	}
	if b.Alerts == nil {
		b.Alerts = []BudgetAlert{}
	}
	for i := range b.Alerts {
		if b.Alerts[i].ID == "" {
			b.Alerts[i].ID = t.newID()
		}
	}
	budgets = append(budgets, b)
	if err := t.budgets.Save(ctx, budgets); err != nil {
		return Budget{}, err
	}
	return b, nil
}

func (t *Tracker) ListBudgets(ctx context.Context) ([]Budget, error) {
	return t.budgets.Load(ctx)
}

// RecordSpend adds amount to a budget and returns the alerts that fired
// because of it. Each alert fires at most once.
func (t *Tracker) RecordSpend(ctx context.Context, budgetID string, amount float64) (Budget, []BudgetAlert, error) {
	budgets, err := t.budgets.Load(ctx)
	if err != nil {
		return Budget{}, nil, err
	}
	i := slices.IndexFunc(budgets, func(b Budget) bool { return b.ID == budgetID })
	if i < 0 {
		return Budget{}, nil, fmt.Errorf("%w: %s", ErrBudgetNotFound, budgetID)
	}

	b := &budgets[i]
	b.Spent += amount
	now := t.now()
	var fired []BudgetAlert
	for j := range b.Alerts {
		a := &b.Alerts[j]
		if a.IsTriggered || b.PercentageUsed() < a.Threshold {
			continue
		}
		a.IsTriggered = true
		a.TriggerDate = &now
		fired = append(fired, *a)
		t.log.Info("budget alert triggered",
			zap.String("budget", b.Name),
			zap.Float64("threshold", a.Threshold),
			zap.Float64("used_pct", b.PercentageUsed()),
		)
	}

	if err := t.budgets.Save(ctx, budgets); err != nil {
		return Budget{}, nil, err
	}
	return *b, fired, nil
}
