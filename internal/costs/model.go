// Package costs tracks planting expenses and budgets.
package costs

import (
	"errors"
	"time"

	"treecare/internal/shared"
)

var (
	ErrExpenseNotFound = errors.New("expense not found")
	ErrBudgetNotFound  = errors.New("budget not found")
)

type Category string

const (
	Trees          Category = "Trees"
	Tools          Category = "Tools"
	Materials      Category = "Materials"
	Labor          Category = "Labor"
	Permits        Category = "Permits"
	Transportation Category = "Transportation"
	Maintenance    Category = "Maintenance"
	Utilities      Category = "Utilities"
	Other          Category = "Other"
)

var Categories = []Category{Trees, Tools, Materials, Labor, Permits, Transportation, Maintenance, Utilities, Other}

type PaymentMethod string

const (
	Cash         PaymentMethod = "Cash"
	CreditCard   PaymentMethod = "Credit Card"
	DebitCard    PaymentMethod = "Debit Card"
	Check        PaymentMethod = "Check"
	BankTransfer PaymentMethod = "Bank Transfer"
	PayPal       PaymentMethod = "PayPal"
	PaymentOther PaymentMethod = "Other"
)

var PaymentMethods = []PaymentMethod{Cash, CreditCard, DebitCard, Check, BankTransfer, PayPal, PaymentOther}

type RecurringInterval string

const (
	Weekly    RecurringInterval = "Weekly"
	Monthly   RecurringInterval = "Monthly"
	Quarterly RecurringInterval = "Quarterly"
	Annually  RecurringInterval = "Annually"
)

func ParseCategory(s string) (Category, error) {
	return shared.ParseEnum(s, Categories, "expense category")
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	return shared.ParseEnum(s, PaymentMethods, "payment method")
}

type Expense struct {
	ID                string            `json:"id"`
	Description       string            `json:"description"`
	Amount            float64           `json:"amount"`
	Category          Category          `json:"category"`
	Date              time.Time         `json:"date"`
	ProjectID         string            `json:"projectId,omitempty"`
	ProjectName       string            `json:"projectName"`
	Vendor            string            `json:"vendor"`
	PaymentMethod     PaymentMethod     `json:"paymentMethod"`
	Receipt           string            `json:"receipt"`
	Notes             string            `json:"notes"`
	IsRecurring       bool              `json:"isRecurring"`
	RecurringInterval RecurringInterval `json:"recurringInterval,omitempty"`
}

type Budget struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	TotalBudget float64       `json:"totalBudget"`
	Spent       float64       `json:"spent"`
	Category    Category      `json:"category,omitempty"`
	StartDate   time.Time     `json:"startDate"`
	EndDate     time.Time     `json:"endDate"`
	ProjectID   string        `json:"projectId,omitempty"`
	Alerts      []BudgetAlert `json:"alerts"`
}

// BudgetAlert fires once when spending reaches Threshold percent.
type BudgetAlert struct {
	ID          string     `json:"id"`
	Threshold   float64    `json:"threshold"`
	Message     string     `json:"message"`
	IsTriggered bool       `json:"isTriggered"`
	TriggerDate *time.Time `json:"triggerDate,omitempty"`
}

func (b Budget) Remaining() float64 {
	return b.TotalBudget - b.Spent
}

// PercentageUsed is spent as a percentage of the total; 0 for a zero budget.
func (b Budget) PercentageUsed() float64 {
	if b.TotalBudget == 0 {
		return 0
	}
	return b.Spent / b.TotalBudget * 100
}

// Summary aggregates expenses.
type Summary struct {
	Total      float64
	ThisMonth  float64
	ByCategory map[Category]float64
}
