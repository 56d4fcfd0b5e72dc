// Package schedule keeps planting tasks, their reminders and the projects
// that group them.
package schedule

import (
	"errors"
	"time"

	"treecare/internal/shared"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrProjectNotFound = errors.New("project not found")
)

type Category string

const (
	Planting    Category = "Planting"
	Watering    Category = "Watering"
	Pruning     Category = "Pruning"
	Fertilizing Category = "Fertilizing"
	Mulching    Category = "Mulching"
	Inspection  Category = "Inspection"
	Treatment   Category = "Treatment"
	Protection  Category = "Protection"
	Maintenance Category = "Maintenance"
)

var Categories = []Category{Planting, Watering, Pruning, Fertilizing, Mulching, Inspection, Treatment, Protection, Maintenance}

type Priority string

const (
	Low    Priority = "Low"
	Medium Priority = "Medium"
	High   Priority = "High"
	Urgent Priority = "Urgent"
)

var Priorities = []Priority{Low, Medium, High, Urgent}

type ProjectStatus string

const (
	Planning   ProjectStatus = "Planning"
	InProgress ProjectStatus = "In Progress"
	OnHold     ProjectStatus = "On Hold"
	Completed  ProjectStatus = "Completed"
	Cancelled  ProjectStatus = "Cancelled"
)

var ProjectStatuses = []ProjectStatus{Planning, InProgress, OnHold, Completed, Cancelled}

func ParseCategory(s string) (Category, error) {
	return shared.ParseEnum(s, Categories, "task category")
}

func ParsePriority(s string) (Priority, error) {
	return shared.ParseEnum(s, Priorities, "task priority")
}

func ParseProjectStatus(s string) (ProjectStatus, error) {
	return shared.ParseEnum(s, ProjectStatuses, "project status")
}

// Task is one scheduled piece of tree work.
type Task struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Category          Category   `json:"category"`
	Priority          Priority   `json:"priority"`
	DueDate           time.Time  `json:"dueDate"`
	EstimatedDuration float64    `json:"estimatedDuration"` // seconds
	IsCompleted       bool       `json:"isCompleted"`
	CompletedDate     *time.Time `json:"completedDate,omitempty"`
	AssignedTo        string     `json:"assignedTo"`
	TreeID            string     `json:"treeId,omitempty"`
	TreeName          string     `json:"treeName"`
	Location          string     `json:"location"`
	RequiredTools     []string   `json:"requiredTools"`
	RequiredMaterials []string   `json:"requiredMaterials"`
	Notes             string     `json:"notes"`
	WeatherDependent  bool       `json:"weatherDependent"`
	Reminders         []Reminder `json:"reminders"`
	ProjectID         string     `json:"projectId,omitempty"`
}

type Reminder struct {
	ID           string    `json:"id"`
	ReminderDate time.Time `json:"reminderDate"`
	Message      string    `json:"message"`
	IsTriggered  bool      `json:"isTriggered"`
}

// DueReminder pairs a reminder that just fired with its task.
type DueReminder struct {
	TaskID    string
	TaskTitle string
	Reminder  Reminder
}

// Project groups tasks and trees under one budget.
type Project struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	StartDate       time.Time     `json:"startDate"`
	ExpectedEndDate time.Time     `json:"expectedEndDate"`
	ActualEndDate   *time.Time    `json:"actualEndDate,omitempty"`
	Status          ProjectStatus `json:"status"`
	TaskIDs         []string      `json:"tasks"`
	TreeIDs         []string      `json:"treeIds"`
	Location        string        `json:"location"`
	Budget          float64       `json:"budget"`
	ActualCost      float64       `json:"actualCost"`
	Notes           string        `json:"notes"`
}

// Progress is the share of the project's tasks already done.
type Progress struct {
	Done  int
	Total int
}
