package schedule

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
	tasksSlot    = "planting_tasks"
	projectsSlot = "planting_projects"

	// DefaultUpcoming is how many tasks Upcoming returns when no limit is given.
	DefaultUpcoming = 5
)

// Scheduler owns the task and project collections.
type Scheduler struct {
	tasks    *storage.Collection[Task]
	projects *storage.Collection[Project]
	log      *zap.Logger
	newID    func() string
	now      func() time.Time
}

func New(store storage.SlotStore, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		tasks:    storage.NewCollection[Task](store, tasksSlot, log),
		projects: storage.NewCollection[Project](store, projectsSlot, log),
		log:      log,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// AddTask stores t. A task naming a project is also listed on that project.
func (s *Scheduler) AddTask(ctx context.Context, t Task) (Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return Task{}, fmt.Errorf("task title required")
	}
	if t.DueDate.IsZero() {
		return Task{}, fmt.Errorf("task due date required")
	}
	if t.ID == "" {
		t.ID = s.newID()
	}
	if t.Category == "" {
		t.Category = Planting
	}
	if t.Priority == "" {
		t.Priority = Medium
	}
	for i := range t.Reminders {
		if t.Reminders[i].ID == "" {
			t.Reminders[i].ID = s.newID()
		}
	}

	if t.ProjectID != "" {
		projects, err := s.projects.Load(ctx)
		if err != nil {
			return Task{}, err
		}
		i := slices.IndexFunc(projects, func(p Project) bool { return p.ID == t.ProjectID })
		if i < 0 {
			return Task{}, fmt.Errorf("%w: %s", ErrProjectNotFound, t.ProjectID)
		}
		projects[i].TaskIDs = append(projects[i].TaskIDs, t.ID)
		if err := s.projects.Save(ctx, projects); err != nil {
			return Task{}, err
		}
	}

	tasks, err := s.tasks.Load(ctx)
	if err != nil {
		return Task{}, err
	}
	if err := s.tasks.Save(ctx, append(tasks, t)); err != nil {
		return Task{}, err
	}
	s.log.Info("task scheduled", zap.String("task_id", t.ID), zap.Time("due", t.DueDate))
	return t, nil
}

// CompleteTask marks a task done. Completing it again keeps the first date.
func (s *Scheduler) CompleteTask(ctx context.Context, id string) (Task, error) {
	tasks, err := s.tasks.Load(ctx)
	if err != nil {
		return Task{}, err
	}
	i := slices.IndexFunc(tasks, func(t Task) bool { return t.ID == id })
	if i < 0 {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if tasks[i].IsCompleted {
		return tasks[i], nil
	}
	now := s.now()
	tasks[i].IsCompleted = true
	tasks[i].CompletedDate = &now
	if err := s.tasks.Save(ctx, tasks); err != nil {
		return Task{}, err
	}
	return tasks[i], nil
}

// DeleteTask removes a task and its entry on any project.
func (s *Scheduler) DeleteTask(ctx context.Context, id string) error {
	tasks, err := s.tasks.Load(ctx)
	if err != nil {
		return err
	}
	n := len(tasks)
	tasks = slices.DeleteFunc(tasks, func(t Task) bool { return t.ID == id })
	if len(tasks) == n {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if err := s.tasks.Save(ctx, tasks); err != nil {
		return err
	}

	projects, err := s.projects.Load(ctx)
	if err != nil {
		return err
	}
	changed := false
	for i := range projects {
		if j := slices.Index(projects[i].TaskIDs, id); j >= 0 {
			projects[i].TaskIDs = slices.Delete(projects[i].TaskIDs, j, j+1)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.projects.Save(ctx, projects)
}

// Tasks returns every task, soonest due first.
func (s *Scheduler) Tasks(ctx context.Context) ([]Task, error) {
	tasks, err := s.tasks.Load(ctx)
	if err != nil {
		return nil, err
	}
	sortByDue(tasks)
	return tasks, nil
}

// TasksOn returns the tasks due on the calendar day of day, in day's location.
func (s *Scheduler) TasksOn(ctx context.Context, day time.Time) ([]Task, error) {
	tasks, err := s.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	y, m, d := day.Date()
	return slices.DeleteFunc(tasks, func(t Task) bool {
		ty, tm, td := t.DueDate.In(day.Location()).Date()
		return ty != y || tm != m || td != d
	}), nil
}

// Upcoming returns up to limit open tasks due at or after now, soonest first.
func (s *Scheduler) Upcoming(ctx context.Context, now time.Time, limit int) ([]Task, error) {
	if limit <= 0 {
		limit = DefaultUpcoming
	}
	tasks, err := s.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	tasks = slices.DeleteFunc(tasks, func(t Task) bool { return t.IsCompleted || t.DueDate.Before(now) })
	if len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks, nil
}

// Overdue returns open tasks due before now, oldest first.
func (s *Scheduler) Overdue(ctx context.Context, now time.Time) ([]Task, error) {
	tasks, err := s.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(tasks, func(t Task) bool { return t.IsCompleted || !t.DueDate.Before(now) }), nil
}

// DueReminders fires every untriggered reminder of an open task whose date
// has been reached. Each reminder is returned once.
func (s *Scheduler) DueReminders(ctx context.Context, now time.Time) ([]DueReminder, error) {
	tasks, err := s.tasks.Load(ctx)
	if err != nil {
		return nil, err
	}
	var due []DueReminder
	for i := range tasks {
		if tasks[i].IsCompleted {
			continue
		}
		for j := range tasks[i].Reminders {
			r := &tasks[i].Reminders[j]
			if r.IsTriggered || r.ReminderDate.After(now) {
				continue
			}
			r.IsTriggered = true
			due = append(due, DueReminder{TaskID: tasks[i].ID, TaskTitle: tasks[i].Title, Reminder: *r})
		}
	}
	if len(due) == 0 {
		return nil, nil
	}
	if err := s.tasks.Save(ctx, tasks); err != nil {
		return nil, err
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].Reminder.ReminderDate.Before(due[j].Reminder.ReminderDate) })
	return due, nil
}

func (s *Scheduler) AddProject(ctx context.Context, p Project) (Project, error) {
	if strings.TrimSpace(p.Name) == "" {
		return Project{}, fmt.Errorf("project name required")
	}
	if p.Budget < 0 {
		return Project{}, fmt.Errorf("project budget must not be negative")
	}
	if p.StartDate.IsZero() {
		p.StartDate = s.now()
	}
	if !p.ExpectedEndDate.IsZero() && p.ExpectedEndDate.Before(p.StartDate) {
		return Project{}, fmt.Errorf("project cannot end before it starts")
	}
	if p.ID == "" {
		p.ID = s.newID()
	}
	if p.Status == "" {
		p.Status = Planning
	}
	projects, err := s.projects.Load(ctx)
	if err != nil {
		return Project{}, err
	}
	if err := s.projects.Save(ctx, append(projects, p)); err != nil {
		return Project{}, err
	}
	return p, nil
}

// Projects returns every project, earliest start first.
func (s *Scheduler) Projects(ctx context.Context) ([]Project, error) {
	projects, err := s.projects.Load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(projects, func(i, j int) bool { return projects[i].StartDate.Before(projects[j].StartDate) })
	return projects, nil
}

// SetProjectStatus moves a project along. Completing it stamps the end date.
func (s *Scheduler) SetProjectStatus(ctx context.Context, id string, status ProjectStatus) (Project, error) {
	projects, err := s.projects.Load(ctx)
	if err != nil {
		return Project{}, err
	}
	i := slices.IndexFunc(projects, func(p Project) bool { return p.ID == id })
	if i < 0 {
		return Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	projects[i].Status = status
	if status == Completed {
		now := s.now()
		projects[i].ActualEndDate = &now
	} else {
		projects[i].ActualEndDate = nil
	}
	if err := s.projects.Save(ctx, projects); err != nil {
		return Project{}, err
	}
	return projects[i], nil
}

func (s *Scheduler) ProjectProgress(ctx context.Context, id string) (Progress, error) {
	projects, err := s.projects.Load(ctx)
	if err != nil {
		return Progress{}, err
	}
	i := slices.IndexFunc(projects, func(p Project) bool { return p.ID == id })
	if i < 0 {
		return Progress{}, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	tasks, err := s.tasks.Load(ctx)
	if err != nil {
		return Progress{}, err
	}
	var p Progress
	for _, t := range tasks {
		if slices.Contains(projects[i].TaskIDs, t.ID) {
			p.Total++
			if t.IsCompleted {
				p.Done++
			}
		}
	}
	return p, nil
}

func sortByDue(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].DueDate.Before(tasks[j].DueDate) })
}
