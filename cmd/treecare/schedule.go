package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"treecare/internal/history"
	"treecare/internal/schedule"
)

var dateLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

// parseDate reads a local date, with or without a time of day.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, strings.TrimSpace(s), time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD or YYYY-MM-DD HH:MM", s)
}

func (c *cli) tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Schedule planting and care tasks",
	}

	var (
		due, category, priority, tree, location, project, notes string
		hours                                                   float64
		reminders                                               []time.Duration
	)
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Schedule a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dueDate := time.Now().Add(24 * time.Hour)
			if due != "" {
				var err error
				if dueDate, err = parseDate(due); err != nil {
					return err
				}
			}
			cat, err := schedule.ParseCategory(category)
			if err != nil {
				return err
			}
			prio, err := schedule.ParsePriority(priority)
			if err != nil {
				return err
			}
			t := schedule.Task{
				Title:             args[0],
				Category:          cat,
				Priority:          prio,
				DueDate:           dueDate,
				EstimatedDuration: hours * 3600,
				AssignedTo:        "Me",
				TreeName:          tree,
				Location:          location,
				Notes:             notes,
				ProjectID:         project,
			}
			for _, before := range reminders {
				t.Reminders = append(t.Reminders, schedule.Reminder{
					ReminderDate: dueDate.Add(-before),
					Message:      fmt.Sprintf("%s is due %s", args[0], dueDate.Format("Mon Jan 2 15:04")),
				})
			}
			t, err = c.app.Schedule.AddTask(cmd.Context(), t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %q for %s (%s)\n", t.Title, t.DueDate.Format("Mon Jan 2 15:04"), t.ID)
			return nil
		},
	}
	add.Flags().StringVar(&due, "due", "", "due date, YYYY-MM-DD [HH:MM] (default in 24 hours)")
	add.Flags().StringVar(&category, "category", "", "task category")
	add.Flags().StringVar(&priority, "priority", "", "Low, Medium, High or Urgent")
	add.Flags().StringVar(&tree, "tree", "", "tree the task is for")
	add.Flags().StringVar(&location, "location", "", "where the work happens")
	add.Flags().StringVar(&project, "project", "", "project id to file the task under")
	add.Flags().StringVar(&notes, "notes", "", "free-form notes")
	add.Flags().Float64Var(&hours, "hours", 1, "estimated duration in hours")
	add.Flags().DurationSliceVar(&reminders, "remind", nil, "remind this long before the due date (repeatable)")

	var on string
	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks, soonest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				tasks []schedule.Task
				err   error
			)
			if on != "" {
				day, perr := parseDate(on)
				if perr != nil {
					return perr
				}
				tasks, err = c.app.Schedule.TasksOn(cmd.Context(), day)
			} else {
				tasks, err = c.app.Schedule.Tasks(cmd.Context())
			}
			if err != nil {
				return err
			}
			return printTasks(cmd.OutOrStdout(), tasks)
		},
	}
	list.Flags().StringVar(&on, "on", "", "only tasks due on this day, YYYY-MM-DD")

	var limit int
	upcoming := &cobra.Command{
		Use:   "upcoming",
		Short: "Show the next open tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := c.app.Schedule.Upcoming(cmd.Context(), time.Now(), limit)
			if err != nil {
				return err
			}
			return printTasks(cmd.OutOrStdout(), tasks)
		},
	}
	upcoming.Flags().IntVar(&limit, "limit", schedule.DefaultUpcoming, "how many tasks to show")

	overdue := &cobra.Command{
		Use:   "overdue",
		Short: "Show open tasks past their due date",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := c.app.Schedule.Overdue(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			return printTasks(cmd.OutOrStdout(), tasks)
		},
	}

	done := &cobra.Command{
		Use:   "done <task-id>",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.app.Schedule.CompleteTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed %q\n", t.Title)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Schedule.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Task deleted.")
			return nil
		},
	}

	remind := &cobra.Command{
		Use:   "reminders",
		Short: "Show reminders that are due and mark them as sent",
		RunE: func(cmd *cobra.Command, args []string) error {
			due, err := c.app.Schedule.DueReminders(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(due) == 0 {
				fmt.Fprintln(out, "No reminders due.")
				return nil
			}
			for _, d := range due {
				fmt.Fprintf(out, "⏰ %s: %s\n", d.TaskTitle, d.Reminder.Message)
			}
			return nil
		},
	}

	cmd.AddCommand(add, list, upcoming, overdue, done, del, remind)
	return cmd
}

func printTasks(w io.Writer, tasks []schedule.Task) error {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DUE\tTITLE\tCATEGORY\tPRIORITY\tSTATUS\tID")
	for _, t := range tasks {
		status := "open"
		if t.IsCompleted {
			status = "done"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.DueDate.Format("2006-01-02 15:04"), t.Title, t.Category, t.Priority, status, t.ID)
	}
	return tw.Flush()
}

func (c *cli) projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Group tasks into planting projects",
	}

	var (
		weeks    int
		budget   float64
		location string
		desc     string
	)
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a project starting today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			p, err := c.app.Schedule.AddProject(cmd.Context(), schedule.Project{
				Name:            args[0],
				Description:     desc,
				StartDate:       start,
				ExpectedEndDate: start.AddDate(0, 0, 7*weeks),
				Location:        location,
				Budget:          budget,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
	add.Flags().IntVar(&weeks, "weeks", 4, "expected length in weeks")
	add.Flags().Float64Var(&budget, "budget", 0, "planned budget")
	add.Flags().StringVar(&location, "location", "", "where the project happens")
	add.Flags().StringVar(&desc, "description", "", "what the project is about")

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects with task progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := c.app.Schedule.Projects(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSTATUS\tTASKS\tBUDGET\tENDS\tID")
			for _, p := range projects {
				progress, err := c.app.Schedule.ProjectProgress(cmd.Context(), p.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%s\t%s\n",
					p.Name, p.Status, progress.Done, progress.Total, money(p.Budget), p.ExpectedEndDate.Format("2006-01-02"), p.ID)
			}
			return tw.Flush()
		},
	}

	status := &cobra.Command{
		Use:   "status <project-id> <status>",
		Short: "Change a project's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := schedule.ParseProjectStatus(args[1])
			if err != nil {
				return err
			}
			if st == "" {
				return fmt.Errorf("status required")
			}
			p, err := c.app.Schedule.SetProjectStatus(cmd.Context(), args[0], st)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", p.Name, p.Status)
			return nil
		},
	}

	cmd.AddCommand(add, list, status)
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Keep a journal of planted trees and see achievements",
	}

	var (
		planted, location, notes string
		success                  float64
	)
	add := &cobra.Command{
		Use:   "add <tree-name>",
		Short: "Record a planted tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := history.Record{TreeName: args[0], Location: location, Notes: notes, SuccessRate: success}
			if planted != "" {
				var err error
				if r.PlantingDate, err = parseDate(planted); err != nil {
					return err
				}
			}
			r, err := c.app.Journal.Add(cmd.Context(), r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s (%s)\n", r.TreeName, r.ID)
			return nil
		},
	}
	add.Flags().StringVar(&planted, "date", "", "planting date, YYYY-MM-DD (default today)")
	add.Flags().StringVar(&location, "location", "", "where it was planted")
	add.Flags().StringVar(&notes, "notes", "", "free-form notes")
	add.Flags().Float64Var(&success, "success", 1, "how well it is doing, 0 to 1")

	list := &cobra.Command{
		Use:   "list",
		Short: "List planted trees, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := c.app.Journal.Records(cmd.Context())
			if err != nil {
				return err
			}
			totals, err := c.app.Journal.Totals(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PLANTED\tTREE\tLOCATION\tSUCCESS\tMILESTONES\tID")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f%%\t%d\t%s\n",
					humanize.Time(r.PlantingDate), r.TreeName, r.Location, r.SuccessRate*100, len(r.Milestones), r.ID)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d trees planted, %.0f%% average success\n", totals.TreesPlanted, totals.SuccessRate*100)
			return nil
		},
	}

	var height float64
	var health, mNotes string
	milestone := &cobra.Command{
		Use:   "milestone <record-id>",
		Short: "Log a growth observation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := history.ParseHealth(health)
			if err != nil {
				return err
			}
			r, err := c.app.Journal.AddMilestone(cmd.Context(), args[0], history.Milestone{Height: height, Health: h, Notes: mNotes})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now has %d milestones\n", r.TreeName, len(r.Milestones))
			return nil
		},
	}
	milestone.Flags().Float64Var(&height, "height", 0, "height in feet")
	milestone.Flags().StringVar(&health, "health", "", "Excellent, Good, Fair, Poor or Critical")
	milestone.Flags().StringVar(&mNotes, "notes", "", "what you observed")

	achievements := &cobra.Command{
		Use:   "achievements",
		Short: "Show unlocked and in-progress achievements",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := c.app.Achievements(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, a := range history.Unlocked(all) {
				fmt.Fprintf(out, "🏆 %s: %s\n", a.Title, a.Description)
			}
			for _, a := range history.InProgress(all) {
				fmt.Fprintf(out, "⏳ %s: %s (%.0f%%)\n", a.Title, a.Requirement, a.Progress*100)
			}
			return nil
		},
	}

	cmd.AddCommand(add, list, milestone, achievements)
	return cmd
}
