package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"treecare/internal/guide"
)

func (c *cli) guidesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guides",
		Short: "Browse planting guides and track your progress",
	}

	var difficulty, treeType, search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List guides grouped by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := guide.Difficulty("")
			if difficulty != "" {
				var err error
				if d, err = guide.ParseDifficulty(difficulty); err != nil {
					return err
				}
			}

			src := scopedGuides{Service: c.app.Guides, list: c.app.Guides.List}
			switch {
			case treeType != "":
				src.list = func(ctx context.Context) ([]guide.Guide, error) {
					return c.app.Guides.ByTreeType(ctx, treeType)
				}
			case d != "":
				src.list = func(ctx context.Context) ([]guide.Guide, error) {
					return c.app.Guides.ByDifficulty(ctx, d)
				}
			}
			board := guide.NewBoard(src)
			if err := board.Load(cmd.Context()); err != nil {
				return err
			}
			board.SetSearch(search)
			board.SetDifficulty(d)

			out := cmd.OutOrStdout()
			printGuideGroup(out, "In progress", board.InProgress())
			printGuideGroup(out, "Not started", board.NotStarted())
			printGuideGroup(out, "Completed", board.Completed())
			return nil
		},
	}
	list.Flags().StringVar(&difficulty, "difficulty", "", "only guides of this difficulty")
	list.Flags().StringVar(&treeType, "tree-type", "", "only guides whose tree type contains this text")
	list.Flags().StringVar(&search, "search", "", "filter by title or tree type")

	show := &cobra.Command{
		Use:   "show <guide-id>",
		Short: "Show every step of a guide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.app.Guides.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printGuide(cmd.OutOrStdout(), g)
			return nil
		},
	}

	start := &cobra.Command{
		Use:   "start <guide-id>",
		Short: "Start a guide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.app.Guides.Start(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started %q. Next: step %d.\n", g.Title, g.UserProgress.CurrentStep)
			return nil
		},
	}

	var notes string
	complete := &cobra.Command{
		Use:   "complete <guide-id> <step>",
		Short: "Mark a step as done",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("step must be a number: %w", err)
			}
			g, err := c.app.Guides.CompleteStep(cmd.Context(), args[0], step, notes)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if g.UserProgress.IsCompleted {
				fmt.Fprintf(out, "%q completed!\n", g.Title)
				return nil
			}
			fmt.Fprintf(out, "Step %d done. %d%% complete, next: step %d.\n",
				step, guide.ProgressPercent(g), g.UserProgress.CurrentStep)
			return nil
		},
	}
	complete.Flags().StringVar(&notes, "notes", "", "notes to keep with the step")

	reset := &cobra.Command{
		Use:   "reset <guide-id>",
		Short: "Clear all progress on a guide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.app.Guides.Reset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Progress on %q reset.\n", g.Title)
			return nil
		},
	}

	completed := &cobra.Command{
		Use:   "completed",
		Short: "List finished guides with their completion dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			guides, err := c.app.Guides.Completed(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(guides) == 0 {
				fmt.Fprintln(out, "No guides completed yet.")
				return nil
			}
			for _, g := range guides {
				when := ""
				if d := g.UserProgress.CompletionDate; d != nil {
					when = humanize.Time(*d)
				}
				fmt.Fprintf(out, "%s  %-40s %s\n", g.ID, g.Title, when)
			}
			return nil
		},
	}

	cmd.AddCommand(list, show, start, complete, reset, completed)
	return cmd
}

// scopedGuides narrows what a Board loads while keeping the service's
// mutations.
type scopedGuides struct {
	*guide.Service
	list func(ctx context.Context) ([]guide.Guide, error)
}

func (s scopedGuides) List(ctx context.Context) ([]guide.Guide, error) {
	return s.list(ctx)
}

func printGuideGroup(w io.Writer, heading string, guides []guide.Guide) {
	if len(guides) == 0 {
		return
	}
	slices.SortStableFunc(guides, func(a, b guide.Guide) int {
		return a.Difficulty.Rank() - b.Difficulty.Rank()
	})
	fmt.Fprintf(w, "%s:\n", heading)
	for _, g := range guides {
		fmt.Fprintf(w, "  %s  %-40s %-12s %3d%%\n", g.ID, g.Title, g.Difficulty, guide.ProgressPercent(g))
	}
}

func printGuide(w io.Writer, g guide.Guide) {
	fmt.Fprintf(w, "%s\n%s · %s · %s\n\n", g.Title, g.TreeType, g.Difficulty, g.EstimatedTime)
	for _, s := range g.Steps {
		mark := " "
		if s.IsCompleted {
			mark = "x"
		}
		fmt.Fprintf(w, "[%s] %d. %s (%s)\n", mark, s.StepNumber, s.Title, s.EstimatedTime)
		if s.Notes != "" {
			fmt.Fprintf(w, "      notes: %s\n", s.Notes)
		}
	}
	if len(g.RequiredTools) > 0 {
		fmt.Fprintf(w, "\nTools: %s\n", strings.Join(g.RequiredTools, ", "))
	}
	if len(g.RequiredMaterials) > 0 {
		fmt.Fprintf(w, "Materials: %s\n", strings.Join(g.RequiredMaterials, ", "))
	}
	fmt.Fprintf(w, "\nStatus: %s (%d%%)\n", guide.StatusOf(g), guide.ProgressPercent(g))
}
