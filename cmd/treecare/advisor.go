package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"treecare/internal/advisor"
	"treecare/internal/metrics"
)

func (c *cli) advisorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advisor",
		Short: "Ask the tree care advisor",
	}

	var sessionID, treeID, location, experience string
	ask := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question, optionally continuing a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			qc := &advisor.Context{Location: location}
			if experience != "" {
				exp, err := advisor.ParseExperience(experience)
				if err != nil {
					return err
				}
				qc.Experience = exp
			}
			if treeID != "" {
				tree, err := c.app.Catalog.Get(ctx, treeID)
				if err != nil {
					return err
				}
				qc.Tree = &tree
			}

			if sessionID == "" {
				s, err := c.app.Advisor.NewSession(ctx, advisor.General)
				if err != nil {
					return err
				}
				sessionID = s.ID
			}
			reply, err := c.app.Advisor.Send(ctx, sessionID, args[0], qc)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, reply.Content)
			fmt.Fprintf(out, "\n(session %s)\n", sessionID)
			return nil
		},
	}
	ask.Flags().StringVar(&sessionID, "session", "", "continue this chat session")
	ask.Flags().StringVar(&treeID, "tree", "", "catalog tree the question is about")
	ask.Flags().StringVar(&location, "location", "", "where you are planting")
	ask.Flags().StringVar(&experience, "experience", "", "Beginner, Intermediate, Advanced or Expert")

	sessions := &cobra.Command{
		Use:   "sessions",
		Short: "List chat sessions, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := c.app.Advisor.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TITLE\tMESSAGES\tLAST ACTIVE\tID")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", s.Title, len(s.Messages), humanize.Time(s.LastMessageDate), s.ID)
			}
			return tw.Flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a chat session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Advisor.DeleteSession(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(ask, sessions, del)
	return cmd
}

func (c *cli) metricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Inspect language model usage",
	}

	var days int
	usage := &cobra.Command{
		Use:   "usage",
		Short: "Show daily token usage and process health",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := c.app.Metrics.GetDailyUsage(cmd.Context(), days)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tPROMPT\tCOMPLETION\tCALLS")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", r.Date, humanize.Comma(int64(r.TotalPrompt)), humanize.Comma(int64(r.TotalCompletion)), r.TotalExecution)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			h := metrics.GetSysHealth(c.app.Config().DataDir)
			fmt.Fprintf(out, "\nMemory: %d MB alloc, %d MB sys | Goroutines: %d | Data: %s\n",
				h.AllocMB, h.SysMB, h.Goroutines, h.DataDiskSize)
			return nil
		},
	}
	usage.Flags().IntVar(&days, "days", 7, "number of days to show")

	var keep int
	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old usage records",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.app.CleanupMetrics(cmd.Context(), keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d old metric records.\n", n)
			return nil
		},
	}
	cleanup.Flags().IntVar(&keep, "days", 0, "keep records for the last N days (default: configured retention)")

	cmd.AddCommand(usage, cleanup)
	return cmd
}

