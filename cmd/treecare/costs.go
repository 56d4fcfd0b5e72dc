package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"treecare/internal/costs"
	"treecare/internal/materials"
)

const dateLayout = "2006-01-02"

func (c *cli) expensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Record and summarize project expenses",
	}

	var e struct {
		category string
		payment  string
		date     string
		project  string
		vendor   string
		notes    string
	}
	add := &cobra.Command{
		Use:   "add <description> <amount>",
		Short: "Record an expense",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("amount must be a number: %w", err)
			}
			cat, err := costs.ParseCategory(e.category)
			if err != nil {
				return err
			}
			pm, err := costs.ParsePaymentMethod(e.payment)
			if err != nil {
				return err
			}
			var date time.Time
			if e.date != "" {
				if date, err = time.ParseInLocation(dateLayout, e.date, time.Local); err != nil {
					return fmt.Errorf("date must look like %s: %w", dateLayout, err)
				}
			}
			exp, err := c.app.Costs.AddExpense(cmd.Context(), costs.Expense{
				Description:   args[0],
				Amount:        amount,
				Category:      cat,
				Date:          date,
				ProjectName:   e.project,
				Vendor:        e.vendor,
				PaymentMethod: pm,
				Notes:         e.notes,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for %s (%s)\n", money(exp.Amount), exp.Description, exp.ID)
			return nil
		},
	}
	add.Flags().StringVar(&e.category, "category", string(costs.Other), "expense category")
	add.Flags().StringVar(&e.payment, "payment", string(costs.CreditCard), "payment method")
	add.Flags().StringVar(&e.date, "date", "", "expense date (YYYY-MM-DD), defaults to today")
	add.Flags().StringVar(&e.project, "project", "", "project name")
	add.Flags().StringVar(&e.vendor, "vendor", "", "vendor")
	add.Flags().StringVar(&e.notes, "notes", "", "notes")

	list := &cobra.Command{
		Use:   "list",
		Short: "List expenses, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			expenses, err := c.app.Costs.ListExpenses(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tDESCRIPTION\tCATEGORY\tAMOUNT\tID")
			for _, e := range expenses {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Date.Format(dateLayout), e.Description, e.Category, money(e.Amount), e.ID)
			}
			return tw.Flush()
		},
	}

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Show totals overall, this month and per category",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.app.Costs.Summary(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total:      %s\n", money(s.Total))
			fmt.Fprintf(out, "This month: %s\n", money(s.ThisMonth))
			for _, cat := range costs.Categories {
				if v, ok := s.ByCategory[cat]; ok {
					fmt.Fprintf(out, "  %-15s %s\n", cat, money(v))
				}
			}
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <expense-id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Costs.DeleteExpense(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(add, list, summary, del)
	return cmd
}

func (c *cli) budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Plan budgets and get alerted as they run down",
	}

	var months int
	var alerts []float64
	add := &cobra.Command{
		Use:   "add <name> <total>",
		Short: "Create a budget",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("total must be a number: %w", err)
			}
			start := time.Now()
			b := costs.Budget{
				Name:        args[0],
				TotalBudget: total,
				StartDate:   start,
				EndDate:     start.AddDate(0, months, 0),
			}
			for _, th := range alerts {
				b.Alerts = append(b.Alerts, costs.BudgetAlert{
					Threshold: th,
					Message:   fmt.Sprintf("%s has used %.0f%% of its budget", args[0], th),
				})
			}
			b, err = c.app.Costs.AddBudget(cmd.Context(), b)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created budget %s (%s)\n", b.Name, b.ID)
			return nil
		},
	}
	add.Flags().IntVar(&months, "months", 12, "budget period in months")
	add.Flags().Float64SliceVar(&alerts, "alert", []float64{75, 90}, "alert thresholds in percent")

	list := &cobra.Command{
		Use:   "list",
		Short: "List budgets",
		RunE: func(cmd *cobra.Command, args []string) error {
			budgets, err := c.app.Costs.ListBudgets(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSPENT\tTOTAL\tREMAINING\tUSED\tID")
			for _, b := range budgets {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.0f%%\t%s\n",
					b.Name, money(b.Spent), money(b.TotalBudget), money(b.Remaining()), b.PercentageUsed(), b.ID)
			}
			return tw.Flush()
		},
	}

	spend := &cobra.Command{
		Use:   "spend <budget-id> <amount>",
		Short: "Charge an amount against a budget",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("amount must be a number: %w", err)
			}
			b, fired, err := c.app.Costs.RecordSpend(cmd.Context(), args[0], amount)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s of %s used, %s left\n", b.Name, money(b.Spent), money(b.TotalBudget), money(b.Remaining()))
			for _, a := range fired {
				fmt.Fprintf(out, "ALERT: %s\n", a.Message)
			}
			return nil
		},
	}

	cmd.AddCommand(add, list, spend)
	return cmd
}

func (c *cli) materialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "materials",
		Short: "Estimate planting supplies",
	}

	var project, trees, spacing, area string
	var save bool
	calc := &cobra.Command{
		Use:   "calc",
		Short: "Calculate compost, mulch, stakes and ties",
		RunE: func(cmd *cobra.Command, args []string) error {
			result := materials.Calculate(materials.ParseInput(project, trees, spacing, area), time.Now())
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MATERIAL\tQUANTITY\tUNIT\tCOST")
			for _, m := range result.CalculatedMaterials {
				fmt.Fprintf(tw, "%s\t%.1f\t%s\t%s\n", m.MaterialName, m.QuantityNeeded, m.Unit, money(m.Cost))
			}
			fmt.Fprintf(tw, "TOTAL\t\t\t%s\n", money(result.TotalCost))
			if err := tw.Flush(); err != nil {
				return err
			}
			if !save {
				return nil
			}
			saved, err := c.app.Materials.Save(cmd.Context(), result)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved as %s\n", saved.ID)
			return nil
		},
	}
	calc.Flags().StringVar(&project, "project", "", "project name")
	calc.Flags().StringVar(&trees, "trees", "1", "number of trees")
	calc.Flags().StringVar(&spacing, "spacing", "20", "spacing between trees in feet")
	calc.Flags().StringVar(&area, "area", "100", "area in square feet")
	calc.Flags().BoolVar(&save, "save", false, "keep the calculation")

	history := &cobra.Command{
		Use:   "history",
		Short: "List saved calculations",
		RunE: func(cmd *cobra.Command, args []string) error {
			calcs, err := c.app.Materials.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tPROJECT\tTREES\tTOTAL")
			for _, m := range calcs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", m.CalculationDate.Format(dateLayout), m.ProjectName, m.TreeCount, money(m.TotalCost))
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(calc, history)
	return cmd
}
