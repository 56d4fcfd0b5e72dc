package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"treecare/internal/catalog"
	"treecare/internal/inventory"
)

func (c *cli) treesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trees",
		Short: "Browse and grow the tree catalog",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every tree in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			trees, err := c.app.Catalog.List(cmd.Context())
			if err != nil {
				return err
			}
			printTrees(cmd, trees)
			return nil
		},
	}

	var category, environment string
	var month int
	search := &cobra.Command{
		Use:   "search [query]",
		Short: "Search by name, category, environment or planting month",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var query string
			if len(args) == 1 {
				query = args[0]
			}
			var cat catalog.Category
			var env catalog.Environment
			var err error
			if category != "" {
				if cat, err = catalog.ParseCategory(category); err != nil {
					return err
				}
			}
			if environment != "" {
				if env, err = catalog.ParseEnvironment(environment); err != nil {
					return err
				}
			}

			trees, err := c.app.Catalog.Search(cmd.Context(), query, cat, env)
			if err != nil {
				return err
			}
			if month > 0 {
				trees = plantableIn(trees, month)
			}
			printTrees(cmd, trees)
			return nil
		},
	}
	search.Flags().StringVar(&category, "category", "", "tree category")
	search.Flags().StringVar(&environment, "environment", "", "growing environment")
	search.Flags().IntVar(&month, "month", 0, "only trees plantable in this month (1-12)")

	var pause time.Duration
	importCmd := &cobra.Command{
		Use:   "import <url>...",
		Short: "Extract trees from web pages with the language model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.ImportTreePages(cmd.Context(), args, pause)
			out := cmd.OutOrStdout()
			for _, name := range res.Imported {
				fmt.Fprintf(out, "imported %s\n", name)
			}
			for url, ferr := range res.Failed {
				fmt.Fprintf(out, "failed %s: %v\n", url, ferr)
			}
			return err
		},
	}
	importCmd.Flags().DurationVar(&pause, "pause", 5*time.Second, "wait between pages to respect rate limits")

	cmd.AddCommand(list, search, importCmd)
	return cmd
}

func plantableIn(trees []catalog.Tree, month int) []catalog.Tree {
	var out []catalog.Tree
	for _, t := range trees {
		if t.PlantableIn(month) {
			out = append(out, t)
		}
	}
	return out
}

func printTrees(cmd *cobra.Command, trees []catalog.Tree) {
	if len(trees) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No trees found.")
		return
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSCIENTIFIC NAME\tCATEGORY\tENVIRONMENT\tID")
	for _, t := range trees {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Name, t.ScientificName, t.Category, t.Environment, t.ID)
	}
	tw.Flush()
}

func (c *cli) toolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Manage the tool inventory",
	}

	var search, category string
	list := &cobra.Command{
		Use:   "list",
		Short: "List tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cat inventory.Category
			if category != "" {
				var err error
				if cat, err = inventory.ParseCategory(category); err != nil {
					return err
				}
			}
			tools, err := c.app.Inventory.Filter(cmd.Context(), search, cat)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCATEGORY\tCONDITION\tPRICE\tID")
			for _, t := range tools {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Name, t.Category, t.Condition, money(t.Price), t.ID)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&search, "search", "", "match name, brand or notes")
	list.Flags().StringVar(&category, "category", "", "tool category")

	var add struct {
		category  string
		condition string
		brand     string
		location  string
		notes     string
		price     float64
	}
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := inventory.ParseCategory(add.category)
			if err != nil {
				return err
			}
			cond, err := inventory.ParseCondition(add.condition)
			if err != nil {
				return err
			}
			t, err := c.app.Inventory.Add(cmd.Context(), inventory.Tool{
				Name:         args[0],
				Category:     cat,
				Condition:    cond,
				Brand:        add.brand,
				Location:     add.location,
				Notes:        add.notes,
				Price:        add.price,
				PurchaseDate: time.Now(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", t.Name, t.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&add.category, "category", string(inventory.Categories[0]), "tool category")
	addCmd.Flags().StringVar(&add.condition, "condition", string(inventory.Conditions[0]), "tool condition")
	addCmd.Flags().StringVar(&add.brand, "brand", "", "brand")
	addCmd.Flags().StringVar(&add.location, "location", "", "where the tool is kept")
	addCmd.Flags().StringVar(&add.notes, "notes", "", "notes")
	addCmd.Flags().Float64Var(&add.price, "price", 0, "purchase price")

	del := &cobra.Command{
		Use:   "delete <tool-id>",
		Short: "Remove a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Inventory.Delete(cmd.Context(), args[0])
		},
	}

	var mType, mDesc string
	var mCost float64
	maintain := &cobra.Command{
		Use:   "maintain <tool-id>",
		Short: "Log maintenance on a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := inventory.ParseMaintenanceType(mType)
			if err != nil {
				return err
			}
			t, err := c.app.Inventory.AddMaintenance(cmd.Context(), args[0], inventory.MaintenanceRecord{
				Date:        time.Now(),
				Type:        typ,
				Description: mDesc,
				Cost:        mCost,
			})
			if err != nil {
				return err
			}
			total, err := c.app.Inventory.MaintenanceCost(cmd.Context(), t.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s on %s. Maintenance to date: %s\n", typ, t.Name, money(total))
			return nil
		},
	}
	maintain.Flags().StringVar(&mType, "type", string(inventory.MaintenanceTypes[0]), "maintenance type")
	maintain.Flags().StringVar(&mDesc, "description", "", "what was done")
	maintain.Flags().Float64Var(&mCost, "cost", 0, "cost")

	cmd.AddCommand(list, addCmd, del, maintain)
	return cmd
}
