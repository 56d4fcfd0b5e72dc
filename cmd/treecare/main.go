// Command treecare is the terminal front end for planting guides, the tree
// catalog, tools, costs, material estimates, the task schedule, the planting
// journal and the AI advisor.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"treecare/internal/app"
	"treecare/internal/config"
	"treecare/internal/logging"
)

// cli carries the state shared by every subcommand of one invocation.
type cli struct {
	cfgPath string
	verbose bool

	log *zap.Logger
	app *app.App
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "treecare",
		Short:         "Track tree planting guides, tools, costs and advice",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&c.cfgPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		c.guidesCmd(),
		c.treesCmd(),
		c.toolsCmd(),
		c.expensesCmd(),
		c.budgetsCmd(),
		c.materialsCmd(),
		c.tasksCmd(),
		c.projectsCmd(),
		c.historyCmd(),
		c.advisorCmd(),
		c.metricsCmd(),
	)
	return root
}

func (c *cli) open(ctx context.Context) error {
	cfg, err := config.Load(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	level := cfg.Logging.Level
	if c.verbose {
		level = "debug"
	}
	c.log, err = logging.New(level, cfg.Logging.Format)
	if err != nil {
		return err
	}

	c.app, err = app.New(ctx, cfg, c.log)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	return nil
}

// close is safe to call whether or not open ran.
func (c *cli) close() error {
	var err error
	if c.app != nil {
		err = c.app.Close()
		c.app = nil
	}
	if c.log != nil {
		_ = c.log.Sync()
	}
	return err
}

func money(v float64) string {
	return "$" + humanize.CommafWithDigits(v, 2)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{}
	err := c.rootCmd().ExecuteContext(ctx)
	if cerr := c.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
