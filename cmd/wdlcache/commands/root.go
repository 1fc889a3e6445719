// Package commands implements the CLI commands for wdlcache.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/wdlcache/internal/build"
)

// CLI represents the command line interface for wdlcache.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Resolve(ctx context.Context, path string) error
	Analyze(ctx context.Context, path string) error
	Validate(ctx context.Context) error
	Repair(ctx context.Context) error
	Health(ctx context.Context) error
	Optimize(ctx context.Context) error
	Migrate(ctx context.Context, to string) error
	MigrationHistory(ctx context.Context) error
	Backup(ctx context.Context, label string) error
	Restore(ctx context.Context, backup string) error
	Stats(ctx context.Context) error
	Clear(ctx context.Context) error
	Watch(ctx context.Context, root string) error
	WriteTrace(w io.Writer) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "wdlcache",
		Short:         "Inspect and maintain the WDL analysis cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().Bool("trace", false, "Print span timings after the command finishes")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, _ []string) error {
		trace, _ := cmd.Flags().GetBool("trace")
		if !trace {
			return nil
		}
		return c.app.WriteTrace(cmd.ErrOrStderr())
	}

	rootCmd.AddCommand(c.newResolveCmd())
	rootCmd.AddCommand(c.newAnalyzeCmd())
	rootCmd.AddCommand(c.newValidateCmd())
	rootCmd.AddCommand(c.newRepairCmd())
	rootCmd.AddCommand(c.newHealthCmd())
	rootCmd.AddCommand(c.newOptimizeCmd())
	rootCmd.AddCommand(c.newStatsCmd())
	rootCmd.AddCommand(c.newClearCmd())
	rootCmd.AddCommand(c.newMigrateCmd())
	rootCmd.AddCommand(c.newBackupCmd())
	rootCmd.AddCommand(c.newRestoreCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
