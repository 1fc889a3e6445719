package commands

import (
	"context"

	"github.com/spf13/cobra"
)

func (c *CLI) simpleCmd(use, short string, fn func(context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return fn(cmd.Context())
		},
	}
}

func (c *CLI) newValidateCmd() *cobra.Command {
	return c.simpleCmd("validate", "Check the cache for corrupted and invalid entries", c.app.Validate)
}

func (c *CLI) newRepairCmd() *cobra.Command {
	return c.simpleCmd("repair", "Drop corrupted and invalid cache entries", c.app.Repair)
}

func (c *CLI) newHealthCmd() *cobra.Command {
	return c.simpleCmd("health", "Print the cache health report", c.app.Health)
}

func (c *CLI) newOptimizeCmd() *cobra.Command {
	return c.simpleCmd("optimize", "Drop entries older than 7 days and rewrite the cache files", c.app.Optimize)
}

func (c *CLI) newStatsCmd() *cobra.Command {
	return c.simpleCmd("stats", "Print cache statistics", c.app.Stats)
}

func (c *CLI) newClearCmd() *cobra.Command {
	return c.simpleCmd("clear", "Remove every cache entry and file", c.app.Clear)
}
