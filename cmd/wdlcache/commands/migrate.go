package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/wdlcache/internal/core/domain"
)

func (c *CLI) newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade the cache files to a newer format version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			history, _ := cmd.Flags().GetBool("history")
			if history {
				return c.app.MigrationHistory(cmd.Context())
			}
			to, _ := cmd.Flags().GetString("to")
			return c.app.Migrate(cmd.Context(), to)
		},
	}
	cmd.Flags().String("to", domain.CurrentFormatVersion, "Target format version")
	cmd.Flags().Bool("history", false, "Print the recorded migrations instead of migrating")
	return cmd
}
