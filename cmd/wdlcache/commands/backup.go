package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Copy the cache files into a new backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			label, _ := cmd.Flags().GetString("label")
			return c.app.Backup(cmd.Context(), label)
		},
	}
	cmd.Flags().StringP("label", "l", "manual", "Label prefixed to the backup name")
	return cmd
}

func (c *CLI) newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup>",
		Short: "Replace the cache files with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Restore(cmd.Context(), args[0])
		},
	}
}
