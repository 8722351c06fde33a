// cmd/weldsync/maintenance.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nordweld/weldsync/pkg/maintenance"
)

var (
	backupTrigger     string
	backupDescription string

	cleanupKeepDays  int
	cleanupPermanent bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a full backup of the master tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, logger, conn, _, err := setup(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		defer logger.Sync()

		backupID, err := maintenance.NewBackup(conn.DB(), logger, cfg.BackupDir).
			CreateFullBackup(ctx, backupTrigger, backupDescription)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), backupID)
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired soft-deleted rows, failed run history, and old backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, logger, conn, _, err := setup(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		defer logger.Sync()

		backup := maintenance.NewBackup(conn.DB(), logger, cfg.BackupDir)
		return maintenance.NewCleaner(conn.DB(), logger, backup).
			CleanAll(ctx, cleanupKeepDays, cleanupPermanent)
	},
}

func init() {
	backupCmd.Flags().StringVar(&backupTrigger, "trigger", "MANUAL", "what triggered this backup")
	backupCmd.Flags().StringVar(&backupDescription, "description", "", "backup description")

	cleanupCmd.Flags().IntVar(&cleanupKeepDays, "keep-days", 90, "retention window in days")
	cleanupCmd.Flags().BoolVar(&cleanupPermanent, "permanent", false, "permanently delete expired soft-deleted rows")

	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(cleanupCmd)
}
