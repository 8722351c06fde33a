// cmd/weldsync/run.go
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nordweld/weldsync/pkg/pipeline"
	"github.com/nordweld/weldsync/pkg/schema"
)

var runOpts pipeline.Options

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full import pipeline: backup, load, reconcile, clean up",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, logger, conn, retrier, err := setup(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		defer logger.Sync()

		if err := schema.Migrate(conn.DB(), logger); err != nil {
			return err
		}

		summary, err := pipeline.New(cfg, conn.DB(), logger, retrier).Run(ctx, runOpts)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runOpts.Source, "source", "", "extract file, directory of WeldingDB_* exports, or glob pattern")
	runCmd.Flags().StringVar(&runOpts.Trigger, "trigger", "SCHEDULED", "what started this run (SCHEDULED, MANUAL, ...)")
	runCmd.Flags().StringVar(&runOpts.Description, "description", "", "description recorded on the pre-import backup")
	runCmd.Flags().BoolVar(&runOpts.SkipBackup, "skip-backup", false, "skip the pre-import backup")
	runCmd.Flags().BoolVar(&runOpts.SkipCleanup, "skip-cleanup", false, "skip the post-import cleanup")
	runCmd.Flags().IntVar(&runOpts.CleanupKeepDays, "cleanup-keep-days", 90, "retention window for soft-deleted rows and failed run history")
	runCmd.Flags().BoolVar(&runOpts.CleanupPermanentDelete, "cleanup-permanent-delete", false, "permanently delete expired soft-deleted rows instead of only counting them")
	_ = runCmd.MarkFlagRequired("source")

	rootCmd.AddCommand(runCmd)
}
