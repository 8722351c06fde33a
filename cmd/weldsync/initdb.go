// cmd/weldsync/initdb.go
package main

import (
	"github.com/spf13/cobra"

	"github.com/nordweld/weldsync/pkg/schema"
)

var initDBCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create or migrate the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		_, logger, conn, _, err := setup(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		defer logger.Sync()

		return schema.Migrate(conn.DB(), logger)
	},
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}
