package cmd

import (
	"github.com/engramhq/engram/internal/db"
	"github.com/spf13/cobra"
)

func newMigrateCmd(params *rootParams) *cobra.Command {
	var drop bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, logger, err := params.loadConfig()
			if err != nil {
				return err
			}

			conn, err := db.OpenDB(conf.Database.DSN)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.CloseDB(conn); err != nil {
					logger.Warn("failed to close database", "err", err)
				}
			}()

			if drop {
				logger.Warn("dropping all tables", "dsn", conf.Database.DSN)
				if err := db.DropAll(conn); err != nil {
					return err
				}
			}

			if err := db.AutoMigrate(conn); err != nil {
				return err
			}

			logger.Info("migration complete", "dsn", conf.Database.DSN)
			return nil
		},
	}

	cmd.Flags().BoolVar(&drop, "drop", false, "Drop all tables before migrating")

	return cmd
}
