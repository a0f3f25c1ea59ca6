package main

import (
	sqlitedb "github.com/dwikikusuma/atelier/pkg/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := sqlitedb.Open(sqlitedb.Config{Path: cfg.Storage.SQLitePath})
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := sqlitedb.Migrate(cmd.Context(), db)
		if err != nil {
			return err
		}
		log.Info("migrations applied", zap.String("path", cfg.Storage.SQLitePath), zap.Int("applied", applied))
		return nil
	},
}
