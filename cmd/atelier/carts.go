package main

import (
	"time"

	cartsqlite "github.com/dwikikusuma/atelier/internal/cart/infra/sqlite"
	sqlitedb "github.com/dwikikusuma/atelier/pkg/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var pruneOlderThan time.Duration

var cartsCmd = &cobra.Command{
	Use:   "carts",
	Short: "Maintain stored cart snapshots",
}

var cartsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete sqlite cart snapshots that have not been written recently",
	Long: `Removes cart snapshots kept in the sqlite backend that were last written
before now minus --older-than. Redis carts expire on their own.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := sqlitedb.OpenMigrated(cmd.Context(), sqlitedb.Config{Path: cfg.Storage.SQLitePath})
		if err != nil {
			return err
		}
		defer db.Close()

		cutoff := time.Now().Add(-pruneOlderThan)
		n, err := cartsqlite.NewSnapshotStore(db).DeleteOlderThan(cmd.Context(), cutoff)
		if err != nil {
			return err
		}
		log.Info("cart snapshots pruned", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
		return nil
	},
}

func init() {
	cartsPruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour, "age after which a cart snapshot is deleted")
	cartsCmd.AddCommand(cartsPruneCmd)
}
