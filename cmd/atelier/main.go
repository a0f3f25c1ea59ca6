package main

import (
	"fmt"
	"os"

	"github.com/dwikikusuma/atelier/pkg/config"
	"github.com/dwikikusuma/atelier/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "atelier",
	Short: "Storefront for an artist's prints",
	Long: `atelier serves the print shop: catalog browsing, a per-session
shopping cart and hosted checkout.

Configuration comes from CONFIG_FILE (yaml) and environment overrides.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		log, err = logger.New(logger.Options{
			Service:   "atelier",
			Env:       cfg.AppEnv,
			Level:     cfg.LogLevel,
			AddSource: true,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, importCmd, cartsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
