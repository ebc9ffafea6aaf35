// Package main provides the valuation command-line interface.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"property-valuation-engine/internal/config"
	"property-valuation-engine/internal/services/analysis"
	"property-valuation-engine/internal/services/database"
	"property-valuation-engine/internal/utils"
)

var (
	cfg        *config.Config
	configFile string
	storeFlag  string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:           "valuation",
	Short:         "Comparable-sales property valuation",
	Long:          "Finds comparable properties with a progressively widening search and values a property from their adjusted price per square foot.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			if err := os.Setenv("VALUATION_CONFIG_FILE", configFile); err != nil {
				return err
			}
		}

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if storeFlag != "" {
			c.StoreDriver = storeFlag
		}
		cfg = c

		if err := utils.InitLogger(cfg.LogLevel); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		utils.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "search configuration file (default valuation.yaml)")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "property store driver: postgres or sqlite")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")
}

func openService(ctx context.Context) (*analysis.Service, database.PropertyStore, error) {
	return analysis.Open(ctx, cfg)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
