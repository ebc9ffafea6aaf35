package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"property-valuation-engine/internal/services/database"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file.json>",
	Short: "Load property records into a local store",
	Long: `Reads a JSON array of property records keyed by the API field names and
upserts them by account number. Numeric fields may be numbers or strings such
as "1,250"; values that do not parse are stored as empty. Only stores that
support writes (sqlite) can be seeded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		properties, err := database.DecodeSeedRecords(f)
		if err != nil {
			return err
		}

		store, err := database.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to open property store: %w", err)
		}
		defer store.Close()

		writer, ok := store.(database.PropertyWriter)
		if !ok {
			return fmt.Errorf("store driver %q cannot be seeded", cfg.StoreDriver)
		}
		if err := writer.UpsertProperties(ctx, properties); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d properties into %s\n", len(properties), cfg.StoreDriver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
