package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"property-valuation-engine/internal/models"
	"property-valuation-engine/internal/services/database"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <address>",
	Short: "Find properties by street address",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		svc, store, err := openService(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		query := strings.Join(args, " ")
		properties, err := svc.SearchByAddress(ctx, query, searchLimit)
		if err != nil {
			return err
		}

		summaries := make([]models.PropertySummary, len(properties))
		for i, p := range properties {
			summaries[i] = p.ToSummary()
		}

		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(summaries)
		}

		if len(summaries) == 0 {
			fmt.Fprintf(out, "No properties found matching '%s'\n", query)
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ACCOUNT\tADDRESS\tCITY\tZIP\tNEIGHBORHOOD\tGRADE")
		for _, s := range summaries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				s.AccountNumber, s.StreetAddress, s.City, s.ZipCode, s.NeighborhoodCode, s.Grade)
		}
		return tw.Flush()
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", database.DefaultSearchLimit, "maximum results")
	rootCmd.AddCommand(searchCmd)
}
