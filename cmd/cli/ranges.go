package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"property-valuation-engine/internal/models"
)

// rungRanges is one ladder rung and the ranges it produces for a subject.
type rungRanges struct {
	Level     string                 `json:"level"`
	Tolerance models.ToleranceParams `json:"tolerance"`
	Ranges    models.RangeSet        `json:"ranges"`
}

var rangesCmd = &cobra.Command{
	Use:   "ranges <account>",
	Short: "Show the search ranges for every widening step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		svc, store, err := openService(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		subject, err := svc.GetProperty(ctx, args[0])
		if err != nil {
			return err
		}

		ladder := svc.Ladder()
		sets := svc.Ranges(subject)
		rungs := make([]rungRanges, len(sets))
		for i, set := range sets {
			rungs[i] = rungRanges{Level: models.ExpansionLevel(i), Tolerance: ladder[i], Ranges: set}
		}

		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rungs)
		}

		fmt.Fprintf(out, "%s  %s  (neighborhood %s, grade %s)\n\n",
			subject.AccountNumber, subject.StreetAddress, subject.NeighborhoodCode, subject.Grade)

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "LEVEL\tYEAR\tBUILDING AREA\tLAND AREA\tCDU")
		for _, r := range rungs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				r.Level,
				formatIntRange(r.Ranges.YearRange),
				formatFloatRange(r.Ranges.BuildingAreaRange, 0),
				formatFloatRange(r.Ranges.LandAreaRange, 0),
				formatFloatRange(r.Ranges.CDURange, 2),
			)
		}
		return tw.Flush()
	},
}

func formatIntRange(r models.IntRange) string {
	if r.Max == nil {
		return fmt.Sprintf("%d+", r.Min)
	}
	return fmt.Sprintf("%d-%d", r.Min, *r.Max)
}

func formatFloatRange(r models.FloatRange, precision int) string {
	lo := strconv.FormatFloat(r.Min, 'f', precision, 64)
	if r.Max == nil {
		return lo + "+"
	}
	return lo + "-" + strconv.FormatFloat(*r.Max, 'f', precision, 64)
}

func init() {
	rootCmd.AddCommand(rangesCmd)
}
