package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"property-valuation-engine/internal/models"
	"property-valuation-engine/internal/utils"
)

var valueConcurrency int

// valueOutcome pairs an account with its analysis or failure.
type valueOutcome struct {
	AccountNumber string                   `json:"account_number"`
	Analysis      *models.PropertyAnalysis `json:"analysis,omitempty"`
	Error         string                   `json:"error,omitempty"`
}

// accountAnalyzer values a single account.
type accountAnalyzer interface {
	Analyze(ctx context.Context, accountNumber string) (*models.PropertyAnalysis, error)
}

var valueCmd = &cobra.Command{
	Use:   "value <account>...",
	Short: "Value one or more properties by account number",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		svc, store, err := openService(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		outcomes, err := valueAccounts(ctx, svc, args, valueConcurrency)
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(outcomes); err != nil {
				return err
			}
		} else if err := writeValueTable(out, outcomes); err != nil {
			return err
		}

		failed := 0
		for _, o := range outcomes {
			if o.Analysis == nil {
				failed++
			}
		}
		if failed == len(outcomes) {
			return fmt.Errorf("all %d valuations failed", failed)
		}
		return nil
	},
}

// valueAccounts values every account with at most concurrency analyses in
// flight. A failed account is recorded in its outcome; the returned error is
// reserved for cancellation.
func valueAccounts(ctx context.Context, analyzer accountAnalyzer, accounts []string, concurrency int) ([]valueOutcome, error) {
	outcomes := make([]valueOutcome, len(accounts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	for i, account := range accounts {
		i, account := i, account
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i].AccountNumber = account
			result, err := analyzer.Analyze(gctx, account)
			if err != nil {
				utils.GetLogger().Warn("valuation failed",
					zap.String("account_number", account),
					zap.Error(err),
				)
				outcomes[i].Error = err.Error()
				return nil
			}
			outcomes[i].Analysis = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func writeValueTable(w io.Writer, outcomes []valueOutcome) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tADDRESS\tVALUE\tMEDIAN $/SQFT\tCOMPS\tLEVEL")
	for _, o := range outcomes {
		if o.Analysis == nil {
			fmt.Fprintf(tw, "%s\t-\terror: %s\t\t\t\n", o.AccountNumber, o.Error)
			continue
		}
		a := o.Analysis
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%d\t%s\n",
			a.ReferenceProperty.AccountNumber,
			a.ReferenceProperty.StreetAddress,
			a.ValueAnalysis.FinalAdjustedValue,
			a.ValueAnalysis.MedianPricePerSqft,
			a.NumCompsFound,
			a.SearchExpansionLevel,
		)
	}
	return tw.Flush()
}

func init() {
	valueCmd.Flags().IntVar(&valueConcurrency, "concurrency", 4, "maximum valuations in flight")
	rootCmd.AddCommand(valueCmd)
}
