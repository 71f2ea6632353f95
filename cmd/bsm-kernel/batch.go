package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/contactkeval/bsm-kernel/internal/data"
	"github.com/contactkeval/bsm-kernel/internal/logger"
	"github.com/contactkeval/bsm-kernel/internal/pricing"
	"github.com/contactkeval/bsm-kernel/internal/report"
)

func newBatchCmd(a *app) *cobra.Command {
	var skipInvalid bool

	cmd := &cobra.Command{
		Use:   "batch <file.csv>",
		Short: "Price every row of a CSV batch file",
		Long: `Price every row of a CSV batch file in parallel.

Columns: id, spot, strike, valuation_date, expiry_date, vol_put, vol_call and
optionally ticker, rate, dividend_yield. Blank rate and dividend_yield cells
take the configured defaults. Rows with a ticker may leave spot, vol_put and
vol_call blank; those are fetched from Massive when a market API key is
configured. Output rows keep the file order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd, args[0], skipInvalid)
		},
	}
	cmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "log and skip rows that fail validation instead of aborting")
	return cmd
}

func (a *app) runBatch(cmd *cobra.Command, path string, skipInvalid bool) error {
	defaults := data.Defaults{Rate: a.cfg.Pricing.Rate, DividendYield: a.cfg.Pricing.DividendYield}
	var market data.Supplier
	if a.cfg.Market.APIKey != "" {
		market = data.NewMassiveSupplier(a.cfg.Market.APIKey, defaults, nil)
	}
	sup, err := data.NewCSVSupplier(path, defaults, market)
	if err != nil {
		return err
	}

	var (
		inputs    []data.Inputs
		contracts []pricing.Contract
	)
	for _, row := range sup.Rows() {
		in, err := sup.Inputs(cmd.Context(), data.Request{ID: row.ID})
		if err == nil {
			var c pricing.Contract
			if c, err = in.Contract(); err == nil {
				inputs = append(inputs, in)
				contracts = append(contracts, c)
				continue
			}
		}
		if !skipInvalid {
			return err
		}
		logger.Errorf("skipping: %v", err)
	}

	start := time.Now()
	results, err := pricing.ValueAll(cmd.Context(), contracts, a.cfg.Batch.Workers)
	if err != nil {
		return fmt.Errorf("batch valuation: %w", err)
	}
	logger.Infof("valued %d contracts in %v", len(results), time.Since(start))

	entries := make([]report.Entry, len(results))
	for i, res := range results {
		entries[i] = report.Entry{ID: inputs[i].ID, Ticker: inputs[i].Ticker, Result: res}
	}
	return a.emit(cmd, entries)
}
