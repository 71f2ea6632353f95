package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/contactkeval/bsm-kernel/internal/data"
	"github.com/contactkeval/bsm-kernel/internal/logger"
	"github.com/contactkeval/bsm-kernel/internal/pricing"
	"github.com/contactkeval/bsm-kernel/internal/report"
)

type priceOptions struct {
	id        string
	ticker    string
	spot      float64
	strike    float64
	valuation string
	expiry    string
	vol       float64
	volPut    float64
	volCall   float64
	listed    []string
	match     string
}

func newPriceCmd(a *app) *cobra.Command {
	o := &priceOptions{}

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price one strike/expiry pair",
		Long: `Price the put and the call of one strike/expiry pair and report their Greeks.

Spot and volatility come from flags, or from Massive market data when --ticker
is given and an API key is configured. Flag values then act as the fallback.`,
		Example: `  bsm-kernel price --spot 42 --strike 40 --expiry 2025-06-20 --vol 0.2 --rate 0.1
  bsm-kernel price --ticker SPY --strike 580 --expiry 2025-01-17 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPrice(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.id, "id", "", "identifier echoed in the report (default: ticker or \"contract\")")
	f.StringVar(&o.ticker, "ticker", "", "underlying ticker for market data lookup")
	f.Float64Var(&o.spot, "spot", 0, "underlying spot price")
	f.Float64Var(&o.strike, "strike", 0, "option strike")
	f.StringVar(&o.valuation, "valuation", "", "valuation date YYYY-MM-DD (default: today)")
	f.StringVar(&o.expiry, "expiry", "", "expiry date YYYY-MM-DD")
	f.Float64Var(&o.vol, "vol", 0, "volatility for both legs")
	f.Float64Var(&o.volPut, "vol-put", 0, "put leg volatility (overrides --vol)")
	f.Float64Var(&o.volCall, "vol-call", 0, "call leg volatility (overrides --vol)")
	f.StringSliceVar(&o.listed, "listed", nil, "listed expiries to snap --expiry to, YYYY-MM-DD")
	f.StringVar(&o.match, "match", string(data.MatchNearest), "expiry matching: exact, higher, lower or nearest")
	_ = cmd.MarkFlagRequired("strike")
	_ = cmd.MarkFlagRequired("expiry")
	return cmd
}

func (o *priceOptions) vols() pricing.LegPair[float64] {
	v := pricing.Both(o.vol)
	if o.volPut != 0 {
		v.Put = o.volPut
	}
	if o.volCall != 0 {
		v.Call = o.volCall
	}
	return v
}

func (o *priceOptions) request() (data.Request, error) {
	valuation := time.Now()
	if o.valuation != "" {
		d, err := time.Parse(time.DateOnly, o.valuation)
		if err != nil {
			return data.Request{}, fmt.Errorf("--valuation: %w", err)
		}
		valuation = d
	}
	expiry, err := time.Parse(time.DateOnly, o.expiry)
	if err != nil {
		return data.Request{}, fmt.Errorf("--expiry: %w", err)
	}

	req := data.Request{
		ID:        o.id,
		Ticker:    strings.ToUpper(o.ticker),
		Strike:    o.strike,
		Valuation: valuation,
		Expiry:    expiry,
		Match:     data.DateMatchType(o.match),
	}
	for _, s := range o.listed {
		d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
		if err != nil {
			return data.Request{}, fmt.Errorf("--listed: %w", err)
		}
		req.ListedExpiries = append(req.ListedExpiries, d)
	}
	if req.ID == "" {
		req.ID = req.Ticker
	}
	if req.ID == "" {
		req.ID = "contract"
	}
	return req, nil
}

// supplier picks the market supplier when a ticker and key are available,
// keeping the flag values as its fallback.
func (a *app) supplier(o *priceOptions) (data.Supplier, error) {
	defaults := data.Defaults{Rate: a.cfg.Pricing.Rate, DividendYield: a.cfg.Pricing.DividendYield}

	var static data.Supplier
	if o.spot != 0 {
		static = data.NewStaticSupplier(o.spot, o.vols(), defaults)
	}

	if o.ticker != "" && a.cfg.Market.APIKey != "" {
		return data.NewMassiveSupplier(a.cfg.Market.APIKey, defaults, static), nil
	}
	if o.ticker != "" {
		logger.Infof("no market API key configured, using flag inputs for %s", o.ticker)
	}
	if static == nil {
		return nil, errors.New("--spot is required without market data")
	}
	return static, nil
}

func (a *app) runPrice(cmd *cobra.Command, o *priceOptions) error {
	req, err := o.request()
	if err != nil {
		return err
	}
	sup, err := a.supplier(o)
	if err != nil {
		return err
	}

	in, err := sup.Inputs(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("resolve inputs: %w", err)
	}
	c, err := in.Contract()
	if err != nil {
		return err
	}

	logger.Debugf("pricing %s: S=%g K=%g tau=%g r=%g q=%g vols=%+v",
		req.ID, c.Spot(), c.Strike(), c.Tau(), c.Rate(), c.DividendYield(), c.Vols())

	entry := report.Entry{ID: req.ID, Ticker: req.Ticker, Result: pricing.Evaluate(c)}
	return a.emit(cmd, []report.Entry{entry})
}

// emit writes entries to stdout in the configured format and, when an
// output directory is configured, to files as well.
func (a *app) emit(cmd *cobra.Command, entries []report.Entry) error {
	rows := report.BuildRows(entries, a.cfg.Output.Precision)
	if err := report.Write(cmd.OutOrStdout(), a.cfg.Output.Format, rows); err != nil {
		return err
	}
	if dir := a.cfg.Output.Dir; dir != "" {
		if err := report.WriteFiles(dir, rows); err != nil {
			return err
		}
		logger.Infof("wrote %d results to %s", len(rows), dir)
	}
	return nil
}
