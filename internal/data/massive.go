// This file contains a Massive-backed Supplier that resolves spot from the
// previous daily close and per-leg volatility from option contract
// snapshots.
package data

import (
	"context"
	"fmt"
	"strings"

	massive "github.com/massive-com/client-go/v2/rest"
	"github.com/massive-com/client-go/v2/rest/models"

	"github.com/contactkeval/bsm-kernel/internal/logger"
	"github.com/contactkeval/bsm-kernel/internal/pricing"
)

// massiveAPI is the slice of the Massive REST client used here.
type massiveAPI interface {
	GetPreviousCloseAgg(ctx context.Context, params *models.GetPreviousCloseAggParams, opts ...models.RequestOption) (*models.GetPreviousCloseAggResponse, error)
	GetOptionContractSnapshot(ctx context.Context, params *models.GetOptionContractSnapshotParams, opts ...models.RequestOption) (*models.GetOptionContractSnapshotResponse, error)
}

// massiveSupplier implements Supplier on top of the Massive REST API.
type massiveSupplier struct {
	client    massiveAPI
	defaults  Defaults
	secondary Supplier
}

// NewMassiveSupplier constructs a Massive-backed supplier.
//
// Parameters:
//   - apiKey: Massive API key for authentication
//   - defaults: rate and dividend yield, which Massive does not provide
//   - secondary: optional fallback, asked when a lookup fails
func NewMassiveSupplier(apiKey string, defaults Defaults, secondary Supplier) Supplier {
	logger.Infof("initializing Massive market supplier")
	return newMassiveSupplier(massive.New(apiKey), defaults, secondary)
}

func newMassiveSupplier(client massiveAPI, defaults Defaults, secondary Supplier) *massiveSupplier {
	return &massiveSupplier{client: client, defaults: defaults, secondary: secondary}
}

func (m *massiveSupplier) Secondary() Supplier {
	return m.secondary
}

// Inputs resolves spot and both leg volatilities for req.Ticker.
//
// The expiry is first snapped to req.ListedExpiries when given. Any lookup
// failure is handed to the secondary supplier if one is configured.
func (m *massiveSupplier) Inputs(ctx context.Context, req Request) (Inputs, error) {
	in, err := m.lookup(ctx, req)
	if err == nil {
		return in, nil
	}
	if m.secondary != nil {
		logger.Debugf("massive lookup for %s failed (%v), delegating to secondary", req.Ticker, err)
		return m.secondary.Inputs(ctx, req)
	}
	return Inputs{}, err
}

func (m *massiveSupplier) lookup(ctx context.Context, req Request) (Inputs, error) {
	if req.Ticker == "" {
		return Inputs{}, fmt.Errorf("massive: ticker required")
	}
	expiry, err := resolveExpiry(req)
	if err != nil {
		return Inputs{}, err
	}

	spot, err := m.spot(ctx, req.Ticker)
	if err != nil {
		return Inputs{}, err
	}

	var vols pricing.LegPair[float64]
	for _, l := range pricing.Legs {
		symbol := OptionSymbol(req.Ticker, expiry, l, req.Strike)
		iv, err := m.impliedVol(ctx, req.Ticker, symbol)
		if err != nil {
			return Inputs{}, err
		}
		switch l {
		case pricing.Put:
			vols.Put = iv
		case pricing.Call:
			vols.Call = iv
		}
	}

	logger.Debugf("massive inputs %s: spot=%.4f vol_put=%.4f vol_call=%.4f", req.Ticker, spot, vols.Put, vols.Call)

	return Inputs{
		ID:            req.ID,
		Ticker:        req.Ticker,
		Spot:          spot,
		Strike:        req.Strike,
		Valuation:     req.Valuation,
		Expiry:        expiry,
		Rate:          m.defaults.Rate,
		DividendYield: m.defaults.DividendYield,
		Vols:          vols,
	}, nil
}

func (m *massiveSupplier) spot(ctx context.Context, ticker string) (float64, error) {
	logger.Tracef("fetching previous close: %s", ticker)

	resp, err := m.client.GetPreviousCloseAgg(ctx, &models.GetPreviousCloseAggParams{
		Ticker: strings.ToUpper(ticker),
	})
	if err != nil {
		return 0, fmt.Errorf("massive previous close %s: %w", ticker, err)
	}
	if resp == nil || len(resp.Results) == 0 {
		return 0, fmt.Errorf("massive previous close %s: %w", ticker, ErrNotFound)
	}
	return resp.Results[len(resp.Results)-1].Close, nil
}

func (m *massiveSupplier) impliedVol(ctx context.Context, ticker, symbol string) (float64, error) {
	logger.Tracef("fetching option snapshot: %s", symbol)

	resp, err := m.client.GetOptionContractSnapshot(ctx, &models.GetOptionContractSnapshotParams{
		UnderlyingAsset: strings.ToUpper(ticker),
		OptionContract:  symbol,
	})
	if err != nil {
		return 0, fmt.Errorf("massive snapshot %s: %w", symbol, err)
	}
	if resp == nil || resp.Results.ImpliedVolatility <= 0 {
		return 0, fmt.Errorf("massive snapshot %s: no implied volatility: %w", symbol, ErrNotFound)
	}
	return resp.Results.ImpliedVolatility, nil
}
