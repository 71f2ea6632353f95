package data

import (
	"context"

	"github.com/contactkeval/bsm-kernel/internal/pricing"
)

// staticSupplier answers every request with fixed spot and volatility,
// typically taken from command-line flags.
type staticSupplier struct {
	spot     float64
	vols     pricing.LegPair[float64]
	defaults Defaults
}

// NewStaticSupplier returns a Supplier that echoes the request's strike and
// dates with the given spot, vols and defaults.
func NewStaticSupplier(spot float64, vols pricing.LegPair[float64], defaults Defaults) Supplier {
	return &staticSupplier{spot: spot, vols: vols, defaults: defaults}
}

// Secondary is always nil: a static supplier answers every request.
func (s *staticSupplier) Secondary() Supplier {
	return nil
}

func (s *staticSupplier) Inputs(_ context.Context, req Request) (Inputs, error) {
	expiry, err := resolveExpiry(req)
	if err != nil {
		return Inputs{}, err
	}
	return Inputs{
		ID:            req.ID,
		Ticker:        req.Ticker,
		Spot:          s.spot,
		Strike:        req.Strike,
		Valuation:     req.Valuation,
		Expiry:        expiry,
		Rate:          s.defaults.Rate,
		DividendYield: s.defaults.DividendYield,
		Vols:          s.vols,
	}, nil
}
