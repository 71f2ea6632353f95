// Package data supplies the market inputs a pricing.Contract is built from.
//
// A Supplier answers one Request at a time. Implementations can be chained:
// when a supplier cannot answer it delegates to its Secondary, if any.
package data

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/contactkeval/bsm-kernel/internal/pricing"
)

// ErrNotFound is returned when a supplier has no data for a request and no
// secondary to ask.
var ErrNotFound = errors.New("market inputs not found")

// Supplier supplies market inputs.
type Supplier interface {
	Secondary() Supplier
	Inputs(ctx context.Context, req Request) (Inputs, error)
}

type DateMatchType string

const (
	MatchExact   DateMatchType = "exact"   // must match exactly
	MatchHigher  DateMatchType = "higher"  // next listed date after target
	MatchLower   DateMatchType = "lower"   // last listed date before target
	MatchNearest DateMatchType = "nearest" // closest listed date (default)
)

// Request identifies the contract whose inputs are wanted. ID is used by
// file-backed suppliers, Ticker by market-backed ones.
type Request struct {
	ID        string
	Ticker    string
	Strike    float64
	Valuation time.Time
	Expiry    time.Time

	// ListedExpiries, when set, snaps Expiry to a listed date using Match.
	ListedExpiries []time.Time
	Match          DateMatchType
}

// Inputs is one resolved set of contract inputs.
type Inputs struct {
	ID            string
	Ticker        string
	Spot          float64
	Strike        float64
	Valuation     time.Time
	Expiry        time.Time
	Rate          float64
	DividendYield float64
	Vols          pricing.LegPair[float64]
}

// Contract validates in and builds the pricing contract.
func (in Inputs) Contract() (pricing.Contract, error) {
	c, err := pricing.NewContract(
		in.Spot, in.Strike,
		in.Valuation, in.Expiry,
		in.Rate, in.Vols,
		pricing.WithDividendYield(in.DividendYield),
	)
	if err != nil {
		return pricing.Contract{}, fmt.Errorf("contract %s: %w", in.label(), err)
	}
	return c, nil
}

func (in Inputs) label() string {
	if in.ID != "" {
		return in.ID
	}
	return in.Ticker
}

// Defaults are the rate and dividend yield applied when a source does not
// carry its own.
type Defaults struct {
	Rate          float64
	DividendYield float64
}

// resolveExpiry applies req.ListedExpiries, if any, to req.Expiry.
func resolveExpiry(req Request) (time.Time, error) {
	if len(req.ListedExpiries) == 0 {
		return req.Expiry, nil
	}
	return MatchExpiry(req.Expiry, req.ListedExpiries, req.Match)
}

// --------------------------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------------------------

// OptionSymbol formats an OCC option ticker as used by Massive:
// O:<root><YYMMDD><C|P><strike*1000 padded to 8 digits>.
func OptionSymbol(underlying string, expiry time.Time, leg pricing.Leg, strike float64) string {
	optType := "C"
	if leg == pricing.Put {
		optType = "P"
	}
	strikeInt := int(math.Round(strike * 1000))
	return fmt.Sprintf("O:%s%s%s%08d", strings.ToUpper(underlying), expiry.Format("060102"), optType, strikeInt)
}

// MatchExpiry picks the listed date matching target under mode. Unknown
// modes fall back to MatchNearest; ties go to the earlier date. listed is
// not modified.
func MatchExpiry(target time.Time, listed []time.Time, mode DateMatchType) (time.Time, error) {
	var (
		exact  time.Time
		lower  time.Time
		higher time.Time
	)

	switch mode {
	case MatchExact, MatchHigher, MatchLower, MatchNearest:
	default:
		mode = MatchNearest
	}

	dates := append([]time.Time(nil), listed...)
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	for _, dt := range dates {
		if dt.Equal(target) {
			exact = dt
		}
		if dt.Before(target) {
			lower = dt // keeps the last one before target
		}
		if dt.After(target) && higher.IsZero() {
			higher = dt
		}
	}

	var found time.Time
	switch mode {
	case MatchExact:
		found = exact
	case MatchLower:
		found = lower
	case MatchHigher:
		found = higher
	case MatchNearest:
		switch {
		case !exact.IsZero():
			found = exact
		case !lower.IsZero() && !higher.IsZero():
			found = higher
			if target.Sub(lower) <= higher.Sub(target) {
				found = lower
			}
		case !lower.IsZero():
			found = lower
		default:
			found = higher
		}
	}

	if found.IsZero() {
		return time.Time{}, fmt.Errorf("no %s listed expiry for %s: %w", mode, target.Format(time.DateOnly), ErrNotFound)
	}
	return found, nil
}
