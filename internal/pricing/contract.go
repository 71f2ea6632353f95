package pricing

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DaysPerYear is the day-count basis used to turn calendar days into τ.
const DaysPerYear = 365.0

// ErrInvalidInput is the sentinel wrapped by every InvalidInputError.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports a contract input that violates an invariant.
// Field names the offending input so callers can surface it directly.
type InvalidInputError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// Contract is an immutable snapshot of the economic inputs for one
// strike/expiry pair. The zero value is not valid; build one with
// NewContract or NewContractWithTau.
type Contract struct {
	spot          float64
	strike        float64
	valuation     time.Time
	expiry        time.Time
	tau           float64
	rate          float64
	dividendYield float64
	vol           LegPair[float64]
}

// ContractOption customises optional contract inputs.
type ContractOption func(*Contract)

// WithDividendYield sets the continuously compounded dividend yield q.
func WithDividendYield(q float64) ContractOption {
	return func(c *Contract) { c.dividendYield = q }
}

// NewContract validates the inputs and returns a Contract.
//
// Parameters:
//   - spot: current underlying price, > 0
//   - strike: option strike, > 0
//   - valuation, expiry: calendar dates; only the date part is used
//   - rate: continuously compounded risk-free rate (may be negative)
//   - vols: implied volatility per leg, both > 0
//
// Time to expiry is the whole number of calendar days between the two dates
// divided by DaysPerYear. An expiry equal to the valuation date is accepted
// and priced as the degenerate at-expiry case; an expiry before it is not.
// A rate or dividend yield so negative that K·e^{-rτ} or S·e^{-qτ} overflows
// is rejected.
func NewContract(
	spot, strike float64,
	valuation, expiry time.Time,
	rate float64,
	vols LegPair[float64],
	opts ...ContractOption,
) (Contract, error) {

	days := daysBetween(valuation, expiry)
	if days < 0 {
		return Contract{}, &InvalidInputError{
			Field:  "expiry_date",
			Value:  expiry.Format(time.DateOnly),
			Reason: "before valuation date " + valuation.Format(time.DateOnly),
		}
	}

	c, err := newContract(spot, strike, float64(days)/DaysPerYear, rate, vols, opts)
	if err != nil {
		return Contract{}, err
	}
	c.valuation = dateOf(valuation)
	c.expiry = dateOf(expiry)
	return c, nil
}

// NewContractWithTau is NewContract for callers that already hold time to
// expiry as a year fraction. The valuation and expiry dates are left zero.
func NewContractWithTau(
	spot, strike, tau, rate float64,
	vols LegPair[float64],
	opts ...ContractOption,
) (Contract, error) {
	return newContract(spot, strike, tau, rate, vols, opts)
}

func newContract(spot, strike, tau, rate float64, vols LegPair[float64], opts []ContractOption) (Contract, error) {
	c := Contract{
		spot:   spot,
		strike: strike,
		tau:    tau,
		rate:   rate,
		vol:    vols,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.validate(); err != nil {
		return Contract{}, err
	}
	return c, nil
}

func (c Contract) validate() error {
	if err := checkPositive("spot", c.spot); err != nil {
		return err
	}
	if err := checkPositive("strike", c.strike); err != nil {
		return err
	}
	if err := checkPositive("vol_put", c.vol.Put); err != nil {
		return err
	}
	if err := checkPositive("vol_call", c.vol.Call); err != nil {
		return err
	}
	if err := checkFinite("rate", c.rate); err != nil {
		return err
	}
	if err := checkFinite("dividend_yield", c.dividendYield); err != nil {
		return err
	}
	if err := checkFinite("time_to_expiry", c.tau); err != nil {
		return err
	}
	if c.tau < 0 {
		return &InvalidInputError{Field: "time_to_expiry", Value: c.tau, Reason: "must be non-negative"}
	}
	// forward spot and discounted strike must stay representable over τ
	if fwd := c.strike * math.Exp(-c.rate*c.tau); math.IsInf(fwd, 0) {
		return &InvalidInputError{Field: "rate", Value: c.rate, Reason: "discount factor overflows over time to expiry"}
	}
	if fwd := c.spot * math.Exp(-c.dividendYield*c.tau); math.IsInf(fwd, 0) {
		return &InvalidInputError{Field: "dividend_yield", Value: c.dividendYield, Reason: "dividend discount factor overflows over time to expiry"}
	}
	return nil
}

func checkPositive(field string, v float64) error {
	if err := checkFinite(field, v); err != nil {
		return err
	}
	if v <= 0 {
		return &InvalidInputError{Field: field, Value: v, Reason: "must be positive"}
	}
	return nil
}

func checkFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidInputError{Field: field, Value: v, Reason: "must be finite"}
	}
	return nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar days, ignoring clock time and DST shifts.
func daysBetween(from, to time.Time) int {
	return int(math.Round(dateOf(to).Sub(dateOf(from)).Hours() / 24))
}

func (c Contract) Spot() float64            { return c.spot }
func (c Contract) Strike() float64          { return c.strike }
func (c Contract) Rate() float64            { return c.rate }
func (c Contract) DividendYield() float64   { return c.dividendYield }
func (c Contract) Vols() LegPair[float64]   { return c.vol }
func (c Contract) Vol(l Leg) float64        { return c.vol.Get(l) }
func (c Contract) ValuationDate() time.Time { return c.valuation }
func (c Contract) ExpiryDate() time.Time    { return c.expiry }

// Tau is time to expiry in years.
func (c Contract) Tau() float64 { return c.tau }

// Expired reports whether the contract sits on the τ = 0 boundary.
func (c Contract) Expired() bool { return c.tau == 0 }
