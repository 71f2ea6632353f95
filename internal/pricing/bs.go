package pricing

import "math"

// legTerms is everything the closed form needs for one leg. When degenerate
// is set the leg has no diffusion left (τ = 0, or σ√τ underflowed to zero)
// and d1/d2 are left at zero rather than ±Inf.
type legTerms struct {
	sigma      float64
	sqrtT      float64
	d1, d2     float64
	degenerate bool
}

// discounting holds the two discount factors shared by both legs.
type discounting struct {
	div  float64 // e^{-qτ}
	rate float64 // e^{-rτ}
}

func discountsFor(c Contract) discounting {
	return discounting{
		div:  math.Exp(-c.dividendYield * c.tau),
		rate: math.Exp(-c.rate * c.tau),
	}
}

// termsFor derives d1 and d2 for leg l. d2 is taken from d1 so the pair stays
// consistent and the log term is evaluated once.
func termsFor(c Contract, l Leg) legTerms {
	sigma := c.vol.Get(l)
	sqrtT := math.Sqrt(c.tau)
	t := legTerms{sigma: sigma, sqrtT: sqrtT}

	volTime := sigma * sqrtT
	if volTime == 0 {
		t.degenerate = true
		return t
	}

	t.d1 = (math.Log(c.spot/c.strike) + (c.rate-c.dividendYield+0.5*sigma*sigma)*c.tau) / volTime
	t.d2 = t.d1 - volTime
	return t
}

// D1D2 returns d1 and d2 for leg l of contract c.
//
// At the degenerate boundary (τ = 0) both are reported as zero; check
// c.Expired() before reading them as distribution arguments.
func D1D2(c Contract, l Leg) (d1, d2 float64) {
	t := termsFor(c, l)
	return t.d1, t.d2
}

// Valuation is the present value of both legs together with the d1/d2 pairs
// that produced them. It is computed on demand by Value and never mutated.
type Valuation struct {
	D1      LegPair[float64] `json:"d1"`
	D2      LegPair[float64] `json:"d2"`
	Price   LegPair[float64] `json:"price"`
	Expired bool             `json:"expired"`
}

func (v Valuation) PutPrice() float64  { return v.Price.Put }
func (v Valuation) CallPrice() float64 { return v.Price.Call }

// Value prices the put and the call of contract c under Black-Scholes-Merton
// with continuous dividend yield.
//
//	call = S·e^{-qτ}·Φ(d1) − K·e^{-rτ}·Φ(d2)
//	put  = K·e^{-rτ}·Φ(−d2) − S·e^{-qτ}·Φ(−d1)
//
// Each leg is evaluated with its own volatility. When both volatilities are
// equal the result is the classical single-volatility price and put-call
// parity holds.
//
// At τ = 0 the closed form would divide by zero, so each leg is returned at
// its intrinsic value instead: max(S·e^{-qτ} − K·e^{-rτ}, 0) for the call and
// the mirror image for the put. Prices are never negative.
func Value(c Contract) Valuation {
	disc := discountsFor(c)
	v := Valuation{Expired: c.Expired()}

	for _, l := range Legs {
		t := termsFor(c, l)
		p := legPrice(c, l, t, disc)
		switch l {
		case Put:
			v.D1.Put, v.D2.Put, v.Price.Put = t.d1, t.d2, p
		case Call:
			v.D1.Call, v.D2.Call, v.Price.Call = t.d1, t.d2, p
		}
	}
	return v
}

// Price is a convenience for the value of a single leg.
func Price(c Contract, l Leg) float64 {
	return legPrice(c, l, termsFor(c, l), discountsFor(c))
}

func legPrice(c Contract, l Leg, t legTerms, disc discounting) float64 {
	fwdSpot := c.spot * disc.div
	fwdStrike := c.strike * disc.rate

	if t.degenerate {
		return intrinsic(l, fwdSpot, fwdStrike)
	}

	var p float64
	switch l {
	case Call:
		p = fwdSpot*normCDF(t.d1) - fwdStrike*normCDF(t.d2)
	case Put:
		p = fwdStrike*normCDF(-t.d2) - fwdSpot*normCDF(-t.d1)
	}
	// far out of the money the two terms cancel to a few ulps below zero
	return math.Max(p, 0)
}

func intrinsic(l Leg, fwdSpot, fwdStrike float64) float64 {
	if l == Call {
		return math.Max(fwdSpot-fwdStrike, 0)
	}
	return math.Max(fwdStrike-fwdSpot, 0)
}
