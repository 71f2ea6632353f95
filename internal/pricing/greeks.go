package pricing

import "math"

// pointScale converts a per-unit sensitivity into a per-percentage-point one.
const pointScale = 0.01

// Greeks are the first and second order sensitivities of both legs.
//
// Every field holds the raw annualized derivative: Theta is per year, Vega is
// per unit of volatility (1.00 = 100 vol points) and Rho is per unit of rate.
// The market-convention views (daily theta, per 1% vega and rho) are exposed
// through accessor methods so that the stored values stay usable for
// finite-difference cross checks.
type Greeks struct {
	Delta LegPair[float64] `json:"delta"`
	Gamma LegPair[float64] `json:"gamma"`
	Theta LegPair[float64] `json:"theta"`
	Vega  LegPair[float64] `json:"vega"`
	Rho   LegPair[float64] `json:"rho"`
}

// ThetaDaily is Theta divided by DaysPerYear. It is a scaling convenience for
// quoting day-by-day decay, not a separate model.
func (g Greeks) ThetaDaily() LegPair[float64] {
	return Scale(g.Theta, 1/DaysPerYear)
}

// VegaPerPoint is the price change for a one percentage point move in
// volatility (Vega × 0.01).
func (g Greeks) VegaPerPoint() LegPair[float64] {
	return Scale(g.Vega, pointScale)
}

// RhoPerPoint is the price change for a one percentage point move in the
// risk-free rate (Rho × 0.01).
func (g Greeks) RhoPerPoint() LegPair[float64] {
	return Scale(g.Rho, pointScale)
}

// GreeksTable is the flat, presentation-scaled form of Greeks: Vega and Rho
// per 1%, Theta both per year and per day.
type GreeksTable struct {
	DeltaPut       float64 `json:"delta_put"`
	DeltaCall      float64 `json:"delta_call"`
	ThetaPut       float64 `json:"theta_put"`
	ThetaCall      float64 `json:"theta_call"`
	ThetaPutDaily  float64 `json:"theta_put_daily"`
	ThetaCallDaily float64 `json:"theta_call_daily"`
	GammaPut       float64 `json:"gamma_put"`
	GammaCall      float64 `json:"gamma_call"`
	VegaPut        float64 `json:"vega_put"`
	VegaCall       float64 `json:"vega_call"`
	RhoPut         float64 `json:"rho_put"`
	RhoCall        float64 `json:"rho_call"`
}

// Table flattens g into its presentation form.
func (g Greeks) Table() GreeksTable {
	daily := g.ThetaDaily()
	vega := g.VegaPerPoint()
	rho := g.RhoPerPoint()
	return GreeksTable{
		DeltaPut:       g.Delta.Put,
		DeltaCall:      g.Delta.Call,
		ThetaPut:       g.Theta.Put,
		ThetaCall:      g.Theta.Call,
		ThetaPutDaily:  daily.Put,
		ThetaCallDaily: daily.Call,
		GammaPut:       g.Gamma.Put,
		GammaCall:      g.Gamma.Call,
		VegaPut:        vega.Put,
		VegaCall:       vega.Call,
		RhoPut:         rho.Put,
		RhoCall:        rho.Call,
	}
}

// legGreeks is the per-leg slice of Greeks.
type legGreeks struct {
	delta, gamma, theta, vega, rho float64
}

// ComputeGreeks returns the analytic Greeks of both legs of c, each leg
// using its own d1/d2.
//
//	Delta  call  e^{-qτ}Φ(d1)              put  e^{-qτ}(Φ(d1) − 1)
//	Gamma        e^{-qτ}φ(d1) / (Sσ√τ)
//	Vega         S·e^{-qτ}φ(d1)√τ
//	Theta  call  −S·e^{-qτ}φ(d1)σ/(2√τ) − rK·e^{-rτ}Φ(d2)  + qS·e^{-qτ}Φ(d1)
//	       put   −S·e^{-qτ}φ(d1)σ/(2√τ) + rK·e^{-rτ}Φ(−d2) − qS·e^{-qτ}Φ(−d1)
//	Rho    call  Kτ·e^{-rτ}Φ(d2)            put  −Kτ·e^{-rτ}Φ(−d2)
//
// With q = 0 these are the textbook Black-Scholes Greeks.
//
// At τ = 0 the position has settled and only Delta keeps a meaning: it is
// reported as the limiting indicator (1 for an in-the-money call, −1 for an
// in-the-money put, 0 otherwise) and Gamma, Theta, Vega and Rho are reported
// as zero. This is a reporting policy, the derivatives themselves do not
// exist at that point.
func ComputeGreeks(c Contract) Greeks {
	disc := discountsFor(c)
	put := greeksFor(c, Put, termsFor(c, Put), disc)
	call := greeksFor(c, Call, termsFor(c, Call), disc)

	return Greeks{
		Delta: LegPair[float64]{Put: put.delta, Call: call.delta},
		Gamma: LegPair[float64]{Put: put.gamma, Call: call.gamma},
		Theta: LegPair[float64]{Put: put.theta, Call: call.theta},
		Vega:  LegPair[float64]{Put: put.vega, Call: call.vega},
		Rho:   LegPair[float64]{Put: put.rho, Call: call.rho},
	}
}

func greeksFor(c Contract, l Leg, t legTerms, disc discounting) legGreeks {
	S, K, tau := c.spot, c.strike, c.tau

	if t.degenerate {
		return legGreeks{delta: disc.div * expiryDelta(l, S*disc.div, K*disc.rate)}
	}

	pdf := normPDF(t.d1)
	volTime := t.sigma * t.sqrtT

	g := legGreeks{
		gamma: disc.div * pdf / (S * volTime),
		vega:  S * disc.div * pdf * t.sqrtT,
	}
	decay := -S * disc.div * pdf * t.sigma / (2 * t.sqrtT)

	switch l {
	case Call:
		nd1, nd2 := normCDF(t.d1), normCDF(t.d2)
		g.delta = disc.div * nd1
		g.theta = decay - c.rate*K*disc.rate*nd2 + c.dividendYield*S*disc.div*nd1
		g.rho = K * tau * disc.rate * nd2
	case Put:
		nmd1, nmd2 := normCDF(-t.d1), normCDF(-t.d2)
		g.delta = -disc.div * nmd1
		g.theta = decay + c.rate*K*disc.rate*nmd2 - c.dividendYield*S*disc.div*nmd1
		g.rho = -K * tau * disc.rate * nmd2
	}

	// σ√τ tiny but non-zero: φ(d1) may underflow while 1/(Sσ√τ) overflows.
	// Very long τ can push √τ or τ·K·e^{-rτ} past the float range.
	for _, v := range []*float64{&g.delta, &g.gamma, &g.theta, &g.vega, &g.rho} {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = 0
		}
	}
	return g
}

// expiryDelta is the τ → 0 limit of Delta: an indicator of moneyness.
// At the money the option is worthless on both sides and reports 0.
func expiryDelta(l Leg, fwdSpot, fwdStrike float64) float64 {
	switch {
	case l == Call && fwdSpot > fwdStrike:
		return 1
	case l == Put && fwdSpot < fwdStrike:
		return -1
	}
	return 0
}
