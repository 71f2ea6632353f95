package pricing

import "gonum.org/v1/gonum/stat/distuv"

// normCDF is the standard normal cumulative distribution Φ.
func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// normPDF is the standard normal density φ.
func normPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
