package pricing

import (
	"math"
	"testing"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func mustContract(t *testing.T, spot, strike, tau, rate float64, vols LegPair[float64], opts ...ContractOption) Contract {
	t.Helper()
	c, err := NewContractWithTau(spot, strike, tau, rate, vols, opts...)
	if err != nil {
		t.Fatalf("building contract: %v", err)
	}
	return c
}

func assertFinite(t *testing.T, name string, v float64) {
	t.Helper()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		t.Fatalf("%s is not finite: %v", name, v)
	}
}
