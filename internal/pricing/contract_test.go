package pricing

import (
	"errors"
	"math"
	"testing"
	"time"
)

var (
	valuationDate = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	expiryDate    = time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)
)

func TestNewContract_TimeToExpiry(t *testing.T) {
	c, err := NewContract(100, 100, valuationDate, expiryDate, 0.05, Both(0.2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := 182.0 / 365.0
	if c.Tau() != want {
		t.Fatalf("expected tau %v, got %v", want, c.Tau())
	}
	if c.DividendYield() != 0 {
		t.Fatalf("expected default dividend yield 0, got %v", c.DividendYield())
	}
	if c.Expired() {
		t.Fatalf("contract should not be expired")
	}
}

func TestNewContract_IgnoresClockTimeAndZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}

	// spans the March DST change; 23:59 vs 00:01 must still count whole days
	from := time.Date(2025, 3, 1, 23, 59, 0, 0, ny)
	to := time.Date(2025, 3, 31, 0, 1, 0, 0, ny)

	c, err := NewContract(50, 55, from, to, 0.03, Both(0.3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Tau() != 30.0/365.0 {
		t.Fatalf("expected 30 days, got tau %v", c.Tau())
	}
}

func TestNewContract_SameDayIsDegenerate(t *testing.T) {
	c, err := NewContract(100, 90, valuationDate, valuationDate, 0.05, Both(0.2))
	if err != nil {
		t.Fatalf("same-day expiry must be accepted: %v", err)
	}
	if !c.Expired() || c.Tau() != 0 {
		t.Fatalf("expected expired contract with tau 0, got tau %v", c.Tau())
	}
}

func TestNewContract_WithDividendYield(t *testing.T) {
	c, err := NewContract(100, 100, valuationDate, expiryDate, 0.05, Both(0.2), WithDividendYield(0.015))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.DividendYield() != 0.015 {
		t.Fatalf("expected dividend yield 0.015, got %v", c.DividendYield())
	}
}

func TestNewContract_InvalidInputs(t *testing.T) {
	tests := []struct {
		name   string
		spot   float64
		strike float64
		expiry time.Time
		rate   float64
		vols   LegPair[float64]
		field  string
	}{
		{"zero spot", 0, 100, expiryDate, 0.05, Both(0.2), "spot"},
		{"negative spot", -1, 100, expiryDate, 0.05, Both(0.2), "spot"},
		{"zero strike", 100, 0, expiryDate, 0.05, Both(0.2), "strike"},
		{"negative strike", 100, -5, expiryDate, 0.05, Both(0.2), "strike"},
		{"zero put vol", 100, 100, expiryDate, 0.05, LegPair[float64]{Put: 0, Call: 0.2}, "vol_put"},
		{"negative call vol", 100, 100, expiryDate, 0.05, LegPair[float64]{Put: 0.2, Call: -0.1}, "vol_call"},
		{"nan spot", math.NaN(), 100, expiryDate, 0.05, Both(0.2), "spot"},
		{"infinite rate", 100, 100, expiryDate, math.Inf(1), Both(0.2), "rate"},
		{"expiry before valuation", 100, 100, valuationDate.AddDate(0, 0, -1), 0.05, Both(0.2), "expiry_date"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewContract(tc.spot, tc.strike, valuationDate, tc.expiry, tc.rate, tc.vols)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			var inputErr *InvalidInputError
			if !errors.As(err, &inputErr) {
				t.Fatalf("expected *InvalidInputError, got %T", err)
			}
			if inputErr.Field != tc.field {
				t.Fatalf("expected field %q, got %q (%v)", tc.field, inputErr.Field, err)
			}
		})
	}
}

func TestNewContractWithTau_RejectsNegativeTau(t *testing.T) {
	_, err := NewContractWithTau(100, 100, -0.1, 0.05, Both(0.2))
	var inputErr *InvalidInputError
	if !errors.As(err, &inputErr) || inputErr.Field != "time_to_expiry" {
		t.Fatalf("expected time_to_expiry error, got %v", err)
	}
}

func TestNewContract_NegativeRateAllowed(t *testing.T) {
	if _, err := NewContract(100, 100, valuationDate, expiryDate, -0.005, Both(0.2)); err != nil {
		t.Fatalf("negative rates are valid: %v", err)
	}
}

func TestNewContractWithTau_RejectsDiscountOverflow(t *testing.T) {
	tests := []struct {
		name   string
		strike float64
		rate   float64
		q      float64
		field  string
	}{
		{"rate", 100, -800, 0, "rate"},
		{"dividend yield", 100, 0.05, -800, "dividend_yield"},
		// e^{700} is finite, K·e^{700} is not
		{"forward strike", 1e8, -700, 0, "rate"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewContractWithTau(100, tc.strike, 1, tc.rate, Both(0.2), WithDividendYield(tc.q))
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			var inputErr *InvalidInputError
			if !errors.As(err, &inputErr) || inputErr.Field != tc.field {
				t.Fatalf("expected field %q, got %v", tc.field, err)
			}
		})
	}

	// the same rate is fine when τ is short enough
	if _, err := NewContractWithTau(100, 100, 0.5, -800, Both(0.2)); err != nil {
		t.Fatalf("rate -800 over half a year should be accepted: %v", err)
	}
}
