package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/bsm-kernel/internal/pricing"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOptionSymbol(t *testing.T) {
	exp := day(2025, 1, 17)
	assert.Equal(t, "O:SPY250117C00580000", OptionSymbol("spy", exp, pricing.Call, 580))
	assert.Equal(t, "O:SPY250117P00582500", OptionSymbol("SPY", exp, pricing.Put, 582.5))
}

func TestMatchExpiry(t *testing.T) {
	listed := []time.Time{day(2025, 1, 24), day(2025, 1, 10), day(2025, 1, 17)}

	tests := []struct {
		name   string
		target time.Time
		mode   DateMatchType
		want   time.Time
	}{
		{"exact hit", day(2025, 1, 17), MatchExact, day(2025, 1, 17)},
		{"higher", day(2025, 1, 12), MatchHigher, day(2025, 1, 17)},
		{"lower", day(2025, 1, 12), MatchLower, day(2025, 1, 10)},
		{"nearest picks closer", day(2025, 1, 15), MatchNearest, day(2025, 1, 17)},
		{"nearest tie goes earlier", day(2025, 1, 13).Add(12 * time.Hour), MatchNearest, day(2025, 1, 10)},
		{"nearest before all", day(2025, 1, 1), MatchNearest, day(2025, 1, 10)},
		{"nearest after all", day(2025, 2, 1), MatchNearest, day(2025, 1, 24)},
		{"unknown mode is nearest", day(2025, 1, 23), DateMatchType("bogus"), day(2025, 1, 24)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MatchExpiry(tc.target, listed, tc.mode)
			require.NoError(t, err)
			assert.True(t, got.Equal(tc.want), "got %s want %s", got, tc.want)
		})
	}

	assert.True(t, listed[0].Equal(day(2025, 1, 24)), "input slice must not be reordered")
}

func TestMatchExpiryNotFound(t *testing.T) {
	listed := []time.Time{day(2025, 1, 10), day(2025, 1, 17)}

	_, err := MatchExpiry(day(2025, 1, 12), listed, MatchExact)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = MatchExpiry(day(2025, 1, 20), listed, MatchHigher)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = MatchExpiry(day(2025, 1, 20), nil, MatchNearest)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInputsContract(t *testing.T) {
	in := Inputs{
		ID:            "a",
		Spot:          100,
		Strike:        95,
		Valuation:     day(2025, 1, 2),
		Expiry:        day(2025, 3, 3),
		Rate:          0.04,
		DividendYield: 0.01,
		Vols:          pricing.LegPair[float64]{Put: 0.3, Call: 0.25},
	}
	c, err := in.Contract()
	require.NoError(t, err)
	assert.InDelta(t, 60.0/365, c.Tau(), 1e-12)
	assert.Equal(t, 0.01, c.DividendYield())

	in.Vols.Call = 0
	_, err = in.Contract()
	require.ErrorIs(t, err, pricing.ErrInvalidInput)
	assert.Contains(t, err.Error(), "contract a")
}
