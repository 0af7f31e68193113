package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradeguard/internal/domain"
)

func sizedSpec(t *testing.T, sourceID string) domain.OrderSpec {
	t.Helper()
	inst, _ := testCatalog().Lookup("EURUSD")
	spec, err := SizeOrder(eurusdSignal(sourceID), testSnapshot(), testParams(), inst)
	require.NoError(t, err)
	return spec
}

func TestCheckLimitsAllowsCleanAccount(t *testing.T) {
	spec := sizedSpec(t, "sig-1")
	inst, _ := testCatalog().Lookup("EURUSD")

	decision := CheckLimits(spec, nil, testSnapshot(), testParams(), inst)

	assert.True(t, decision.Allowed)
	assert.Empty(t, decision.Reason)
}

func TestCheckLimitsMaxPositions(t *testing.T) {
	spec := sizedSpec(t, "sig-1")
	inst, _ := testCatalog().Lookup("EURUSD")
	snap := testSnapshot()
	snap.OpenPositionCount = testParams().MaxPositions

	decision := CheckLimits(spec, nil, snap, testParams(), inst)

	require.False(t, decision.Allowed)
	assert.Equal(t, domain.BlockMaxPositions, decision.Reason)
}

func TestCheckLimitsDailyLossFloor(t *testing.T) {
	spec := sizedSpec(t, "sig-1")
	inst, _ := testCatalog().Lookup("EURUSD")

	// floor at equity 10000 and 5% cap is -500
	tests := []struct {
		name    string
		pnl     float64
		allowed bool
	}{
		{"fresh day", 0, true},
		{"small loss leaves headroom", -250, true},
		{"loss at the floor blocks any trade", -500, false},
		{"worst case would pierce the floor", -301, false}, // 200 at risk
		{"worst case exactly reaches the floor", -300, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snap := testSnapshot()
			snap.DailyRealizedPnL = tc.pnl

			decision := CheckLimits(spec, nil, snap, testParams(), inst)

			assert.Equal(t, tc.allowed, decision.Allowed)
			if !tc.allowed {
				assert.Equal(t, domain.BlockDailyLossLimit, decision.Reason)
			}
		})
	}
}

func TestCheckLimitsDuplicateExposure(t *testing.T) {
	spec := sizedSpec(t, "sig-1")
	inst, _ := testCatalog().Lookup("EURUSD")

	live := []domain.Position{{
		ID:        "p1",
		Symbol:    "EURUSD",
		Direction: domain.DirectionLong,
		Status:    domain.StatusMonitoring,
	}}

	decision := CheckLimits(spec, live, testSnapshot(), testParams(), inst)
	require.False(t, decision.Allowed)
	assert.Equal(t, domain.BlockDuplicateExposure, decision.Reason)

	// opposite direction on the same symbol is not a duplicate
	live[0].Direction = domain.DirectionShort
	assert.True(t, CheckLimits(spec, live, testSnapshot(), testParams(), inst).Allowed)

	// closed positions do not count as exposure
	live[0].Direction = domain.DirectionLong
	live[0].Status = domain.StatusClosed
	assert.True(t, CheckLimits(spec, live, testSnapshot(), testParams(), inst).Allowed)
}

func TestCheckLimitsOrderIsFixed(t *testing.T) {
	spec := sizedSpec(t, "sig-1")
	inst, _ := testCatalog().Lookup("EURUSD")

	// all three conditions violated at once: max-positions wins
	snap := testSnapshot()
	snap.OpenPositionCount = 5
	snap.DailyRealizedPnL = -1000
	live := []domain.Position{{
		Symbol:    "EURUSD",
		Direction: domain.DirectionLong,
		Status:    domain.StatusOpen,
	}}

	decision := CheckLimits(spec, live, snap, testParams(), inst)

	require.False(t, decision.Allowed)
	assert.Equal(t, domain.BlockMaxPositions, decision.Reason)
}
