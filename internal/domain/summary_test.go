package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummaryFromResults(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	results := []TradeResult{
		{PositionID: "p1", Outcome: OutcomeFilled, RealizedPnL: 150, ClosedAt: from.AddDate(0, 0, 3)},
		{PositionID: "p2", Outcome: OutcomeFilled, RealizedPnL: -60, ClosedAt: from.AddDate(0, 0, 5)},
		{PositionID: "p3", Outcome: OutcomeFilled, RealizedPnL: 90, ClosedAt: from.AddDate(0, 0, 10)},
		// outside the window
		{PositionID: "p4", Outcome: OutcomeFilled, RealizedPnL: 999, ClosedAt: from.AddDate(0, 0, -2)},
		// never filled, excluded from win rate
		{PositionID: "p5", Outcome: OutcomeRejected, ClosedAt: from.AddDate(0, 0, 6)},
		{PositionID: "p6", Outcome: OutcomeError, ClosedAt: from.AddDate(0, 0, 7)},
	}

	s := SummaryFromResults(results, from, 30)

	assert.Equal(t, 3, s.TotalTrades)
	assert.Equal(t, 2, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.InDelta(t, 66.67, s.WinRate, 0.01)
	assert.InDelta(t, 180.0, s.TotalPnL, 1e-9)
}

func TestSummaryFromResultsEmpty(t *testing.T) {
	s := SummaryFromResults(nil, time.Now(), 30)

	assert.Zero(t, s.TotalTrades)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.TotalPnL)
}

func TestSummaryBreakEvenCountsAsLoss(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	results := []TradeResult{
		{PositionID: "p1", Outcome: OutcomeFilled, RealizedPnL: 0, ClosedAt: from.AddDate(0, 0, 1)},
	}

	s := SummaryFromResults(results, from, 30)

	assert.Equal(t, 1, s.TotalTrades)
	assert.Equal(t, 0, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.Zero(t, s.WinRate)
}
