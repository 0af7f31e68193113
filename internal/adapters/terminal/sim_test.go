package terminal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradeguard/internal/domain"
)

func longSpec() domain.OrderSpec {
	return domain.OrderSpec{
		Symbol:      "EURUSD",
		Direction:   domain.DirectionLong,
		Volume:      0.40,
		EntryPrice:  1.1000,
		StopPrice:   1.0950,
		TargetPrice: 1.1100,
		SourceID:    "sig-1",
	}
}

func newTestSim() *Sim {
	sim := NewSim(10000)
	sim.SetQuote("EURUSD", 1.0999, 1.1001)
	sim.SetConversion("EURUSD", 100000) // $10 per 0.0001 per lot
	return sim
}

func TestSimPlaceOrderFillsAtAsk(t *testing.T) {
	sim := newTestSim()

	res, err := sim.PlaceOrder(context.Background(), longSpec(), "key-1")

	require.NoError(t, err)
	assert.Equal(t, domain.PlaceAck, res.Status)
	assert.NotEmpty(t, res.TicketID)
	assert.InDelta(t, 1.1001, res.FilledPrice, 1e-9) // long fills at ask

	snap, err := sim.AccountSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.OpenPositionCount)
}

func TestSimPlaceOrderIdempotent(t *testing.T) {
	sim := newTestSim()
	ctx := context.Background()

	first, err := sim.PlaceOrder(ctx, longSpec(), "key-1")
	require.NoError(t, err)
	second, err := sim.PlaceOrder(ctx, longSpec(), "key-1")
	require.NoError(t, err)

	assert.Equal(t, first.TicketID, second.TicketID)

	snap, _ := sim.AccountSnapshot(ctx)
	assert.Equal(t, 1, snap.OpenPositionCount)
}

func TestSimPlaceOrderRejections(t *testing.T) {
	sim := newTestSim()
	ctx := context.Background()

	zero := longSpec()
	zero.Volume = 0
	res, err := sim.PlaceOrder(ctx, zero, "key-zero")
	require.NoError(t, err)
	assert.Equal(t, domain.PlaceRejected, res.Status)
	assert.Equal(t, "invalid volume", res.RejectReason)

	unquoted := longSpec()
	unquoted.Symbol = "XAUUSD"
	res, err = sim.PlaceOrder(ctx, unquoted, "key-unquoted")
	require.NoError(t, err)
	assert.Equal(t, domain.PlaceRejected, res.Status)
	assert.Equal(t, "market closed", res.RejectReason)
}

func TestSimTargetHitRealizesProfit(t *testing.T) {
	sim := newTestSim()
	ctx := context.Background()

	res, err := sim.PlaceOrder(ctx, longSpec(), "key-1")
	require.NoError(t, err)
	require.NoError(t, sim.AttachProtection(ctx, res.TicketID, 1.0950, 1.1100))

	// price reaches the target
	sim.SetQuote("EURUSD", 1.1101, 1.1103)

	state, err := sim.PositionStatus(ctx, res.TicketID)
	require.NoError(t, err)
	assert.True(t, state.Closed)
	// (1.1101 - 1.1001) × 100000 × 0.40 = $400
	assert.InDelta(t, 400.0, state.RealizedPnL, 0.01)

	snap, _ := sim.AccountSnapshot(ctx)
	assert.Equal(t, 0, snap.OpenPositionCount)
	assert.InDelta(t, 400.0, snap.DailyRealizedPnL, 0.01)
	assert.InDelta(t, 10400.0, snap.Balance, 0.01)
}

func TestSimStopHitRealizesLoss(t *testing.T) {
	sim := newTestSim()
	ctx := context.Background()

	res, err := sim.PlaceOrder(ctx, longSpec(), "key-1")
	require.NoError(t, err)
	require.NoError(t, sim.AttachProtection(ctx, res.TicketID, 1.0950, 1.1100))

	sim.SetQuote("EURUSD", 1.0949, 1.0951)

	state, err := sim.PositionStatus(ctx, res.TicketID)
	require.NoError(t, err)
	assert.True(t, state.Closed)
	assert.Less(t, state.RealizedPnL, 0.0)
}

func TestSimUnprotectedPositionSurvivesSweep(t *testing.T) {
	sim := newTestSim()
	ctx := context.Background()

	res, err := sim.PlaceOrder(ctx, longSpec(), "key-1")
	require.NoError(t, err)
	// no protection attached

	sim.SetQuote("EURUSD", 1.0001, 1.0003) // way past the intended stop

	state, err := sim.PositionStatus(ctx, res.TicketID)
	require.NoError(t, err)
	assert.False(t, state.Closed)
}

func TestSimForceClose(t *testing.T) {
	sim := newTestSim()
	ctx := context.Background()

	res, err := sim.PlaceOrder(ctx, longSpec(), "key-1")
	require.NoError(t, err)

	require.NoError(t, sim.ClosePosition(ctx, res.TicketID))
	// closing again is a no-op
	require.NoError(t, sim.ClosePosition(ctx, res.TicketID))

	state, err := sim.PositionStatus(ctx, res.TicketID)
	require.NoError(t, err)
	assert.True(t, state.Closed)
}

func TestSimUnknownTicket(t *testing.T) {
	sim := newTestSim()
	ctx := context.Background()

	_, err := sim.PositionStatus(ctx, "ghost")
	assert.Error(t, err)
	assert.Error(t, sim.AttachProtection(ctx, "ghost", 1, 2))
	assert.Error(t, sim.ClosePosition(ctx, "ghost"))
}
