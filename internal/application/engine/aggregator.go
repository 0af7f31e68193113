package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/tradeguard/internal/domain"
	"github.com/alejandrodnm/tradeguard/internal/ports"
)

// Aggregator derives trading statistics from the append-only trade log. It
// never mutates positions or results, and reads a consistent snapshot from
// the store, so it is safe to run concurrently with the control loop.
type Aggregator struct {
	store    ports.PositionStore
	terminal ports.MarketTerminal
	catalog  ports.InstrumentCatalog
}

// NewAggregator creates a read-only summary view over the trade log.
func NewAggregator(store ports.PositionStore, terminal ports.MarketTerminal, catalog ports.InstrumentCatalog) *Aggregator {
	return &Aggregator{store: store, terminal: terminal, catalog: catalog}
}

// TradingSummary computes rolling statistics over the last windowDays days:
// win rate, total P/L, and the margin exposure of currently live positions.
func (a *Aggregator) TradingSummary(ctx context.Context, windowDays int) (domain.Summary, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	from := time.Now().UTC().AddDate(0, 0, -windowDays)

	results, err := a.store.TradeResults(ctx, from)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("engine.TradingSummary: trade results: %w", err)
	}
	summary := domain.SummaryFromResults(results, from, windowDays)

	live, err := a.store.LivePositions(ctx)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("engine.TradingSummary: live positions: %w", err)
	}
	for _, p := range live {
		if !p.Live() {
			continue
		}
		summary.OpenPositions++
		if inst, ok := a.catalog.Lookup(p.Symbol); ok {
			summary.OpenExposure += inst.MarginRequired(p.Volume)
		}
	}

	// account fields are best-effort: the summary stays useful when the
	// terminal is briefly unreachable
	if snap, err := a.terminal.AccountSnapshot(ctx); err == nil {
		summary.Balance = snap.Balance
		summary.Equity = snap.Equity
	}

	return summary, nil
}
