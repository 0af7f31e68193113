package ports

import (
	"context"

	"github.com/alejandrodnm/tradeguard/internal/domain"
)

// MarketTerminal is the broker-side capability the engine depends on. The
// concrete transport (real terminal, simulation, test double) is an adapter;
// core logic never sees it.
type MarketTerminal interface {
	// AccountSnapshot returns the current account state.
	AccountSnapshot(ctx context.Context) (domain.AccountSnapshot, error)

	// Quote returns the current bid/ask for a symbol.
	Quote(ctx context.Context, symbol string) (domain.Quote, error)

	// PlaceOrder submits a market order. The idempotency key makes retried
	// submissions safe: the terminal fills at most one order per key.
	// Business declines come back as PlaceRejected, transport failures as
	// a *domain.TransportError.
	PlaceOrder(ctx context.Context, spec domain.OrderSpec, idempotencyKey string) (domain.PlaceResult, error)

	// AttachProtection sets the protective stop/target on a filled position.
	AttachProtection(ctx context.Context, ticketID string, stop, target float64) error

	// PositionStatus returns the terminal's view of a live position.
	PositionStatus(ctx context.Context, ticketID string) (domain.TerminalPositionState, error)

	// ClosePosition closes a live position at market.
	ClosePosition(ctx context.Context, ticketID string) error
}
