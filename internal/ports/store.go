package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/tradeguard/internal/domain"
)

// PositionStore persists positions and the append-only trade log, durable
// across restarts. Backend technology is pluggable (SQLite, Postgres).
type PositionStore interface {
	// SavePosition inserts a new position. SourceID is unique: saving a
	// second position for the same source fails.
	SavePosition(ctx context.Context, p domain.Position) error

	// UpdatePosition rewrites the mutable fields (status, ticket, entry,
	// closed_at) of an existing position.
	UpdatePosition(ctx context.Context, p domain.Position) error

	// PositionBySourceID returns the position created for a signal, or
	// ok=false when the signal has never been executed.
	PositionBySourceID(ctx context.Context, sourceID string) (domain.Position, bool, error)

	// LivePositions returns every position still holding or awaiting
	// market exposure.
	LivePositions(ctx context.Context) ([]domain.Position, error)

	// AppendTradeResult adds one entry to the trade log. Appending twice
	// for the same position is a no-op, tolerating replayed closures.
	AppendTradeResult(ctx context.Context, r domain.TradeResult) error

	// TradeResults returns log entries closed at or after the given time.
	TradeResults(ctx context.Context, from time.Time) ([]domain.TradeResult, error)

	// Close releases the underlying database handle.
	Close() error
}
