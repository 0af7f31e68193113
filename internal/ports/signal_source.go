package ports

import (
	"context"

	"github.com/alejandrodnm/tradeguard/internal/domain"
)

// SignalSource produces scored signals for the given symbols. Unavailability
// is not fatal: the engine treats a failed fetch as an empty cycle.
type SignalSource interface {
	Signals(ctx context.Context, symbols []string) ([]domain.Signal, error)
}
