package ports

import (
	"context"

	"github.com/alejandrodnm/tradeguard/internal/domain"
)

// Notifier renders cycle reports and summaries for whoever is watching.
type Notifier interface {
	NotifyCycle(ctx context.Context, report domain.CycleReport) error
	NotifySummary(ctx context.Context, summary domain.Summary) error
}
