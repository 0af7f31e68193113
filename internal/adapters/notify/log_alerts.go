package notify

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/tradeguard/internal/ports"
)

// LogAlerts is the fallback AlertPublisher when no Kafka cluster is
// configured: alerts land in the structured log at a level matching their
// severity.
type LogAlerts struct{}

func (LogAlerts) Publish(_ context.Context, alert ports.Alert) error {
	attrs := []any{
		"code", alert.Code,
		"symbol", alert.Symbol,
		"position", alert.PositionID,
		"message", alert.Message,
	}
	switch alert.Severity {
	case ports.SeverityCritical:
		slog.Error("ALERT", attrs...)
	case ports.SeverityWarning:
		slog.Warn("ALERT", attrs...)
	default:
		slog.Info("ALERT", attrs...)
	}
	return nil
}

func (LogAlerts) Close() error { return nil }

var _ ports.AlertPublisher = LogAlerts{}
