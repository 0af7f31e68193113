package ports

import (
	"context"
	"time"
)

// AlertSeverity orders alerts by urgency.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "INFO"
	SeverityWarning  AlertSeverity = "WARNING"
	SeverityCritical AlertSeverity = "CRITICAL" // live unmanaged exposure
)

// Alert is an operational event worth waking someone up for.
type Alert struct {
	Severity   AlertSeverity `json:"severity"`
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	Symbol     string        `json:"symbol,omitempty"`
	PositionID string        `json:"position_id,omitempty"`
	RaisedAt   time.Time     `json:"raised_at"`
}

// AlertPublisher delivers alerts to an external channel. Publishing must not
// block the trading cycle; failures are logged, never propagated.
type AlertPublisher interface {
	Publish(ctx context.Context, alert Alert) error
	Close() error
}
