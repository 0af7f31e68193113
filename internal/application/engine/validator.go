package engine

import (
	"fmt"
	"time"

	"github.com/alejandrodnm/tradeguard/internal/domain"
	"github.com/alejandrodnm/tradeguard/internal/ports"
)

// Validate accepts or rejects a raw signal against the configured limits.
// Pure and deterministic: same inputs, same verdict, no side effects.
// Returns nil when the signal is accepted.
func Validate(sig domain.Signal, params domain.RiskParams, catalog ports.InstrumentCatalog, now time.Time) *domain.ValidationRejection {
	if sig.Expired(now) {
		return &domain.ValidationRejection{
			Reason:  domain.RejectExpired,
			Details: fmt.Sprintf("expired at %s", sig.ExpiresAt.Format(time.RFC3339)),
		}
	}

	if sig.Confidence < params.MinConfidence {
		return &domain.ValidationRejection{
			Reason:  domain.RejectLowConfidence,
			Details: fmt.Sprintf("confidence %.2f below threshold %.2f", sig.Confidence, params.MinConfidence),
		}
	}

	if _, ok := catalog.Lookup(sig.Symbol); !ok {
		return &domain.ValidationRejection{
			Reason:  domain.RejectUnknownSymbol,
			Details: fmt.Sprintf("symbol %s not tradable", sig.Symbol),
		}
	}

	if reason := checkGeometry(sig); reason != "" {
		return &domain.ValidationRejection{
			Reason:  domain.RejectBadGeometry,
			Details: reason,
		}
	}

	if rr := sig.RiskReward(); rr < params.MinRiskReward {
		return &domain.ValidationRejection{
			Reason:  domain.RejectInsufficientRR,
			Details: fmt.Sprintf("risk-reward %.2f below minimum %.2f", rr, params.MinRiskReward),
		}
	}

	return nil
}

// checkGeometry verifies that stop and target exist and sit on the correct
// side of the entry: stop unfavorable, target favorable.
func checkGeometry(sig domain.Signal) string {
	if sig.EntryPrice <= 0 {
		return "missing entry price"
	}
	if sig.StopPrice <= 0 {
		return "missing stop price"
	}
	if sig.TargetPrice <= 0 {
		return "missing target price"
	}

	switch sig.Direction {
	case domain.DirectionLong:
		if sig.StopPrice >= sig.EntryPrice {
			return fmt.Sprintf("long stop %.5f not below entry %.5f", sig.StopPrice, sig.EntryPrice)
		}
		if sig.TargetPrice <= sig.EntryPrice {
			return fmt.Sprintf("long target %.5f not above entry %.5f", sig.TargetPrice, sig.EntryPrice)
		}
	case domain.DirectionShort:
		if sig.StopPrice <= sig.EntryPrice {
			return fmt.Sprintf("short stop %.5f not above entry %.5f", sig.StopPrice, sig.EntryPrice)
		}
		if sig.TargetPrice >= sig.EntryPrice {
			return fmt.Sprintf("short target %.5f not below entry %.5f", sig.TargetPrice, sig.EntryPrice)
		}
	default:
		return fmt.Sprintf("unknown direction %q", sig.Direction)
	}

	return ""
}
