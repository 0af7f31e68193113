package engine

import (
	"fmt"

	"github.com/alejandrodnm/tradeguard/internal/domain"
)

// SizeOrder computes the trade volume for an accepted signal from the
// account's risk budget and the instrument's market geometry.
//
// The volume risks at most MaxRiskPercent of equity if the stop is hit:
//
//	volume = riskAmount / (stopDistanceInPoints × pipValue)
//
// clamped to the broker's lot bounds and rounded down to the lot step.
func SizeOrder(sig domain.Signal, snap domain.AccountSnapshot, params domain.RiskParams, inst domain.InstrumentInfo) (domain.OrderSpec, error) {
	stopDistance := sig.EntryPrice - sig.StopPrice
	if stopDistance < 0 {
		stopDistance = -stopDistance
	}
	// the boundary comparison tolerates float noise: a stop exactly one
	// point away (e.g. 1.1000-1.0999) must not read as a zero distance
	if inst.Point <= 0 || stopDistance < inst.Point*(1-1e-9) {
		return domain.OrderSpec{}, &domain.SizingError{
			Code:    domain.SizingZeroStopDistance,
			Details: fmt.Sprintf("stop distance %.6f below one point (%.6f) for %s", stopDistance, inst.Point, sig.Symbol),
		}
	}

	riskAmount := params.RiskAmount(snap.Equity)
	points := stopDistance / inst.Point

	volume := params.DefaultVolume
	if inst.PipValue > 0 {
		volume = riskAmount / (points * inst.PipValue)
	}
	volume = inst.ClampVolume(volume)

	if required := inst.MarginRequired(volume); required > snap.MarginFree {
		return domain.OrderSpec{}, &domain.SizingError{
			Code:    domain.SizingInsufficientMargin,
			Details: fmt.Sprintf("need %.2f margin for %.2f lots %s, %.2f free", required, volume, sig.Symbol, snap.MarginFree),
		}
	}

	return domain.OrderSpec{
		Symbol:      sig.Symbol,
		Direction:   sig.Direction,
		Volume:      volume,
		EntryPrice:  sig.EntryPrice,
		StopPrice:   sig.StopPrice,
		TargetPrice: sig.TargetPrice,
		SourceID:    sig.SourceID,
	}, nil
}

// WorstCaseLoss is the money lost if the sized order stops out.
func WorstCaseLoss(spec domain.OrderSpec, inst domain.InstrumentInfo) float64 {
	stopDistance := spec.EntryPrice - spec.StopPrice
	if stopDistance < 0 {
		stopDistance = -stopDistance
	}
	return inst.MoneyAtRisk(stopDistance, spec.Volume)
}
