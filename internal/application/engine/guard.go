package engine

import (
	"github.com/alejandrodnm/tradeguard/internal/domain"
)

// GuardDecision is the portfolio-level verdict on a sized order.
type GuardDecision struct {
	Allowed bool
	Reason  domain.BlockReason // set when blocked
}

func allow() GuardDecision                     { return GuardDecision{Allowed: true} }
func block(r domain.BlockReason) GuardDecision { return GuardDecision{Reason: r} }

// CheckLimits is the pre-execution risk-limit guard. Pure: no I/O, fully
// unit-testable. Checks run in fixed order, first failure wins:
//
//  1. position count below MaxPositions
//  2. worst-case loss would not breach the daily loss floor
//  3. no existing live exposure on the same symbol+direction
//
// The caller must serialize CheckLimits with order submission for the same
// account so concurrent executions cannot race past the limits.
func CheckLimits(spec domain.OrderSpec, live []domain.Position, snap domain.AccountSnapshot, params domain.RiskParams, inst domain.InstrumentInfo) GuardDecision {
	if snap.OpenPositionCount >= params.MaxPositions {
		return block(domain.BlockMaxPositions)
	}

	// a worst case landing exactly on the floor is allowed; the sub-cent
	// tolerance keeps float noise from flipping that boundary
	worstCase := WorstCaseLoss(spec, inst)
	if snap.DailyRealizedPnL-worstCase < params.DailyLossFloor(snap.Equity)-1e-6 {
		return block(domain.BlockDailyLossLimit)
	}

	for _, p := range live {
		if p.Live() && p.Symbol == spec.Symbol && p.Direction == spec.Direction {
			return block(domain.BlockDuplicateExposure)
		}
	}

	return allow()
}
