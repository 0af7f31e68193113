package domain

import "fmt"

// RiskParams are the account-level risk limits. Immutable for the life of a
// run and passed explicitly into every component that needs them.
type RiskParams struct {
	MaxRiskPercent      float64 // % of equity risked per trade
	MinRiskReward       float64
	MaxPositions        int
	MaxDailyLossPercent float64 // % of equity allowed as daily realized loss
	MinConfidence       float64
	DefaultVolume       float64
}

// Validate rejects configurations that cannot safely drive real-money
// execution. A failure here is fatal at startup.
func (r RiskParams) Validate() error {
	if r.MaxRiskPercent <= 0 || r.MaxRiskPercent > 100 {
		return fmt.Errorf("max_risk_percent must be in (0, 100], got %.2f", r.MaxRiskPercent)
	}
	if r.MinRiskReward <= 0 {
		return fmt.Errorf("min_risk_reward must be positive, got %.2f", r.MinRiskReward)
	}
	if r.MaxPositions <= 0 {
		return fmt.Errorf("max_positions must be positive, got %d", r.MaxPositions)
	}
	if r.MaxDailyLossPercent <= 0 || r.MaxDailyLossPercent > 100 {
		return fmt.Errorf("max_daily_loss_percent must be in (0, 100], got %.2f", r.MaxDailyLossPercent)
	}
	if r.MinConfidence < 0 || r.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0, 1], got %.2f", r.MinConfidence)
	}
	return nil
}

// RiskAmount is the per-trade risk budget for the given equity.
func (r RiskParams) RiskAmount(equity float64) float64 {
	return equity * r.MaxRiskPercent / 100
}

// DailyLossFloor is the lowest daily realized PnL the account tolerates.
func (r RiskParams) DailyLossFloor(equity float64) float64 {
	return -equity * r.MaxDailyLossPercent / 100
}

// BlockReason classifies why the risk-limit guard refused an otherwise valid
// order. A block is an expected outcome, not an error.
type BlockReason string

const (
	BlockMaxPositions      BlockReason = "MAX_POSITIONS"
	BlockDailyLossLimit    BlockReason = "DAILY_LOSS_LIMIT"
	BlockDuplicateExposure BlockReason = "DUPLICATE_EXPOSURE"
)
