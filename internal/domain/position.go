package domain

import "time"

// PositionStatus represents the lifecycle of a tracked trade.
type PositionStatus string

const (
	StatusPending      PositionStatus = "PENDING"
	StatusSubmitted    PositionStatus = "SUBMITTED"
	StatusOpen         PositionStatus = "OPEN"
	StatusMonitoring   PositionStatus = "MONITORING"
	StatusClosed       PositionStatus = "CLOSED"
	StatusRejected     PositionStatus = "REJECTED"
	StatusFailed       PositionStatus = "FAILED"
	StatusOpenWithRisk PositionStatus = "OPEN_WITH_RISK" // filled but unprotected
)

// Position is a tracked trade with entry, protective levels, and lifecycle
// status. Created and exclusively mutated by the execution controller.
type Position struct {
	ID          string // UUID (local tracking)
	SourceID    string // originating signal, at most one Position each
	TicketID    string // terminal-side identifier, set after fill
	Symbol      string
	Direction   Direction
	Volume      float64
	EntryPrice  float64
	StopPrice   float64
	TargetPrice float64
	OpenedAt    time.Time
	Status      PositionStatus
	ClosedAt    *time.Time
}

// Live reports whether the position still holds (or may hold) market exposure.
func (p Position) Live() bool {
	switch p.Status {
	case StatusPending, StatusSubmitted, StatusOpen, StatusMonitoring, StatusOpenWithRisk:
		return true
	}
	return false
}

// Terminal reports whether the position reached a final state.
func (p Position) Terminal() bool {
	switch p.Status {
	case StatusClosed, StatusRejected, StatusFailed:
		return true
	}
	return false
}

// Protected reports whether protective stop/target are attached terminal-side.
func (p Position) Protected() bool {
	return p.Status == StatusOpen || p.Status == StatusMonitoring
}

// TradeOutcome classifies how a trade ended.
type TradeOutcome string

const (
	OutcomeFilled   TradeOutcome = "FILLED"
	OutcomeRejected TradeOutcome = "REJECTED"
	OutcomeError    TradeOutcome = "ERROR"
)

// TradeResult is one entry of the append-only trade log.
type TradeResult struct {
	PositionID  string
	Symbol      string
	Volume      float64
	Outcome     TradeOutcome
	RealizedPnL float64
	ClosedAt    time.Time
}
