package domain

import "time"

// Direction is the side of a trade.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Signal is a scored directional trading recommendation produced by the
// signal service. Immutable; consumed at most once (SourceID is the dedup key).
type Signal struct {
	Symbol      string
	Direction   Direction
	Confidence  float64 // 0..1
	EntryPrice  float64
	StopPrice   float64
	TargetPrice float64
	GeneratedAt time.Time
	ExpiresAt   time.Time // zero = never expires
	SourceID    string
}

// RiskReward returns |target-entry| / |entry-stop|, or 0 when the stop
// distance is zero.
func (s Signal) RiskReward() float64 {
	risk := abs(s.EntryPrice - s.StopPrice)
	if risk == 0 {
		return 0
	}
	return abs(s.TargetPrice-s.EntryPrice) / risk
}

// Expired reports whether the signal has passed its expiry at the given time.
func (s Signal) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// RejectReason classifies why the validator refused a signal.
type RejectReason string

const (
	RejectLowConfidence  RejectReason = "LOW_CONFIDENCE"
	RejectUnknownSymbol  RejectReason = "UNKNOWN_SYMBOL"
	RejectBadGeometry    RejectReason = "BAD_GEOMETRY"
	RejectInsufficientRR RejectReason = "INSUFFICIENT_RR"
	RejectExpired        RejectReason = "EXPIRED"
)

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
