package domain

// OrderSpec is a fully sized order ready for placement.
type OrderSpec struct {
	Symbol      string
	Direction   Direction
	Volume      float64
	EntryPrice  float64
	StopPrice   float64
	TargetPrice float64
	SourceID    string
}

// PlaceStatus is the terminal's verdict on an order placement.
type PlaceStatus string

const (
	PlaceAck      PlaceStatus = "ACK"      // filled
	PlaceRejected PlaceStatus = "REJECTED" // business decline, never retried
)

// PlaceResult is the outcome of a successful round-trip to the terminal.
// Transport failures are reported as errors, not as a PlaceResult.
type PlaceResult struct {
	Status       PlaceStatus
	TicketID     string  // terminal-side position identifier when acked
	FilledPrice  float64 // actual entry when acked
	RejectReason string  // terminal's wording when rejected
}

// TerminalPositionState is the terminal's view of a live position, used by
// monitoring ticks to reconcile local state.
type TerminalPositionState struct {
	TicketID    string
	Closed      bool
	RealizedPnL float64 // meaningful only when Closed
}
