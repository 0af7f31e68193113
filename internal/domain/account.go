package domain

// AccountSnapshot is the broker account state at the start of a cycle.
// Read-only to the engine; refreshed once per cycle.
type AccountSnapshot struct {
	Equity            float64
	Balance           float64
	MarginFree        float64
	OpenPositionCount int
	DailyRealizedPnL  float64
}

// Quote is the current market price for a symbol.
type Quote struct {
	Symbol string
	Bid    float64
	Ask    float64
}

// EntryFor returns the price a market order would fill at for the given side.
func (q Quote) EntryFor(d Direction) float64 {
	if d == DirectionShort {
		return q.Bid
	}
	return q.Ask
}
