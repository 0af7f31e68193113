package domain

import "time"

// Summary is the derived trading statistics over a rolling window, computed
// on demand from the append-only trade log.
type Summary struct {
	WindowDays    int
	From          time.Time
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // percentage, 0 when no trades
	TotalPnL      float64

	// account state alongside the window stats
	Balance       float64
	Equity        float64
	OpenPositions int
	OpenExposure  float64 // margin tied up by live positions
}

// SummaryFromResults folds the trade log into window statistics. Results
// outside the window are ignored; only filled trades count toward win rate.
func SummaryFromResults(results []TradeResult, from time.Time, windowDays int) Summary {
	s := Summary{WindowDays: windowDays, From: from}
	for _, r := range results {
		if r.ClosedAt.Before(from) {
			continue
		}
		if r.Outcome != OutcomeFilled {
			continue
		}
		s.TotalTrades++
		s.TotalPnL += r.RealizedPnL
		if r.RealizedPnL > 0 {
			s.WinningTrades++
		} else {
			s.LosingTrades++
		}
	}
	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
	}
	return s
}
