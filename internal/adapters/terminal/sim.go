package terminal

// sim.go — in-memory MarketTerminal for paper trading and tests.
//
// Fills are instantaneous at the current quote. Protective levels are
// honored on every quote update: when price crosses the stop or target the
// position closes with the corresponding realized P/L.

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/alejandrodnm/tradeguard/internal/domain"
	"github.com/alejandrodnm/tradeguard/internal/ports"
)

type simPosition struct {
	spec        domain.OrderSpec
	entry       float64
	stop        float64
	target      float64
	protected   bool
	closed      bool
	realizedPnL float64
}

// Sim is a simulated broker terminal. Safe for concurrent use.
type Sim struct {
	mu        sync.Mutex
	balance   float64
	dailyPnL  float64
	quotes    map[string]domain.Quote
	positions map[string]*simPosition // ticketID → position
	byKey     map[string]string       // idempotency key → ticketID
	pipValue  map[string]float64      // symbol → money per unit price distance per lot
}

// NewSim creates a simulated terminal with the given starting balance.
func NewSim(balance float64) *Sim {
	return &Sim{
		balance:   balance,
		quotes:    make(map[string]domain.Quote),
		positions: make(map[string]*simPosition),
		byKey:     make(map[string]string),
		pipValue:  make(map[string]float64),
	}
}

// SetQuote publishes a price. Live positions are checked against their
// protective levels on every update.
func (s *Sim) SetQuote(symbol string, bid, ask float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[symbol] = domain.Quote{Symbol: symbol, Bid: bid, Ask: ask}
	s.sweepProtections(symbol)
}

// SetConversion sets the money value of one unit of price distance per lot,
// used to compute simulated P/L.
func (s *Sim) SetConversion(symbol string, perLot float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipValue[symbol] = perLot
}

func (s *Sim) AccountSnapshot(_ context.Context) (domain.AccountSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	open := 0
	for _, p := range s.positions {
		if !p.closed {
			open++
		}
	}
	return domain.AccountSnapshot{
		Equity:            s.balance + s.dailyPnL,
		Balance:           s.balance,
		MarginFree:        s.balance, // no leverage model in the simulation
		OpenPositionCount: open,
		DailyRealizedPnL:  s.dailyPnL,
	}, nil
}

func (s *Sim) Quote(_ context.Context, symbol string) (domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[symbol]
	if !ok {
		return domain.Quote{}, fmt.Errorf("terminal.Quote: no quote for %s", symbol)
	}
	return q, nil
}

// PlaceOrder fills immediately at the current quote. The idempotency key
// guarantees at most one fill per key: a retried submission returns the
// original ticket.
func (s *Sim) PlaceOrder(_ context.Context, spec domain.OrderSpec, idempotencyKey string) (domain.PlaceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket, ok := s.byKey[idempotencyKey]; ok {
		pos := s.positions[ticket]
		return domain.PlaceResult{Status: domain.PlaceAck, TicketID: ticket, FilledPrice: pos.entry}, nil
	}

	if spec.Volume <= 0 {
		return domain.PlaceResult{Status: domain.PlaceRejected, RejectReason: "invalid volume"}, nil
	}
	q, ok := s.quotes[spec.Symbol]
	if !ok {
		return domain.PlaceResult{Status: domain.PlaceRejected, RejectReason: "market closed"}, nil
	}

	ticket := uuid.New().String()
	s.positions[ticket] = &simPosition{
		spec:  spec,
		entry: q.EntryFor(spec.Direction),
	}
	s.byKey[idempotencyKey] = ticket

	return domain.PlaceResult{
		Status:      domain.PlaceAck,
		TicketID:    ticket,
		FilledPrice: s.positions[ticket].entry,
	}, nil
}

func (s *Sim) AttachProtection(_ context.Context, ticketID string, stop, target float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.positions[ticketID]
	if !ok {
		return fmt.Errorf("terminal.AttachProtection: unknown ticket %s", ticketID)
	}
	pos.stop = stop
	pos.target = target
	pos.protected = true
	return nil
}

func (s *Sim) PositionStatus(_ context.Context, ticketID string) (domain.TerminalPositionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.positions[ticketID]
	if !ok {
		return domain.TerminalPositionState{}, fmt.Errorf("terminal.PositionStatus: unknown ticket %s", ticketID)
	}
	return domain.TerminalPositionState{
		TicketID:    ticketID,
		Closed:      pos.closed,
		RealizedPnL: pos.realizedPnL,
	}, nil
}

func (s *Sim) ClosePosition(_ context.Context, ticketID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.positions[ticketID]
	if !ok {
		return fmt.Errorf("terminal.ClosePosition: unknown ticket %s", ticketID)
	}
	if pos.closed {
		return nil
	}
	q, ok := s.quotes[pos.spec.Symbol]
	if !ok {
		return fmt.Errorf("terminal.ClosePosition: no quote for %s", pos.spec.Symbol)
	}
	s.closeAt(pos, exitPrice(q, pos.spec.Direction))
	return nil
}

// sweepProtections closes any position whose stop or target the new quote
// crossed. Caller holds the lock.
func (s *Sim) sweepProtections(symbol string) {
	q := s.quotes[symbol]
	for _, pos := range s.positions {
		if pos.closed || !pos.protected || pos.spec.Symbol != symbol {
			continue
		}
		exit := exitPrice(q, pos.spec.Direction)
		switch pos.spec.Direction {
		case domain.DirectionLong:
			if exit <= pos.stop || exit >= pos.target {
				s.closeAt(pos, exit)
			}
		case domain.DirectionShort:
			if exit >= pos.stop || exit <= pos.target {
				s.closeAt(pos, exit)
			}
		}
	}
}

// closeAt realizes P/L at the given exit price. Caller holds the lock.
func (s *Sim) closeAt(pos *simPosition, exit float64) {
	distance := exit - pos.entry
	if pos.spec.Direction == domain.DirectionShort {
		distance = -distance
	}
	perLot := s.pipValue[pos.spec.Symbol]
	if perLot == 0 {
		perLot = 1
	}
	pos.realizedPnL = distance * perLot * pos.spec.Volume
	pos.closed = true
	s.dailyPnL += pos.realizedPnL
	s.balance += pos.realizedPnL
}

// exitPrice is the side a close order would fill at.
func exitPrice(q domain.Quote, d domain.Direction) float64 {
	if d == domain.DirectionLong {
		return q.Bid
	}
	return q.Ask
}

var _ ports.MarketTerminal = (*Sim)(nil)
