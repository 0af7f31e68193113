package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alejandrodnm/tradeguard/internal/domain"
	"github.com/alejandrodnm/tradeguard/internal/ports"
)

// testCatalog mirrors a standard forex account: $10 per pip per lot on the
// majors, 0.01 lot step, $1000 margin per lot.
func testCatalog() ports.StaticCatalog {
	info := func(symbol string) domain.InstrumentInfo {
		return domain.InstrumentInfo{
			Symbol:       symbol,
			Point:        0.0001,
			PipValue:     10,
			MinLot:       0.01,
			MaxLot:       100,
			LotStep:      0.01,
			MarginPerLot: 1000,
		}
	}
	return ports.StaticCatalog{
		"EURUSD": info("EURUSD"),
		"GBPUSD": info("GBPUSD"),
		"USDJPY": info("USDJPY"),
		"AUDUSD": info("AUDUSD"),
		"NZDUSD": info("NZDUSD"),
	}
}

func testParams() domain.RiskParams {
	return domain.RiskParams{
		MaxRiskPercent:      2.0,
		MinRiskReward:       1.5,
		MaxPositions:        3,
		MaxDailyLossPercent: 5.0,
		MinConfidence:       0.7,
		DefaultVolume:       0.01,
	}
}

func testSnapshot() domain.AccountSnapshot {
	return domain.AccountSnapshot{
		Equity:            10000,
		Balance:           10000,
		MarginFree:        10000,
		OpenPositionCount: 0,
		DailyRealizedPnL:  0,
	}
}

// eurusdSignal is the canonical accepted signal: RR = 2.0, risk $200.
func eurusdSignal(sourceID string) domain.Signal {
	return domain.Signal{
		Symbol:      "EURUSD",
		Direction:   domain.DirectionLong,
		Confidence:  0.8,
		EntryPrice:  1.1000,
		StopPrice:   1.0950,
		TargetPrice: 1.1100,
		GeneratedAt: time.Now().UTC(),
		SourceID:    sourceID,
	}
}

// memStore is an in-memory ports.PositionStore for engine tests.
type memStore struct {
	mu        sync.Mutex
	positions map[string]domain.Position // by ID
	bySource  map[string]string          // source_id → ID
	results   map[string]domain.TradeResult
	liveErr   error // when set, LivePositions fails
}

func newMemStore() *memStore {
	return &memStore{
		positions: make(map[string]domain.Position),
		bySource:  make(map[string]string),
		results:   make(map[string]domain.TradeResult),
	}
}

func (m *memStore) SavePosition(_ context.Context, p domain.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.bySource[p.SourceID]; dup {
		return fmt.Errorf("duplicate source_id %s", p.SourceID)
	}
	m.positions[p.ID] = p
	m.bySource[p.SourceID] = p.ID
	return nil
}

func (m *memStore) UpdatePosition(_ context.Context, p domain.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.positions[p.ID]; !ok {
		return fmt.Errorf("position %s not found", p.ID)
	}
	m.positions[p.ID] = p
	return nil
}

func (m *memStore) PositionBySourceID(_ context.Context, sourceID string) (domain.Position, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.bySource[sourceID]
	if !ok {
		return domain.Position{}, false, nil
	}
	return m.positions[id], true, nil
}

func (m *memStore) LivePositions(_ context.Context) ([]domain.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.liveErr != nil {
		return nil, m.liveErr
	}
	var live []domain.Position
	for _, p := range m.positions {
		if p.Live() {
			live = append(live, p)
		}
	}
	return live, nil
}

func (m *memStore) AppendTradeResult(_ context.Context, r domain.TradeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.results[r.PositionID]; dup {
		return nil
	}
	m.results[r.PositionID] = r
	return nil
}

func (m *memStore) TradeResults(_ context.Context, from time.Time) ([]domain.TradeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TradeResult
	for _, r := range m.results {
		if !r.ClosedAt.Before(from) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) position(id string) (domain.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.positions[id]
	return p, ok
}

// fakeTerminal is a scriptable ports.MarketTerminal.
type fakeTerminal struct {
	mu sync.Mutex

	snapshot         domain.AccountSnapshot
	quotes           map[string]domain.Quote
	quoteHadDeadline bool

	placeResults []placeStep // consumed in order; empty = always ack
	placeCalls   int
	placedKeys   map[string]domain.PlaceResult

	attachFailures int // first N attach calls fail with transport errors
	attachCalls    int

	statuses map[string]domain.TerminalPositionState
}

type placeStep struct {
	result domain.PlaceResult
	err    error
}

func newFakeTerminal() *fakeTerminal {
	return &fakeTerminal{
		snapshot: testSnapshot(),
		quotes: map[string]domain.Quote{
			"EURUSD": {Symbol: "EURUSD", Bid: 1.0999, Ask: 1.1001},
		},
		placedKeys: make(map[string]domain.PlaceResult),
		statuses:   make(map[string]domain.TerminalPositionState),
	}
}

func (t *fakeTerminal) AccountSnapshot(_ context.Context) (domain.AccountSnapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot, nil
}

func (t *fakeTerminal) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, t.quoteHadDeadline = ctx.Deadline()
	q, ok := t.quotes[symbol]
	if !ok {
		return domain.Quote{}, fmt.Errorf("no quote for %s", symbol)
	}
	return q, nil
}

func (t *fakeTerminal) PlaceOrder(_ context.Context, spec domain.OrderSpec, key string) (domain.PlaceResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.placeCalls++

	if prev, ok := t.placedKeys[key]; ok {
		return prev, nil
	}

	if len(t.placeResults) > 0 {
		step := t.placeResults[0]
		t.placeResults = t.placeResults[1:]
		if step.err != nil {
			return domain.PlaceResult{}, step.err
		}
		if step.result.Status == domain.PlaceAck {
			t.placedKeys[key] = step.result
		}
		return step.result, nil
	}

	res := domain.PlaceResult{
		Status:      domain.PlaceAck,
		TicketID:    "tkt-" + key,
		FilledPrice: spec.EntryPrice,
	}
	t.placedKeys[key] = res
	return res, nil
}

func (t *fakeTerminal) AttachProtection(_ context.Context, ticketID string, stop, target float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attachCalls++
	if t.attachCalls <= t.attachFailures {
		return &domain.TransportError{Op: "attach", Err: fmt.Errorf("timeout")}
	}
	return nil
}

func (t *fakeTerminal) PositionStatus(_ context.Context, ticketID string) (domain.TerminalPositionState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if state, ok := t.statuses[ticketID]; ok {
		return state, nil
	}
	return domain.TerminalPositionState{TicketID: ticketID}, nil
}

func (t *fakeTerminal) ClosePosition(_ context.Context, ticketID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses[ticketID] = domain.TerminalPositionState{TicketID: ticketID, Closed: true}
	return nil
}

func (t *fakeTerminal) markClosed(ticketID string, pnl float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses[ticketID] = domain.TerminalPositionState{TicketID: ticketID, Closed: true, RealizedPnL: pnl}
}

// fakeSignals returns a fixed batch, or an error when failing is set.
type fakeSignals struct {
	batch   []domain.Signal
	failing bool
}

func (f *fakeSignals) Signals(_ context.Context, _ []string) ([]domain.Signal, error) {
	if f.failing {
		return nil, fmt.Errorf("feed unreachable")
	}
	return f.batch, nil
}

// recordingAlerts captures published alerts.
type recordingAlerts struct {
	mu     sync.Mutex
	alerts []ports.Alert
}

func (r *recordingAlerts) Publish(_ context.Context, a ports.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	return nil
}

func (r *recordingAlerts) Close() error { return nil }

func (r *recordingAlerts) published() []ports.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.Alert(nil), r.alerts...)
}

// newTestController builds a controller with fast retries for tests.
func newTestController(term ports.MarketTerminal, store ports.PositionStore, alerts ports.AlertPublisher, dryRun bool) *Controller {
	c := NewController(term, store, alerts, time.Second, dryRun)
	c.placeRetry.BaseWait = time.Millisecond
	c.attachRetry.BaseWait = time.Millisecond
	return c
}

func newTestEngine(term ports.MarketTerminal, signals ports.SignalSource, store ports.PositionStore, alerts ports.AlertPublisher, dryRun bool) *Engine {
	controller := newTestController(term, store, alerts, dryRun)
	return New(
		Config{
			Symbols:        []string{"EURUSD", "GBPUSD", "USDJPY", "AUDUSD", "NZDUSD"},
			CycleInterval:  time.Minute,
			DryRun:         dryRun,
			MonitorWorkers: 2,
			FetchTimeout:   time.Second,
		},
		testParams(), testCatalog(), term, signals, store, nil, controller,
	)
}
