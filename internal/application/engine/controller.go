package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/tradeguard/internal/domain"
	"github.com/alejandrodnm/tradeguard/internal/monitoring"
	"github.com/alejandrodnm/tradeguard/internal/ports"
)

const (
	// place-order is retried at most once: the idempotency key makes the
	// second attempt safe.
	placeAttempts  = 2
	attachAttempts = 3
	baseBackoff    = 500 * time.Millisecond

	defaultCallTimeout = 10 * time.Second
)

// Controller owns the order lifecycle state machine:
//
//	Pending → Submitted → Open → Monitoring → Closed
//
// with alternate terminals Rejected, Failed, and OpenWithRisk (filled but
// unprotected). Positions are created and mutated only here.
type Controller struct {
	terminal ports.MarketTerminal
	store    ports.PositionStore
	alerts   ports.AlertPublisher

	placeRetry  RetryPolicy
	attachRetry RetryPolicy
	callTimeout time.Duration
	dryRun      bool
}

// NewController wires the state machine to its collaborators. In dry-run
// mode orders short-circuit at Submit and never reach the terminal.
func NewController(terminal ports.MarketTerminal, store ports.PositionStore, alerts ports.AlertPublisher, callTimeout time.Duration, dryRun bool) *Controller {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &Controller{
		terminal:    terminal,
		store:       store,
		alerts:      alerts,
		placeRetry:  RetryPolicy{MaxAttempts: placeAttempts, BaseWait: baseBackoff},
		attachRetry: RetryPolicy{MaxAttempts: attachAttempts, BaseWait: baseBackoff},
		callTimeout: callTimeout,
		dryRun:      dryRun,
	}
}

// ExecOutcome reports where an order ended up after one execution attempt.
type ExecOutcome struct {
	Position    domain.Position
	Reason      string // terminal reject reason or transport error text
	Unprotected bool   // filled but protection could not be attached
}

// ExecuteOrder drives a guard-approved order to a stable state. Execution is
// at-most-once per signal: the position row is keyed by SourceID and the
// terminal sees SourceID as the idempotency key.
//
// The returned error is non-nil only for infrastructure failures (store
// unavailable); business rejections and transport-exhausted orders come back
// as terminal position states.
func (c *Controller) ExecuteOrder(ctx context.Context, spec domain.OrderSpec) (ExecOutcome, error) {
	pos := domain.Position{
		ID:          uuid.New().String(),
		SourceID:    spec.SourceID,
		Symbol:      spec.Symbol,
		Direction:   spec.Direction,
		Volume:      spec.Volume,
		EntryPrice:  spec.EntryPrice,
		StopPrice:   spec.StopPrice,
		TargetPrice: spec.TargetPrice,
		OpenedAt:    time.Now().UTC(),
		Status:      domain.StatusPending,
	}

	if err := c.store.SavePosition(ctx, pos); err != nil {
		return ExecOutcome{}, fmt.Errorf("engine.ExecuteOrder: save position: %w", err)
	}

	if c.dryRun {
		// identical pipeline up to this point; simulate an immediate
		// fill at the snapshot price instead of calling the terminal
		pos.TicketID = "sim-" + pos.ID[:8]
		pos.Status = domain.StatusOpen
		if err := c.store.UpdatePosition(ctx, pos); err != nil {
			return ExecOutcome{}, fmt.Errorf("engine.ExecuteOrder: update position: %w", err)
		}
		monitoring.RecordOrder(string(pos.Status))
		slog.Info("order simulated", "position", pos.ID, "symbol", pos.Symbol,
			"direction", pos.Direction, "volume", pos.Volume, "entry", pos.EntryPrice)
		return ExecOutcome{Position: pos}, nil
	}

	pos.Status = domain.StatusSubmitted
	if err := c.store.UpdatePosition(ctx, pos); err != nil {
		return ExecOutcome{}, fmt.Errorf("engine.ExecuteOrder: update position: %w", err)
	}

	// An in-flight Submitted order must reach a stable state even when the
	// engine is shutting down, so the terminal round-trip survives ctx
	// cancellation. Each attempt still carries its own bounded timeout.
	detached := context.WithoutCancel(ctx)

	var placed domain.PlaceResult
	err := c.placeRetry.Do(detached, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
		var opErr error
		placed, opErr = c.terminal.PlaceOrder(callCtx, spec, spec.SourceID)
		return opErr
	})
	if err != nil {
		return c.markFailed(detached, pos, err)
	}

	if placed.Status == domain.PlaceRejected {
		return c.markRejected(detached, pos, placed.RejectReason)
	}

	pos.TicketID = placed.TicketID
	if placed.FilledPrice > 0 {
		pos.EntryPrice = placed.FilledPrice
	}
	pos.Status = domain.StatusOpen
	if err := c.store.UpdatePosition(detached, pos); err != nil {
		return ExecOutcome{}, fmt.Errorf("engine.ExecuteOrder: update position: %w", err)
	}
	monitoring.RecordOrder(string(domain.StatusOpen))
	slog.Info("order filled", "position", pos.ID, "ticket", pos.TicketID,
		"symbol", pos.Symbol, "volume", pos.Volume, "entry", pos.EntryPrice)

	return c.attachProtection(detached, pos)
}

// attachProtection sets the protective stop/target on a freshly filled
// position. Exhausting the retries transitions to OpenWithRisk and raises a
// critical alert: protection is never silently dropped.
func (c *Controller) attachProtection(ctx context.Context, pos domain.Position) (ExecOutcome, error) {
	err := c.attachRetry.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
		return c.terminal.AttachProtection(callCtx, pos.TicketID, pos.StopPrice, pos.TargetPrice)
	})
	if err == nil {
		return ExecOutcome{Position: pos}, nil
	}

	attachErr := &domain.ProtectionAttachError{
		PositionID: pos.ID,
		Attempts:   c.attachRetry.MaxAttempts,
		Err:        err,
	}

	pos.Status = domain.StatusOpenWithRisk
	if upErr := c.store.UpdatePosition(ctx, pos); upErr != nil {
		return ExecOutcome{}, fmt.Errorf("engine.attachProtection: update position: %w", upErr)
	}
	monitoring.RecordOrder(string(domain.StatusOpenWithRisk))

	slog.Error("position open without protection", "position", pos.ID,
		"ticket", pos.TicketID, "symbol", pos.Symbol, "err", err)
	c.raiseAlert(ctx, ports.Alert{
		Severity:   ports.SeverityCritical,
		Code:       "OPEN_WITH_RISK",
		Message:    attachErr.Error(),
		Symbol:     pos.Symbol,
		PositionID: pos.ID,
		RaisedAt:   time.Now().UTC(),
	})

	return ExecOutcome{Position: pos, Reason: attachErr.Error(), Unprotected: true}, nil
}

func (c *Controller) markRejected(ctx context.Context, pos domain.Position, reason string) (ExecOutcome, error) {
	pos.Status = domain.StatusRejected
	if err := c.store.UpdatePosition(ctx, pos); err != nil {
		return ExecOutcome{}, fmt.Errorf("engine.markRejected: update position: %w", err)
	}
	if err := c.store.AppendTradeResult(ctx, domain.TradeResult{
		PositionID: pos.ID,
		Symbol:     pos.Symbol,
		Volume:     pos.Volume,
		Outcome:    domain.OutcomeRejected,
		ClosedAt:   time.Now().UTC(),
	}); err != nil {
		slog.Warn("could not log rejected trade", "position", pos.ID, "err", err)
	}
	monitoring.RecordOrder(string(domain.StatusRejected))
	slog.Warn("order rejected by terminal", "position", pos.ID,
		"symbol", pos.Symbol, "reason", reason)
	return ExecOutcome{Position: pos, Reason: reason}, nil
}

func (c *Controller) markFailed(ctx context.Context, pos domain.Position, cause error) (ExecOutcome, error) {
	pos.Status = domain.StatusFailed
	if err := c.store.UpdatePosition(ctx, pos); err != nil {
		return ExecOutcome{}, fmt.Errorf("engine.markFailed: update position: %w", err)
	}
	if err := c.store.AppendTradeResult(ctx, domain.TradeResult{
		PositionID: pos.ID,
		Symbol:     pos.Symbol,
		Volume:     pos.Volume,
		Outcome:    domain.OutcomeError,
		ClosedAt:   time.Now().UTC(),
	}); err != nil {
		slog.Warn("could not log failed trade", "position", pos.ID, "err", err)
	}
	monitoring.RecordOrder(string(domain.StatusFailed))
	slog.Error("order failed after retries", "position", pos.ID,
		"symbol", pos.Symbol, "err", cause)
	return ExecOutcome{Position: pos, Reason: cause.Error()}, nil
}

// Reconcile compares a live position against the terminal's view and applies
// any externally observed closure (stop/target hit, manual close). Closing an
// already-closed position is a no-op, so at-least-once delivery of close
// notifications is tolerated.
func (c *Controller) Reconcile(ctx context.Context, pos domain.Position) (domain.Position, bool, error) {
	if pos.Status == domain.StatusClosed {
		return pos, false, nil
	}

	// first tick after a fill moves the position into Monitoring
	if pos.Status == domain.StatusOpen {
		pos.Status = domain.StatusMonitoring
		if err := c.store.UpdatePosition(ctx, pos); err != nil {
			return pos, false, fmt.Errorf("engine.Reconcile: update position: %w", err)
		}
	}

	// simulated fills have no terminal-side position to query
	if c.dryRun {
		return pos, false, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	state, err := c.terminal.PositionStatus(callCtx, pos.TicketID)
	if err != nil {
		return pos, false, fmt.Errorf("engine.Reconcile: position %s status: %w", pos.ID, err)
	}
	if !state.Closed {
		return pos, false, nil
	}

	closed, err := c.applyClosure(ctx, pos, state.RealizedPnL)
	return closed, err == nil, err
}

// ForceClose closes a live position terminal-side and records the result.
func (c *Controller) ForceClose(ctx context.Context, pos domain.Position) (domain.Position, error) {
	if pos.Terminal() {
		return pos, nil
	}

	if !c.dryRun {
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
		if err := c.terminal.ClosePosition(callCtx, pos.TicketID); err != nil {
			return pos, fmt.Errorf("engine.ForceClose: close %s: %w", pos.ID, err)
		}
	}

	var pnl float64
	if !c.dryRun {
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
		if state, err := c.terminal.PositionStatus(callCtx, pos.TicketID); err == nil && state.Closed {
			pnl = state.RealizedPnL
		}
	}
	return c.applyClosure(ctx, pos, pnl)
}

// applyClosure transitions to Closed and appends the trade result. Idempotent.
func (c *Controller) applyClosure(ctx context.Context, pos domain.Position, realizedPnL float64) (domain.Position, error) {
	if pos.Status == domain.StatusClosed {
		return pos, nil
	}

	now := time.Now().UTC()
	pos.Status = domain.StatusClosed
	pos.ClosedAt = &now
	if err := c.store.UpdatePosition(ctx, pos); err != nil {
		return pos, fmt.Errorf("engine.applyClosure: update position: %w", err)
	}
	if err := c.store.AppendTradeResult(ctx, domain.TradeResult{
		PositionID:  pos.ID,
		Symbol:      pos.Symbol,
		Volume:      pos.Volume,
		Outcome:     domain.OutcomeFilled,
		RealizedPnL: realizedPnL,
		ClosedAt:    now,
	}); err != nil {
		return pos, fmt.Errorf("engine.applyClosure: append result: %w", err)
	}

	monitoring.RecordOrder(string(domain.StatusClosed))
	slog.Info("position closed", "position", pos.ID, "symbol", pos.Symbol,
		"pnl", fmt.Sprintf("%.2f", realizedPnL))
	return pos, nil
}

// raiseAlert publishes best-effort: a dead alert channel must not stop the
// trading cycle.
func (c *Controller) raiseAlert(ctx context.Context, alert ports.Alert) {
	if c.alerts == nil {
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	if err := c.alerts.Publish(callCtx, alert); err != nil {
		slog.Warn("alert publish failed", "code", alert.Code, "err", err)
	}
}
