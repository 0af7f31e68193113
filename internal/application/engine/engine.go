package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/tradeguard/internal/domain"
	"github.com/alejandrodnm/tradeguard/internal/monitoring"
	"github.com/alejandrodnm/tradeguard/internal/ports"
)

// Config controls the execution engine's control loop.
type Config struct {
	Symbols        []string
	CycleInterval  time.Duration
	DryRun         bool
	MonitorWorkers int // goroutines for concurrent position monitoring (0 = 4)
	FetchTimeout   time.Duration
}

// Engine drives each trading cycle: refresh snapshot → fetch signals →
// validate/size/guard/execute each → monitor open positions → wait.
type Engine struct {
	cfg        Config
	params     domain.RiskParams
	catalog    ports.InstrumentCatalog
	terminal   ports.MarketTerminal
	signals    ports.SignalSource
	store      ports.PositionStore
	notifier   ports.Notifier
	controller *Controller

	// account-level critical section: guard evaluation and order
	// submission are atomic with respect to other signal executions, so
	// concurrent signals cannot race past max_positions or the daily-loss
	// floor.
	mu sync.Mutex
}

// New creates an Engine with all dependencies injected.
func New(
	cfg Config,
	params domain.RiskParams,
	catalog ports.InstrumentCatalog,
	terminal ports.MarketTerminal,
	signals ports.SignalSource,
	store ports.PositionStore,
	notifier ports.Notifier,
	controller *Controller,
) *Engine {
	if cfg.MonitorWorkers <= 0 {
		cfg.MonitorWorkers = 4
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultCallTimeout
	}
	return &Engine{
		cfg:        cfg,
		params:     params,
		catalog:    catalog,
		terminal:   terminal,
		signals:    signals,
		store:      store,
		notifier:   notifier,
		controller: controller,
	}
}

// Run executes the control loop until the context is cancelled. Cancellation
// stops acceptance of new signals immediately; any in-flight submitted order
// still reaches a stable state before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting",
		"interval", e.cfg.CycleInterval,
		"symbols", e.cfg.Symbols,
		"dry_run", e.cfg.DryRun,
	)

	e.runCycleLogged(ctx)

	ticker := time.NewTicker(e.cfg.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("engine stopped")
			return nil
		case <-ticker.C:
			e.runCycleLogged(ctx)
		}
	}
}

func (e *Engine) runCycleLogged(ctx context.Context) {
	report, err := e.RunCycle(ctx)
	if err != nil {
		slog.Error("cycle failed", "err", err)
		return
	}
	if e.notifier != nil {
		if err := e.notifier.NotifyCycle(ctx, report); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}
}

// RunCycle executes exactly one trading cycle and returns its report. Every
// rejection, block, and error appears in the report with a machine-readable
// reason code; per-signal failures never abort the cycle.
func (e *Engine) RunCycle(ctx context.Context) (domain.CycleReport, error) {
	start := time.Now()
	report := domain.CycleReport{StartedAt: start.UTC(), DryRun: e.cfg.DryRun}

	snap, err := e.accountSnapshot(ctx)
	if err != nil {
		return report, fmt.Errorf("engine.RunCycle: account snapshot: %w", err)
	}
	monitoring.SetDailyPnL(snap.DailyRealizedPnL)

	signals := e.fetchSignals(ctx, &report)
	report.SignalsSeen = len(signals)

	for _, sig := range signals {
		if ctx.Err() != nil {
			report.Warnings = append(report.Warnings, "shutdown requested, remaining signals dropped")
			break
		}
		e.processSignal(ctx, sig, snap, &report)
	}

	closed, warnings := e.monitorPositions(ctx)
	report.ClosedCount = closed
	report.Warnings = append(report.Warnings, warnings...)

	e.surfaceUnprotected(ctx, &report)

	report.Duration = time.Since(start)
	monitoring.ObserveCycleDuration(report.Duration)
	slog.Info("cycle complete",
		"signals", report.SignalsSeen,
		"executed", report.Executed,
		"rejected", report.Rejected,
		"blocked", report.Blocked,
		"failed", report.Failed,
		"closed", report.ClosedCount,
		"duration", report.Duration.Round(time.Millisecond),
	)
	return report, nil
}

// accountSnapshot fetches the broker account state with a bounded timeout.
func (e *Engine) accountSnapshot(ctx context.Context) (domain.AccountSnapshot, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()
	return e.terminal.AccountSnapshot(callCtx)
}

// fetchSignals asks the signal source for fresh signals. An unavailable
// source degrades to an empty cycle, never an aborted one.
func (e *Engine) fetchSignals(ctx context.Context, report *domain.CycleReport) []domain.Signal {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	signals, err := e.signals.Signals(callCtx, e.cfg.Symbols)
	if err != nil {
		slog.Warn("signal source unavailable", "err", err)
		report.Warnings = append(report.Warnings, fmt.Sprintf("signal source unavailable: %v", err))
		return nil
	}
	return signals
}

// processSignal runs one signal through dedup → validate → size → guard →
// execute and records its disposition in the report.
func (e *Engine) processSignal(ctx context.Context, sig domain.Signal, snap domain.AccountSnapshot, report *domain.CycleReport) {
	disp := domain.SignalDisposition{SourceID: sig.SourceID, Symbol: sig.Symbol}
	defer func() { report.Signals = append(report.Signals, disp) }()

	// each SourceID maps to at most one Position, across cycles and retries
	if _, exists, err := e.store.PositionBySourceID(ctx, sig.SourceID); err != nil {
		disp.Outcome = "FAILED"
		disp.Reason = err.Error()
		report.Failed++
		return
	} else if exists {
		disp.Outcome = "SKIPPED"
		disp.Reason = "DUPLICATE_SOURCE_ID"
		monitoring.RecordSignal("duplicate")
		return
	}

	if rej := Validate(sig, e.params, e.catalog, time.Now()); rej != nil {
		disp.Outcome = "REJECTED"
		disp.Reason = string(rej.Reason)
		report.Rejected++
		monitoring.RecordSignal("rejected")
		slog.Debug("signal rejected", "source", sig.SourceID, "reason", rej.Reason, "details", rej.Details)
		return
	}
	report.Accepted++
	monitoring.RecordSignal("accepted")

	inst, _ := e.catalog.Lookup(sig.Symbol)

	spec, err := SizeOrder(sig, snap, e.params, inst)
	if err != nil {
		disp.Outcome = "FAILED"
		disp.Reason = sizingCode(err)
		report.Failed++
		monitoring.RecordError("sizing")
		slog.Warn("signal could not be sized", "source", sig.SourceID, "err", err)
		return
	}

	if e.cfg.DryRun {
		// simulate the fill at the current snapshot price
		quoteCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
		if q, qErr := e.terminal.Quote(quoteCtx, sig.Symbol); qErr == nil {
			spec.EntryPrice = q.EntryFor(sig.Direction)
		}
		cancel()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	live, err := e.store.LivePositions(ctx)
	if err != nil {
		disp.Outcome = "FAILED"
		disp.Reason = err.Error()
		report.Failed++
		return
	}

	if decision := CheckLimits(spec, live, guardSnapshot(snap, live), e.params, inst); !decision.Allowed {
		disp.Outcome = "BLOCKED"
		disp.Reason = string(decision.Reason)
		report.Blocked++
		monitoring.RecordSignal("blocked")
		slog.Info("signal blocked by risk limits", "source", sig.SourceID,
			"symbol", sig.Symbol, "reason", decision.Reason)
		return
	}

	outcome, err := e.controller.ExecuteOrder(ctx, spec)
	if err != nil {
		disp.Outcome = "FAILED"
		disp.Reason = err.Error()
		report.Failed++
		monitoring.RecordError("execute")
		slog.Error("execution failed", "source", sig.SourceID, "err", err)
		return
	}

	switch outcome.Position.Status {
	case domain.StatusOpen, domain.StatusMonitoring, domain.StatusOpenWithRisk:
		disp.Outcome = "EXECUTED"
		report.Executed++
		if outcome.Unprotected {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("UNPROTECTED FILL: %s %s — %s", outcome.Position.Symbol, outcome.Position.ID, outcome.Reason))
		}
	case domain.StatusRejected:
		disp.Outcome = "FAILED"
		disp.Reason = "TERMINAL_REJECTED: " + outcome.Reason
		report.Failed++
	default:
		disp.Outcome = "FAILED"
		disp.Reason = outcome.Reason
		report.Failed++
	}
}

// guardSnapshot folds locally tracked live positions into the broker
// snapshot so positions opened earlier in this same cycle count against the
// limits.
func guardSnapshot(snap domain.AccountSnapshot, live []domain.Position) domain.AccountSnapshot {
	count := 0
	for _, p := range live {
		if p.Live() {
			count++
		}
	}
	if count > snap.OpenPositionCount {
		snap.OpenPositionCount = count
	}
	return snap
}

// surfaceUnprotected repeats a warning for every live unprotected position:
// unmanaged exposure stays visible until it is resolved.
func (e *Engine) surfaceUnprotected(ctx context.Context, report *domain.CycleReport) {
	live, err := e.store.LivePositions(ctx)
	if err != nil {
		// a store outage must not hide unprotected exposure silently
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("could not check for unprotected positions: %v", err))
		return
	}
	liveCount := 0
	for _, p := range live {
		if p.Live() {
			liveCount++
		}
		if p.Status == domain.StatusOpenWithRisk {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("OPEN WITHOUT PROTECTION: %s %s %.2f lots", p.Symbol, p.ID, p.Volume))
		}
	}
	monitoring.SetOpenPositions(liveCount)
}

func sizingCode(err error) string {
	if se, ok := err.(*domain.SizingError); ok {
		return string(se.Code)
	}
	return err.Error()
}
