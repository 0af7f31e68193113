package engine

// monitor.go — concurrent reconciliation of live positions.
//
// Monitoring ticks for distinct positions run in parallel: each goroutine
// mutates only its own position row and shares nothing mutable beyond
// read-only snapshots, so no extra locking is needed.

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/tradeguard/internal/domain"
)

// monitorPositions reconciles every filled position against the terminal and
// returns how many closures were observed. Reconcile errors are transient:
// they are surfaced as warnings and retried on the next cycle.
func (e *Engine) monitorPositions(ctx context.Context) (closed int, warnings []string) {
	live, err := e.store.LivePositions(ctx)
	if err != nil {
		return 0, []string{fmt.Sprintf("could not load live positions: %v", err)}
	}

	var toCheck []domain.Position
	for _, p := range live {
		switch p.Status {
		case domain.StatusOpen, domain.StatusMonitoring, domain.StatusOpenWithRisk:
			toCheck = append(toCheck, p)
		}
	}
	if len(toCheck) == 0 {
		return 0, nil
	}

	workCh := make(chan domain.Position, len(toCheck))
	type tickResult struct {
		closed  bool
		warning string
	}
	resultCh := make(chan tickResult, len(toCheck))

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.MonitorWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range workCh {
				_, wasClosed, err := e.controller.Reconcile(ctx, pos)
				if err != nil {
					slog.Warn("monitor tick failed", "position", pos.ID, "err", err)
					resultCh <- tickResult{warning: fmt.Sprintf("monitor %s: %v", pos.ID, err)}
					continue
				}
				resultCh <- tickResult{closed: wasClosed}
			}
		}()
	}

	for _, pos := range toCheck {
		workCh <- pos
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for r := range resultCh {
		if r.closed {
			closed++
		}
		if r.warning != "" {
			warnings = append(warnings, r.warning)
		}
	}
	return closed, warnings
}
