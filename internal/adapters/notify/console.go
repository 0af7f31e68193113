package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/tradeguard/internal/domain"
)

// Console implements ports.Notifier on stdout.
type Console struct {
	out   io.Writer
	table bool // full per-signal table vs compact 1-line
}

// NewConsole creates a notifier that writes to stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyCycle prints the cycle report in the configured mode.
func (c *Console) NotifyCycle(_ context.Context, report domain.CycleReport) error {
	if c.table {
		c.printCycleTable(report)
	} else {
		c.printCompact(report)
	}

	for _, w := range report.Warnings {
		fmt.Fprintf(c.out, "  ! %s\n", w)
	}
	return nil
}

// printCompact prints the essentials in one line.
func (c *Console) printCompact(report domain.CycleReport) {
	mode := ""
	if report.DryRun {
		mode = " [dry-run]"
	}
	fmt.Fprintf(c.out, "[%s]%s %d signals → exec:%d rej:%d blk:%d fail:%d closed:%d (%s)\n",
		report.StartedAt.Local().Format("15:04:05"), mode,
		report.SignalsSeen, report.Executed, report.Rejected, report.Blocked,
		report.Failed, report.ClosedCount,
		report.Duration.Round(time.Millisecond),
	)
}

// printCycleTable prints one row per signal with its disposition.
func (c *Console) printCycleTable(report domain.CycleReport) {
	c.printCompact(report)
	if len(report.Signals) == 0 {
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Source", "Symbol", "Outcome", "Reason")
	for i, d := range report.Signals {
		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(d.SourceID, 18),
			d.Symbol,
			d.Outcome,
			truncate(d.Reason, 48),
		)
	}
	table.Render()
}

// NotifySummary prints the trading summary table.
func (c *Console) NotifySummary(_ context.Context, s domain.Summary) error {
	fmt.Fprintf(c.out, "Trading summary — last %d days (since %s)\n",
		s.WindowDays, s.From.Format("2006-01-02"))

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")
	table.Append("Trades", fmt.Sprintf("%d", s.TotalTrades))
	table.Append("Winners", fmt.Sprintf("%d", s.WinningTrades))
	table.Append("Losers", fmt.Sprintf("%d", s.LosingTrades))
	table.Append("Win rate", fmt.Sprintf("%.1f%%", s.WinRate))
	table.Append("Total P/L", fmt.Sprintf("$%.2f", s.TotalPnL))
	table.Append("Open positions", fmt.Sprintf("%d", s.OpenPositions))
	table.Append("Open exposure", fmt.Sprintf("$%.2f", s.OpenExposure))
	table.Append("Balance", fmt.Sprintf("$%.2f", s.Balance))
	table.Append("Equity", fmt.Sprintf("$%.2f", s.Equity))
	table.Render()
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return strings.TrimSpace(s[:max-1]) + "…"
}
