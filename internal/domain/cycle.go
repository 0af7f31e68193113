package domain

import "time"

// SignalDisposition records what happened to one signal during a cycle,
// with a machine-readable reason code.
type SignalDisposition struct {
	SourceID string
	Symbol   string
	Outcome  string // ACCEPTED | REJECTED | BLOCKED | EXECUTED | FAILED | SKIPPED
	Reason   string // reject/block/error code, empty on success
}

// CycleReport is everything produced by one control-loop cycle.
type CycleReport struct {
	StartedAt   time.Time
	Duration    time.Duration
	DryRun      bool
	SignalsSeen int
	Accepted    int
	Rejected    int
	Blocked     int
	Executed    int
	Failed      int
	ClosedCount int // positions observed closed during monitoring
	Signals     []SignalDisposition
	Warnings    []string
}
