package storage

// sqlite.go — default PositionStore backend (pure Go, no CGo).
//
// Positions are keyed by a local UUID with a UNIQUE source_id, which backs
// the at-most-once execution guarantee at the persistence layer. The trade
// log is append-only with position_id as primary key, so replayed closures
// collapse into a single row.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/tradeguard/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS positions (
    id           TEXT PRIMARY KEY,
    source_id    TEXT NOT NULL UNIQUE,
    ticket_id    TEXT NOT NULL DEFAULT '',
    symbol       TEXT NOT NULL,
    direction    TEXT NOT NULL,
    volume       REAL NOT NULL,
    entry_price  REAL NOT NULL,
    stop_price   REAL NOT NULL,
    target_price REAL NOT NULL,
    opened_at    DATETIME NOT NULL,
    status       TEXT NOT NULL,
    closed_at    DATETIME
);

CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);
CREATE INDEX IF NOT EXISTS idx_positions_symbol ON positions(symbol);

CREATE TABLE IF NOT EXISTS trade_results (
    position_id  TEXT PRIMARY KEY,
    symbol       TEXT NOT NULL,
    volume       REAL NOT NULL,
    outcome      TEXT NOT NULL,
    realized_pnl REAL NOT NULL DEFAULT 0,
    closed_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_closed ON trade_results(closed_at DESC);
`

// liveStatuses are the position states that still hold or await exposure.
const liveStatuses = `('PENDING', 'SUBMITTED', 'OPEN', 'MONITORING', 'OPEN_WITH_RISK')`

// SQLiteStore implements ports.PositionStore on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given path and
// applies the schema. Use ":memory:" for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// SavePosition inserts a new position. A second insert for the same
// source_id violates the unique index and fails.
func (s *SQLiteStore) SavePosition(ctx context.Context, p domain.Position) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO positions
			(id, source_id, ticket_id, symbol, direction, volume,
			 entry_price, stop_price, target_price, opened_at, status, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SourceID, p.TicketID, p.Symbol, string(p.Direction), p.Volume,
		p.EntryPrice, p.StopPrice, p.TargetPrice, p.OpenedAt.UTC(), string(p.Status), closedAt(p),
	)
	if err != nil {
		return fmt.Errorf("storage.SavePosition: insert %s: %w", p.ID, err)
	}
	return nil
}

// UpdatePosition rewrites the mutable fields of an existing position.
func (s *SQLiteStore) UpdatePosition(ctx context.Context, p domain.Position) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE positions
		SET ticket_id = ?, entry_price = ?, status = ?, closed_at = ?
		WHERE id = ?`,
		p.TicketID, p.EntryPrice, string(p.Status), closedAt(p), p.ID,
	)
	if err != nil {
		return fmt.Errorf("storage.UpdatePosition: update %s: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage.UpdatePosition: position %s not found", p.ID)
	}
	return nil
}

// PositionBySourceID returns the position created for a signal, if any.
func (s *SQLiteStore) PositionBySourceID(ctx context.Context, sourceID string) (domain.Position, bool, error) {
	row := s.db.QueryRowContext(ctx,
		selectPositions+` WHERE source_id = ?`, sourceID)
	p, err := scanPosition(row)
	if err == sql.ErrNoRows {
		return domain.Position{}, false, nil
	}
	if err != nil {
		return domain.Position{}, false, fmt.Errorf("storage.PositionBySourceID: %w", err)
	}
	return p, true, nil
}

// LivePositions returns every position still holding or awaiting exposure.
func (s *SQLiteStore) LivePositions(ctx context.Context) ([]domain.Position, error) {
	rows, err := s.db.QueryContext(ctx,
		selectPositions+` WHERE status IN `+liveStatuses+` ORDER BY opened_at`)
	if err != nil {
		return nil, fmt.Errorf("storage.LivePositions: query: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.LivePositions: scan: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// AppendTradeResult adds one entry to the trade log. A duplicate append for
// the same position is silently ignored.
func (s *SQLiteStore) AppendTradeResult(ctx context.Context, r domain.TradeResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO trade_results
			(position_id, symbol, volume, outcome, realized_pnl, closed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.PositionID, r.Symbol, r.Volume, string(r.Outcome), r.RealizedPnL, r.ClosedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.AppendTradeResult: insert %s: %w", r.PositionID, err)
	}
	return nil
}

// TradeResults returns log entries closed at or after the given time, oldest
// first.
func (s *SQLiteStore) TradeResults(ctx context.Context, from time.Time) ([]domain.TradeResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position_id, symbol, volume, outcome, realized_pnl, closed_at
		FROM trade_results
		WHERE closed_at >= ?
		ORDER BY closed_at`,
		from.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.TradeResults: query: %w", err)
	}
	defer rows.Close()

	var results []domain.TradeResult
	for rows.Next() {
		var r domain.TradeResult
		var outcome string
		if err := rows.Scan(&r.PositionID, &r.Symbol, &r.Volume, &outcome, &r.RealizedPnL, &r.ClosedAt); err != nil {
			return nil, fmt.Errorf("storage.TradeResults: scan: %w", err)
		}
		r.Outcome = domain.TradeOutcome(outcome)
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close closes the database cleanly.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const selectPositions = `
	SELECT id, source_id, ticket_id, symbol, direction, volume,
	       entry_price, stop_price, target_price, opened_at, status, closed_at
	FROM positions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (domain.Position, error) {
	var p domain.Position
	var direction, status string
	var closed sql.NullTime
	err := row.Scan(&p.ID, &p.SourceID, &p.TicketID, &p.Symbol, &direction, &p.Volume,
		&p.EntryPrice, &p.StopPrice, &p.TargetPrice, &p.OpenedAt, &status, &closed)
	if err != nil {
		return domain.Position{}, err
	}
	p.Direction = domain.Direction(direction)
	p.Status = domain.PositionStatus(status)
	if closed.Valid {
		t := closed.Time
		p.ClosedAt = &t
	}
	return p, nil
}

func closedAt(p domain.Position) any {
	if p.ClosedAt == nil {
		return nil
	}
	return (*p.ClosedAt).UTC()
}
