package storage

// postgres.go — alternative PositionStore backend for deployments that
// already run Postgres. Same contract and same idempotency guarantees as the
// SQLite backend, selected with storage.driver = "postgres".

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/tradeguard/internal/domain"
	_ "github.com/lib/pq"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS positions (
    id           TEXT PRIMARY KEY,
    source_id    TEXT NOT NULL UNIQUE,
    ticket_id    TEXT NOT NULL DEFAULT '',
    symbol       TEXT NOT NULL,
    direction    TEXT NOT NULL,
    volume       DOUBLE PRECISION NOT NULL,
    entry_price  DOUBLE PRECISION NOT NULL,
    stop_price   DOUBLE PRECISION NOT NULL,
    target_price DOUBLE PRECISION NOT NULL,
    opened_at    TIMESTAMPTZ NOT NULL,
    status       TEXT NOT NULL,
    closed_at    TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);
CREATE INDEX IF NOT EXISTS idx_positions_symbol ON positions(symbol);

CREATE TABLE IF NOT EXISTS trade_results (
    position_id  TEXT PRIMARY KEY,
    symbol       TEXT NOT NULL,
    volume       DOUBLE PRECISION NOT NULL,
    outcome      TEXT NOT NULL,
    realized_pnl DOUBLE PRECISION NOT NULL DEFAULT 0,
    closed_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_closed ON trade_results(closed_at DESC);
`

// PostgresStore implements ports.PositionStore on Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects with the given DSN and applies the schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage.NewPostgresStore: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewPostgresStore: ping: %w", err)
	}
	if _, err := db.Exec(pgSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewPostgresStore: apply schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) SavePosition(ctx context.Context, p domain.Position) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO positions
			(id, source_id, ticket_id, symbol, direction, volume,
			 entry_price, stop_price, target_price, opened_at, status, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.SourceID, p.TicketID, p.Symbol, string(p.Direction), p.Volume,
		p.EntryPrice, p.StopPrice, p.TargetPrice, p.OpenedAt.UTC(), string(p.Status), closedAt(p),
	)
	if err != nil {
		return fmt.Errorf("storage.SavePosition: insert %s: %w", p.ID, err)
	}
	return nil
}

func (s *PostgresStore) UpdatePosition(ctx context.Context, p domain.Position) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE positions
		SET ticket_id = $1, entry_price = $2, status = $3, closed_at = $4
		WHERE id = $5`,
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

func (s *PostgresStore) PositionBySourceID(ctx context.Context, sourceID string) (domain.Position, bool, error) {
	row := s.db.QueryRowContext(ctx,
		selectPositions+` WHERE source_id = $1`, sourceID)
	p, err := scanPosition(row)
	if err == sql.ErrNoRows {
		return domain.Position{}, false, nil
	}
	if err != nil {
		return domain.Position{}, false, fmt.Errorf("storage.PositionBySourceID: %w", err)
	}
	return p, true, nil
}

func (s *PostgresStore) LivePositions(ctx context.Context) ([]domain.Position, error) {
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

func (s *PostgresStore) AppendTradeResult(ctx context.Context, r domain.TradeResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trade_results
			(position_id, symbol, volume, outcome, realized_pnl, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (position_id) DO NOTHING`,
		r.PositionID, r.Symbol, r.Volume, string(r.Outcome), r.RealizedPnL, r.ClosedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.AppendTradeResult: insert %s: %w", r.PositionID, err)
	}
	return nil
}

func (s *PostgresStore) TradeResults(ctx context.Context, from time.Time) ([]domain.TradeResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position_id, symbol, volume, outcome, realized_pnl, closed_at
		FROM trade_results
		WHERE closed_at >= $1
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

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
