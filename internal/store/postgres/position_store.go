package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/updownlabs/updown/internal/domain"
)

// PositionStore implements domain.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *pgxpool.Pool
}

// NewPositionStore creates a new PositionStore backed by the given connection pool.
func NewPositionStore(pool *pgxpool.Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

const positionCols = `market_id, account, side, stake, claimed, placed_at, claimed_at`

func scanPosition(row pgx.Row) (domain.Position, error) {
	var p domain.Position
	var account, side string
	err := row.Scan(
		&p.MarketID, &account, &side,
		&p.Stake, &p.Claimed,
		&p.PlacedAt, &p.ClaimedAt,
	)
	if err != nil {
		return domain.Position{}, err
	}
	acct, err := domain.ParseAccount(account)
	if err != nil {
		return domain.Position{}, err
	}
	p.Account = acct
	p.Side = domain.Side(side)
	return p, nil
}

// Create inserts a new position. The primary key on (market_id, account)
// enforces the one-position-per-pair invariant.
func (s *PositionStore) Create(ctx context.Context, p domain.Position) error {
	const query = `
		INSERT INTO positions (market_id, account, side, stake, claimed, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		p.MarketID, p.Account.Hex(), string(p.Side),
		p.Stake, p.Claimed, p.PlacedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("postgres: create position %d/%s: %w", p.MarketID, p.Account.Hex(), err)
	}
	return nil
}

// Get retrieves the position held by account on the given market.
func (s *PositionStore) Get(ctx context.Context, marketID uint64, account domain.Account) (domain.Position, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+positionCols+` FROM positions WHERE market_id = $1 AND account = $2`,
		marketID, account.Hex())
	p, err := scanPosition(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Position{}, domain.ErrNotFound
		}
		return domain.Position{}, fmt.Errorf("postgres: get position %d/%s: %w", marketID, account.Hex(), err)
	}
	return p, nil
}

// Update replaces the stored record for (p.MarketID, p.Account).
func (s *PositionStore) Update(ctx context.Context, p domain.Position) error {
	const query = `
		UPDATE positions SET claimed = $3, claimed_at = $4
		WHERE market_id = $1 AND account = $2`

	tag, err := s.pool.Exec(ctx, query,
		p.MarketID, p.Account.Hex(), p.Claimed, p.ClaimedAt)
	if err != nil {
		return fmt.Errorf("postgres: update position %d/%s: %w", p.MarketID, p.Account.Hex(), err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByMarket returns every position on a market in placement order.
func (s *PositionStore) ListByMarket(ctx context.Context, marketID uint64) ([]domain.Position, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+positionCols+` FROM positions WHERE market_id = $1 ORDER BY placed_at`,
		marketID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list positions for market %d: %w", marketID, err)
	}
	defer rows.Close()
	return collectPositions(rows)
}

// ListByAccount returns every position held by an account across markets.
func (s *PositionStore) ListByAccount(ctx context.Context, account domain.Account) ([]domain.Position, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+positionCols+` FROM positions WHERE account = $1 ORDER BY market_id`,
		account.Hex())
	if err != nil {
		return nil, fmt.Errorf("postgres: list positions for %s: %w", account.Hex(), err)
	}
	defer rows.Close()
	return collectPositions(rows)
}

func collectPositions(rows pgx.Rows) ([]domain.Position, error) {
	var positions []domain.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan position: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: position rows: %w", err)
	}
	return positions, nil
}
