package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/updownlabs/updown/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL. Id assignment
// is delegated to the markets identity column, which starts at 0 and never
// reuses a value.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a new MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

const marketCols = `id, start_price, end_price, total_up_stake, total_down_stake,
	start_block, end_block, resolved, created_at, resolved_at`

func scanMarket(row pgx.Row) (domain.Market, error) {
	var m domain.Market
	err := row.Scan(
		&m.ID, &m.StartPrice, &m.EndPrice,
		&m.TotalUpStake, &m.TotalDownStake,
		&m.StartBlock, &m.EndBlock,
		&m.Resolved, &m.CreatedAt, &m.ResolvedAt,
	)
	return m, err
}

// Create inserts a new market and returns the assigned id.
func (s *MarketStore) Create(ctx context.Context, m domain.Market) (uint64, error) {
	const query = `
		INSERT INTO markets (
			start_price, end_price, total_up_stake, total_down_stake,
			start_block, end_block, resolved, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id uint64
	err := s.pool.QueryRow(ctx, query,
		m.StartPrice, m.EndPrice,
		m.TotalUpStake, m.TotalDownStake,
		m.StartBlock, m.EndBlock,
		m.Resolved, m.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: create market: %w", err)
	}
	return id, nil
}

// Get retrieves a market by id.
func (s *MarketStore) Get(ctx context.Context, id uint64) (domain.Market, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+marketCols+` FROM markets WHERE id = $1`, id)
	m, err := scanMarket(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %d: %w", id, err)
	}
	return m, nil
}

// Update replaces the stored record for m.ID.
func (s *MarketStore) Update(ctx context.Context, m domain.Market) error {
	const query = `
		UPDATE markets SET
			end_price        = $2,
			total_up_stake   = $3,
			total_down_stake = $4,
			resolved         = $5,
			resolved_at      = $6
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		m.ID, m.EndPrice,
		m.TotalUpStake, m.TotalDownStake,
		m.Resolved, m.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update market %d: %w", m.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns markets ordered by id with pagination.
func (s *MarketStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	query := `SELECT ` + marketCols + ` FROM markets ORDER BY id`
	args := []any{}
	argIdx := 1

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list markets rows: %w", err)
	}
	return markets, nil
}

// Count returns the number of markets ever created.
func (s *MarketStore) Count(ctx context.Context) (uint64, error) {
	var count uint64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM markets").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return count, nil
}
