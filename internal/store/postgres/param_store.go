package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/updownlabs/updown/internal/domain"
)

// ParamStore implements domain.ParamStore using a single-row table.
type ParamStore struct {
	pool *pgxpool.Pool
}

// NewParamStore creates a new ParamStore backed by the given connection pool.
func NewParamStore(pool *pgxpool.Pool) *ParamStore {
	return &ParamStore{pool: pool}
}

// Seed writes initial parameters only if none are stored yet.
func (s *ParamStore) Seed(ctx context.Context, p domain.Params) error {
	const query = `
		INSERT INTO params (id, oracle, minimum_stake, fee_percentage)
		VALUES (TRUE, $1, $2, $3)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query, p.Oracle.Hex(), p.MinimumStake, p.FeePercentage)
	if err != nil {
		return fmt.Errorf("postgres: seed params: %w", err)
	}
	return nil
}

// Get returns the stored parameters.
func (s *ParamStore) Get(ctx context.Context) (domain.Params, error) {
	var p domain.Params
	var oracle string
	err := s.pool.QueryRow(ctx,
		`SELECT oracle, minimum_stake, fee_percentage FROM params WHERE id`,
	).Scan(&oracle, &p.MinimumStake, &p.FeePercentage)
	if err != nil {
		return domain.Params{}, fmt.Errorf("postgres: get params: %w", err)
	}
	if oracle != "" {
		acct, err := domain.ParseAccount(oracle)
		if err != nil {
			return domain.Params{}, err
		}
		p.Oracle = acct
	}
	return p, nil
}

// Set replaces the stored parameters.
func (s *ParamStore) Set(ctx context.Context, p domain.Params) error {
	const query = `
		INSERT INTO params (id, oracle, minimum_stake, fee_percentage, updated_at)
		VALUES (TRUE, $1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET
			oracle         = EXCLUDED.oracle,
			minimum_stake  = EXCLUDED.minimum_stake,
			fee_percentage = EXCLUDED.fee_percentage,
			updated_at     = NOW()`

	_, err := s.pool.Exec(ctx, query, p.Oracle.Hex(), p.MinimumStake, p.FeePercentage)
	if err != nil {
		return fmt.Errorf("postgres: set params: %w", err)
	}
	return nil
}
