package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/updownlabs/updown/internal/domain"
)

// SetOracleAddress designates the identity allowed to resolve markets.
func (e *Engine) SetOracleAddress(ctx context.Context, caller, oracle domain.Account) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return domain.ErrUnauthorized
	}
	if oracle == domain.ZeroAccount {
		return fmt.Errorf("%w: oracle must not be the zero account", domain.ErrInvalidParameter)
	}

	return e.updateParams(ctx, "set_oracle", func(p *domain.Params) {
		p.Oracle = oracle
	})
}

// SetMinimumStake adjusts the stake floor for new predictions.
func (e *Engine) SetMinimumStake(ctx context.Context, caller domain.Account, minimum int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return domain.ErrUnauthorized
	}
	if minimum < 0 {
		return fmt.Errorf("%w: minimum stake must not be negative", domain.ErrInvalidParameter)
	}

	return e.updateParams(ctx, "set_minimum_stake", func(p *domain.Params) {
		p.MinimumStake = minimum
	})
}

// SetFeePercentage adjusts the platform fee taken from each gross share.
func (e *Engine) SetFeePercentage(ctx context.Context, caller domain.Account, pct int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return domain.ErrUnauthorized
	}
	if pct < 0 || pct > 100 {
		return fmt.Errorf("%w: fee percentage must be within [0,100], got %d", domain.ErrInvalidParameter, pct)
	}

	return e.updateParams(ctx, "set_fee_percentage", func(p *domain.Params) {
		p.FeePercentage = pct
	})
}

// WithdrawFees moves amount from escrow to the administrator account. The
// amount is bounded by the current escrow balance.
func (e *Engine) WithdrawFees(ctx context.Context, caller domain.Account, amount int64) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return 0, domain.ErrUnauthorized
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: withdrawal amount must be positive", domain.ErrInvalidParameter)
	}

	balance, err := e.bank.Balance(ctx, e.escrow)
	if err != nil {
		return 0, fmt.Errorf("engine: escrow balance: %w", err)
	}
	if amount > balance {
		return 0, domain.ErrInsufficientBalance
	}

	if err := e.bank.Transfer(ctx, e.escrow, e.admin, amount); err != nil {
		return 0, err
	}

	e.logger.InfoContext(ctx, "fees withdrawn", slog.Int64("amount", amount))
	e.record(ctx, "withdraw_fees", map[string]any{"amount": amount})
	e.emit(ctx, domain.Event{Kind: domain.EventFeesWithdrawn, Account: caller, Amount: amount})
	return amount, nil
}

// OracleAddress returns the current oracle identity.
func (e *Engine) OracleAddress(ctx context.Context) (domain.Account, error) {
	p, err := e.params.Get(ctx)
	if err != nil {
		return domain.ZeroAccount, err
	}
	return p.Oracle, nil
}

// MinimumStake returns the current stake floor.
func (e *Engine) MinimumStake(ctx context.Context) (int64, error) {
	p, err := e.params.Get(ctx)
	if err != nil {
		return 0, err
	}
	return p.MinimumStake, nil
}

// FeePercentage returns the current platform fee percentage.
func (e *Engine) FeePercentage(ctx context.Context) (int64, error) {
	p, err := e.params.Get(ctx)
	if err != nil {
		return 0, err
	}
	return p.FeePercentage, nil
}

// updateParams applies mutate to the stored params under the engine lock.
func (e *Engine) updateParams(ctx context.Context, event string, mutate func(*domain.Params)) error {
	p, err := e.params.Get(ctx)
	if err != nil {
		return fmt.Errorf("engine: load params: %w", err)
	}
	mutate(&p)
	if err := e.params.Set(ctx, p); err != nil {
		return fmt.Errorf("engine: store params: %w", err)
	}

	e.record(ctx, event, map[string]any{
		"oracle":         p.Oracle.Hex(),
		"minimum_stake":  p.MinimumStake,
		"fee_percentage": p.FeePercentage,
	})
	e.emit(ctx, domain.Event{Kind: domain.EventParamsUpdated})
	return nil
}
