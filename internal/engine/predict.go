package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/updownlabs/updown/internal/domain"
)

// MakePrediction stakes value on one side of an open market. The stake is
// moved into escrow before either ledger is touched; if anything after the
// transfer fails, the transfer is compensated so the caller is made whole.
func (e *Engine) MakePrediction(ctx context.Context, caller domain.Account, marketID uint64, side domain.Side, stake int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.markets.Get(ctx, marketID)
	if err != nil {
		return err
	}

	height, err := e.blocks.Height(ctx)
	if err != nil {
		return fmt.Errorf("engine: block height: %w", err)
	}
	switch m.Phase(height) {
	case domain.PhasePending:
		return domain.ErrMarketNotStarted
	case domain.PhaseOpen:
		// in window
	default:
		return domain.ErrMarketEnded
	}

	if !side.Valid() {
		return fmt.Errorf("%w: side %q", domain.ErrInvalidPrediction, side)
	}

	params, err := e.params.Get(ctx)
	if err != nil {
		return fmt.Errorf("engine: load params: %w", err)
	}
	if stake <= 0 || stake < params.MinimumStake {
		return fmt.Errorf("%w: stake %d below minimum %d", domain.ErrInvalidPrediction, stake, params.MinimumStake)
	}

	// One position per (market, participant) pair. Accepting a second stake
	// here while accumulating the side totals would double-count, so the
	// call is rejected outright.
	if _, err := e.positions.Get(ctx, marketID, caller); err == nil {
		return domain.ErrAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("engine: check position: %w", err)
	}

	// Escrow the stake first. The transfer is all-or-nothing, so a failure
	// here aborts the operation with no state change anywhere.
	if err := e.bank.Transfer(ctx, caller, e.escrow, stake); err != nil {
		return err
	}

	if side == domain.SideUp {
		m.TotalUpStake += stake
	} else {
		m.TotalDownStake += stake
	}
	if err := e.markets.Update(ctx, m); err != nil {
		e.refund(ctx, caller, stake)
		return fmt.Errorf("engine: update market totals: %w", err)
	}

	pos := domain.Position{
		MarketID: marketID,
		Account:  caller,
		Side:     side,
		Stake:    stake,
		PlacedAt: time.Now().UTC(),
	}
	if err := e.positions.Create(ctx, pos); err != nil {
		// Roll the side total and the escrow credit back so no partial
		// state survives the failure.
		if side == domain.SideUp {
			m.TotalUpStake -= stake
		} else {
			m.TotalDownStake -= stake
		}
		if uerr := e.markets.Update(ctx, m); uerr != nil {
			e.logger.ErrorContext(ctx, "side total rollback failed",
				slog.Uint64("market_id", marketID),
				slog.String("error", uerr.Error()),
			)
		}
		e.refund(ctx, caller, stake)
		return fmt.Errorf("engine: create position: %w", err)
	}

	e.logger.InfoContext(ctx, "stake placed",
		slog.Uint64("market_id", marketID),
		slog.String("account", caller.Hex()),
		slog.String("side", string(side)),
		slog.Int64("stake", stake),
	)
	e.record(ctx, "make_prediction", map[string]any{
		"market_id": marketID,
		"account":   caller.Hex(),
		"side":      string(side),
		"stake":     stake,
	})
	e.emit(ctx, domain.Event{
		Kind:     domain.EventStakePlaced,
		MarketID: marketID,
		Account:  caller,
		Side:     side,
		Amount:   stake,
		Height:   height,
	})
	return nil
}

// refund compensates a prior escrow credit after a downstream failure.
func (e *Engine) refund(ctx context.Context, to domain.Account, amount int64) {
	if err := e.bank.Transfer(ctx, e.escrow, to, amount); err != nil {
		e.logger.ErrorContext(ctx, "escrow refund failed",
			slog.String("account", to.Hex()),
			slog.Int64("amount", amount),
			slog.String("error", err.Error()),
		)
	}
}
