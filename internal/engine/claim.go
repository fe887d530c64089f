package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/updownlabs/updown/internal/domain"
)

// settle computes the proportional payout for one winning position.
//
//	grossShare = floor(stake * totalStake / winningStake)
//	fee        = floor(grossShare * feePct / 100)
//	payout     = grossShare - fee
//
// The intermediate product stake*totalStake can exceed 63 bits, so it is
// carried in big.Int; the quotient is bounded by totalStake and fits back
// into int64. winningStake must be positive, which holds on every legitimate
// claim path because the claimant's own stake is part of it.
func settle(stake, winningStake, totalStake, feePct int64) (gross, fee, payout int64) {
	g := new(big.Int).Mul(big.NewInt(stake), big.NewInt(totalStake))
	g.Quo(g, big.NewInt(winningStake))
	gross = g.Int64()

	f := new(big.Int).Mul(big.NewInt(gross), big.NewInt(feePct))
	f.Quo(f, big.NewInt(100))
	fee = f.Int64()

	return gross, fee, gross - fee
}

// ClaimWinnings pays out the caller's share of a resolved market: the total
// pool redistributed pro rata across the winning side, net of the platform
// fee. Losing positions cannot claim; their stake is what funds the winners.
// Truncation dust stays in escrow.
func (e *Engine) ClaimWinnings(ctx context.Context, caller domain.Account, marketID uint64) (domain.Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.markets.Get(ctx, marketID)
	if err != nil {
		return domain.Receipt{}, err
	}
	if !m.Resolved {
		return domain.Receipt{}, domain.ErrMarketClosed
	}

	pos, err := e.positions.Get(ctx, marketID, caller)
	if err != nil {
		return domain.Receipt{}, err
	}
	if pos.Claimed {
		return domain.Receipt{}, domain.ErrAlreadyClaimed
	}

	winning := m.WinningSide()
	if pos.Side != winning {
		return domain.Receipt{}, domain.ErrInvalidPrediction
	}

	params, err := e.params.Get(ctx)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("engine: load params: %w", err)
	}

	gross, fee, payout := settle(pos.Stake, m.SideStake(winning), m.TotalStake(), params.FeePercentage)

	// Two independently-verifiable debits: payout to the winner, fee to the
	// administrator. If the fee debit fails the payout is compensated so
	// escrow is restored and the position stays claimable.
	if err := e.bank.Transfer(ctx, e.escrow, caller, payout); err != nil {
		return domain.Receipt{}, err
	}
	if fee > 0 {
		if err := e.bank.Transfer(ctx, e.escrow, e.admin, fee); err != nil {
			e.reclaim(ctx, caller, payout)
			return domain.Receipt{}, err
		}
	}

	now := time.Now().UTC()
	pos.Claimed = true
	pos.ClaimedAt = &now
	if err := e.positions.Update(ctx, pos); err != nil {
		e.reclaim(ctx, caller, payout)
		if fee > 0 {
			e.reclaim(ctx, e.admin, fee)
		}
		return domain.Receipt{}, fmt.Errorf("engine: mark claimed: %w", err)
	}

	receipt := domain.Receipt{
		MarketID:   marketID,
		Account:    caller,
		Side:       pos.Side,
		Stake:      pos.Stake,
		GrossShare: gross,
		Fee:        fee,
		Payout:     payout,
		ClaimedAt:  now,
	}
	receipt.Seal()

	e.logger.InfoContext(ctx, "winnings claimed",
		slog.Uint64("market_id", marketID),
		slog.String("account", caller.Hex()),
		slog.Int64("payout", payout),
		slog.Int64("fee", fee),
	)
	e.record(ctx, "claim_winnings", map[string]any{
		"market_id": marketID,
		"account":   caller.Hex(),
		"payout":    payout,
		"fee":       fee,
		"digest":    receipt.Digest,
	})
	e.emit(ctx, domain.Event{
		Kind:     domain.EventWinningsClaimed,
		MarketID: marketID,
		Account:  caller,
		Side:     pos.Side,
		Payout:   payout,
		Fee:      fee,
	})
	return receipt, nil
}

// reclaim returns a prior escrow debit after a downstream failure.
func (e *Engine) reclaim(ctx context.Context, from domain.Account, amount int64) {
	if err := e.bank.Transfer(ctx, from, e.escrow, amount); err != nil {
		e.logger.ErrorContext(ctx, "escrow reclaim failed",
			slog.String("account", from.Hex()),
			slog.Int64("amount", amount),
			slog.String("error", err.Error()),
		)
	}
}
