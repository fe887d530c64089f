// Package engine implements the market lifecycle state machine and the
// proportional settlement arithmetic. Every state-changing operation is
// serialized behind a single mutex and either commits fully or leaves all
// ledger state untouched.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/updownlabs/updown/internal/domain"
)

// Config bundles the collaborators the engine operates on. Markets,
// Positions, Params, Bank, and Blocks are required; Audit and Events are
// optional and best-effort.
type Config struct {
	Markets   domain.MarketStore
	Positions domain.PositionStore
	Params    domain.ParamStore
	Bank      domain.Bank
	Blocks    domain.BlockSource
	Audit     domain.AuditStore
	Events    domain.EventSink

	// Admin is the privileged identity allowed to create markets, adjust
	// parameters, and withdraw fees. It also receives claim fees.
	Admin domain.Account
	// Escrow is the account that pools staked value pending claims.
	Escrow domain.Account

	Logger *slog.Logger
}

// Engine orchestrates the four state-changing operations (create, stake,
// resolve, claim) plus the guarded administrative setters, enforcing phase
// legality and fund conservation across the two ledgers and the bank.
type Engine struct {
	mu sync.Mutex

	markets   domain.MarketStore
	positions domain.PositionStore
	params    domain.ParamStore
	bank      domain.Bank
	blocks    domain.BlockSource
	audit     domain.AuditStore
	events    domain.EventSink

	admin  domain.Account
	escrow domain.Account
	logger *slog.Logger
}

// New creates an Engine from cfg.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		markets:   cfg.Markets,
		positions: cfg.Positions,
		params:    cfg.Params,
		bank:      cfg.Bank,
		blocks:    cfg.Blocks,
		audit:     cfg.Audit,
		events:    cfg.Events,
		admin:     cfg.Admin,
		escrow:    cfg.Escrow,
		logger:    logger.With(slog.String("component", "engine")),
	}
}

// CreateMarket opens a new market over [startBlock, endBlock) anchored at
// startPrice and returns its id. Administrator only.
func (e *Engine) CreateMarket(ctx context.Context, caller domain.Account, startPrice int64, startBlock, endBlock uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return 0, domain.ErrUnauthorized
	}
	if startPrice <= 0 {
		return 0, fmt.Errorf("%w: start price must be positive", domain.ErrInvalidParameter)
	}
	if endBlock <= startBlock {
		return 0, fmt.Errorf("%w: end block must exceed start block", domain.ErrInvalidParameter)
	}

	m := domain.Market{
		StartPrice: startPrice,
		StartBlock: startBlock,
		EndBlock:   endBlock,
		CreatedAt:  time.Now().UTC(),
	}
	id, err := e.markets.Create(ctx, m)
	if err != nil {
		return 0, fmt.Errorf("engine: create market: %w", err)
	}

	e.logger.InfoContext(ctx, "market created",
		slog.Uint64("market_id", id),
		slog.Int64("start_price", startPrice),
		slog.Uint64("start_block", startBlock),
		slog.Uint64("end_block", endBlock),
	)
	e.record(ctx, "create_market", map[string]any{
		"market_id":   id,
		"start_price": startPrice,
		"start_block": startBlock,
		"end_block":   endBlock,
	})
	e.emit(ctx, domain.Event{
		Kind:     domain.EventMarketCreated,
		MarketID: id,
		Account:  caller,
		Amount:   startPrice,
	})
	return id, nil
}

// ResolveMarket fixes the settlement price of a market after its window has
// closed. Oracle only; irreversible.
func (e *Engine) ResolveMarket(ctx context.Context, caller domain.Account, marketID uint64, endPrice int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.markets.Get(ctx, marketID)
	if err != nil {
		return err
	}

	params, err := e.params.Get(ctx)
	if err != nil {
		return fmt.Errorf("engine: load params: %w", err)
	}
	if caller != params.Oracle {
		return domain.ErrUnauthorized
	}
	if m.Resolved {
		return domain.ErrAlreadyResolved
	}

	height, err := e.blocks.Height(ctx)
	if err != nil {
		return fmt.Errorf("engine: block height: %w", err)
	}
	if height < m.EndBlock {
		return domain.ErrMarketNotEnded
	}
	if endPrice <= 0 {
		return fmt.Errorf("%w: end price must be positive", domain.ErrInvalidParameter)
	}

	now := time.Now().UTC()
	m.EndPrice = endPrice
	m.Resolved = true
	m.ResolvedAt = &now
	if err := e.markets.Update(ctx, m); err != nil {
		return fmt.Errorf("engine: resolve market %d: %w", marketID, err)
	}

	e.logger.InfoContext(ctx, "market resolved",
		slog.Uint64("market_id", marketID),
		slog.Int64("end_price", endPrice),
		slog.String("winning_side", string(m.WinningSide())),
	)
	e.record(ctx, "resolve_market", map[string]any{
		"market_id":    marketID,
		"end_price":    endPrice,
		"winning_side": string(m.WinningSide()),
	})
	e.emit(ctx, domain.Event{
		Kind:     domain.EventMarketResolved,
		MarketID: marketID,
		Side:     m.WinningSide(),
		Amount:   endPrice,
		Height:   height,
	})
	return nil
}

// Market returns the market with the given id.
func (e *Engine) Market(ctx context.Context, id uint64) (domain.Market, error) {
	return e.markets.Get(ctx, id)
}

// Markets lists markets with pagination.
func (e *Engine) Markets(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	return e.markets.List(ctx, opts)
}

// MarketCount returns the number of markets ever created.
func (e *Engine) MarketCount(ctx context.Context) (uint64, error) {
	return e.markets.Count(ctx)
}

// Position returns the position held by account on the given market.
func (e *Engine) Position(ctx context.Context, marketID uint64, account domain.Account) (domain.Position, error) {
	return e.positions.Get(ctx, marketID, account)
}

// Positions lists every position on the given market.
func (e *Engine) Positions(ctx context.Context, marketID uint64) ([]domain.Position, error) {
	return e.positions.ListByMarket(ctx, marketID)
}

// ContractBalance returns the value currently pooled in escrow.
func (e *Engine) ContractBalance(ctx context.Context) (int64, error) {
	return e.bank.Balance(ctx, e.escrow)
}

// Height returns the current block height as observed by the engine.
func (e *Engine) Height(ctx context.Context) (uint64, error) {
	return e.blocks.Height(ctx)
}

// record appends an audit entry. Audit failures are logged, not propagated:
// the ledger mutation has already committed.
func (e *Engine) record(ctx context.Context, event string, detail map[string]any) {
	if e.audit == nil {
		return
	}
	if err := e.audit.Log(ctx, event, detail); err != nil {
		e.logger.WarnContext(ctx, "audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// emit publishes a settlement event, best-effort.
func (e *Engine) emit(ctx context.Context, ev domain.Event) {
	if e.events == nil {
		return
	}
	ev.ID = uuid.New().String()
	ev.At = time.Now().UTC()
	if err := e.events.Publish(ctx, ev); err != nil {
		e.logger.WarnContext(ctx, "event publish failed",
			slog.String("kind", string(ev.Kind)),
			slog.String("error", err.Error()),
		)
	}
}
