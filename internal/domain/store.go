package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// MarketStore is the market ledger: it owns per-market records and the
// counter that assigns new market ids (monotone, starting at 0, never
// reused). Each method is an atomic read-modify-write per key.
type MarketStore interface {
	// Create assigns the next sequential id to m, stores it, and returns
	// the id.
	Create(ctx context.Context, m Market) (uint64, error)
	Get(ctx context.Context, id uint64) (Market, error)
	// Update replaces the stored record for m.ID. ErrNotFound if absent.
	Update(ctx context.Context, m Market) error
	List(ctx context.Context, opts ListOpts) ([]Market, error)
	Count(ctx context.Context) (uint64, error)
}

// PositionStore is the position ledger, keyed by (marketID, account). It
// performs no validation of its own; every invariant is enforced by the
// settlement engine before mutation.
type PositionStore interface {
	// Create stores a new position. ErrAlreadyExists if the pair already
	// holds one.
	Create(ctx context.Context, p Position) error
	Get(ctx context.Context, marketID uint64, account Account) (Position, error)
	Update(ctx context.Context, p Position) error
	ListByMarket(ctx context.Context, marketID uint64) ([]Position, error)
	ListByAccount(ctx context.Context, account Account) ([]Position, error)
}

// Params are the scalar protocol configuration values adjusted by the
// administrator at runtime.
type Params struct {
	Oracle        Account `json:"oracle"`
	MinimumStake  int64   `json:"minimum_stake"`
	FeePercentage int64   `json:"fee_percentage"` // whole percent, 0-100
}

// ParamStore persists the protocol parameters as a single record.
type ParamStore interface {
	Get(ctx context.Context) (Params, error)
	Set(ctx context.Context, p Params) error
}

// AuditEntry is a single append-only audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log of state-changing operations.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
