package domain

import (
	"context"
	"time"
)

// EventKind labels a settlement lifecycle event.
type EventKind string

const (
	EventMarketCreated    EventKind = "market.created"
	EventStakePlaced      EventKind = "market.staked"
	EventMarketResolved   EventKind = "market.resolved"
	EventWinningsClaimed  EventKind = "market.claimed"
	EventParamsUpdated    EventKind = "params.updated"
	EventFeesWithdrawn    EventKind = "fees.withdrawn"
)

// Event is emitted by the engine after a state-changing operation commits.
// Fields that do not apply to a given kind are zero.
type Event struct {
	ID       string    `json:"id"`
	Kind     EventKind `json:"kind"`
	MarketID uint64    `json:"market_id"`
	Account  Account   `json:"account,omitempty"`
	Side     Side      `json:"side,omitempty"`
	Amount   int64     `json:"amount,omitempty"`
	Payout   int64     `json:"payout,omitempty"`
	Fee      int64     `json:"fee,omitempty"`
	Height   uint64    `json:"height,omitempty"`
	At       time.Time `json:"at"`
}

// EventSink receives settlement events. Sinks are best-effort: the engine
// logs and continues when publishing fails, because ledger state has already
// committed by the time an event is emitted.
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
}
