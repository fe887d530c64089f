package domain

import "time"

// Phase is the derived lifecycle stage of a market at a given block height.
// It is never stored; only the one-way Resolved flag is persisted.
type Phase string

const (
	PhasePending  Phase = "pending"
	PhaseOpen     Phase = "open"
	PhaseClosed   Phase = "closed"
	PhaseResolved Phase = "resolved"
)

// Market is a single binary prediction instance over a block-height window.
// Stake totals are micro-unit accumulators and only grow while the market is
// open; every other numeric field is fixed at creation except EndPrice, which
// is set exactly once at resolution.
type Market struct {
	ID             uint64     `json:"id"`
	StartPrice     int64      `json:"start_price"`
	EndPrice       int64      `json:"end_price"` // zero until resolved
	TotalUpStake   int64      `json:"total_up_stake"`
	TotalDownStake int64      `json:"total_down_stake"`
	StartBlock     uint64     `json:"start_block"`
	EndBlock       uint64     `json:"end_block"`
	Resolved       bool       `json:"resolved"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// Phase derives the lifecycle stage of the market at block height.
func (m Market) Phase(height uint64) Phase {
	switch {
	case m.Resolved:
		return PhaseResolved
	case height < m.StartBlock:
		return PhasePending
	case height < m.EndBlock:
		return PhaseOpen
	default:
		return PhaseClosed
	}
}

// TotalStake returns the combined stake across both sides.
func (m Market) TotalStake() int64 {
	return m.TotalUpStake + m.TotalDownStake
}

// SideStake returns the accumulated stake on one side.
func (m Market) SideStake(side Side) int64 {
	if side == SideUp {
		return m.TotalUpStake
	}
	return m.TotalDownStake
}

// WinningSide determines the winner of a resolved market: Up only when the
// end price strictly exceeds the start price. A tie resolves Down.
// Meaningless before resolution.
func (m Market) WinningSide() Side {
	if m.EndPrice > m.StartPrice {
		return SideUp
	}
	return SideDown
}
