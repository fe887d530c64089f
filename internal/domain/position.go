package domain

import "time"

// Position is a participant's stake on one side of one market. A pair
// (MarketID, Account) holds at most one position; side and stake are fixed
// at creation, and Claimed flips false→true exactly once.
type Position struct {
	MarketID  uint64     `json:"market_id"`
	Account   Account    `json:"account"`
	Side      Side       `json:"side"`
	Stake     int64      `json:"stake"`
	Claimed   bool       `json:"claimed"`
	PlacedAt  time.Time  `json:"placed_at"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
}
