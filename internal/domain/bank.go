package domain

import "context"

// Bank is the external custody collaborator that moves value between
// accounts. Transfers are all-or-nothing: when Transfer returns nil the full
// amount has moved, and when it returns an error no value has moved at all.
// The engine funnels every escrow credit and debit through this seam so the
// real custody mechanism can be swapped in without touching settlement logic.
type Bank interface {
	// Transfer moves amount micro-units from one account to another.
	// ErrInsufficientBalance if the source cannot cover it.
	Transfer(ctx context.Context, from, to Account, amount int64) error
	Balance(ctx context.Context, account Account) (int64, error)
}

// BlockSource reports the current block height, the ordinal clock that
// drives market phase transitions. Operations read it but never set it.
type BlockSource interface {
	Height(ctx context.Context) (uint64, error)
}
