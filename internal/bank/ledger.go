// Package bank provides an in-memory implementation of the custody
// collaborator. Real deployments sit this interface on top of an actual
// custody system; the ledger bank exists for the memory mode and for tests,
// where it doubles as a conservation check on the engine's transfers.
package bank

import (
	"context"
	"sync"

	"github.com/updownlabs/updown/internal/domain"
)

// Ledger is an in-memory domain.Bank. Transfers are atomic: either the full
// amount moves or nothing does.
type Ledger struct {
	mu       sync.Mutex
	balances map[domain.Account]int64
}

// NewLedger creates an empty ledger bank.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[domain.Account]int64)}
}

// Deposit credits an account out of thin air. Test and dev seeding only.
func (l *Ledger) Deposit(account domain.Account, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

// Transfer moves amount from one account to another, all or nothing.
func (l *Ledger) Transfer(ctx context.Context, from, to domain.Account, amount int64) error {
	if amount < 0 {
		return domain.ErrInvalidParameter
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[from] < amount {
		return domain.ErrInsufficientBalance
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

// Balance returns the current balance of an account.
func (l *Ledger) Balance(ctx context.Context, account domain.Account) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account], nil
}

// TotalSupply sums every balance. Useful in tests to assert conservation.
func (l *Ledger) TotalSupply() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total int64
	for _, b := range l.balances {
		total += b
	}
	return total
}
