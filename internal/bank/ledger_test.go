package bank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/updownlabs/updown/internal/domain"
)

func testAccount(b byte) domain.Account {
	var a domain.Account
	a[len(a)-1] = b
	return a
}

func TestLedgerTransfer(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	alice, bob := testAccount(0x0a), testAccount(0x0b)

	l.Deposit(alice, 1_000)

	require.NoError(t, l.Transfer(ctx, alice, bob, 400))

	got, err := l.Balance(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, int64(600), got)

	got, err = l.Balance(ctx, bob)
	require.NoError(t, err)
	require.Equal(t, int64(400), got)

	// Overdraft moves nothing.
	require.ErrorIs(t, l.Transfer(ctx, alice, bob, 601), domain.ErrInsufficientBalance)
	got, err = l.Balance(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, int64(600), got)

	require.ErrorIs(t, l.Transfer(ctx, alice, bob, -1), domain.ErrInvalidParameter)

	// Zero-amount transfers are legal no-ops.
	require.NoError(t, l.Transfer(ctx, alice, bob, 0))

	require.Equal(t, int64(1_000), l.TotalSupply())
}
