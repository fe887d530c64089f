package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/updownlabs/updown/internal/domain"
)

func testAccount(b byte) domain.Account {
	var a domain.Account
	a[len(a)-1] = b
	return a
}

func TestMarketStore(t *testing.T) {
	ctx := context.Background()
	s := NewMarketStore()

	_, err := s.Get(ctx, 0)
	require.ErrorIs(t, err, domain.ErrNotFound)

	id, err := s.Create(ctx, domain.Market{StartPrice: 100})
	require.NoError(t, err)
	require.Equal(t, uint64(0), id)

	id, err = s.Create(ctx, domain.Market{StartPrice: 200})
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	m, err := s.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(200), m.StartPrice)

	m.TotalUpStake = 500
	require.NoError(t, s.Update(ctx, m))
	m, err = s.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(500), m.TotalUpStake)

	require.ErrorIs(t, s.Update(ctx, domain.Market{ID: 99}), domain.ErrNotFound)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)
}

func TestMarketStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMarketStore()

	for i := int64(0); i < 5; i++ {
		_, err := s.Create(ctx, domain.Market{StartPrice: 100 + i})
		require.NoError(t, err)
	}

	all, err := s.List(ctx, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	// Ordered by id.
	for i, m := range all {
		require.Equal(t, uint64(i), m.ID)
	}

	page, err := s.List(ctx, domain.ListOpts{Limit: 2, Offset: 3})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, uint64(3), page[0].ID)
	require.Equal(t, uint64(4), page[1].ID)
}

func TestPositionStore(t *testing.T) {
	ctx := context.Background()
	s := NewPositionStore()
	alice, bob := testAccount(0x0a), testAccount(0x0b)

	pos := domain.Position{
		MarketID: 1,
		Account:  alice,
		Side:     domain.SideUp,
		Stake:    100,
		PlacedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Create(ctx, pos))
	require.ErrorIs(t, s.Create(ctx, pos), domain.ErrAlreadyExists)

	// Same account on another market is a distinct position.
	other := pos
	other.MarketID = 2
	require.NoError(t, s.Create(ctx, other))

	bobPos := pos
	bobPos.Account = bob
	bobPos.PlacedAt = pos.PlacedAt.Add(time.Second)
	require.NoError(t, s.Create(ctx, bobPos))

	got, err := s.Get(ctx, 1, alice)
	require.NoError(t, err)
	require.Equal(t, int64(100), got.Stake)

	_, err = s.Get(ctx, 1, testAccount(0x0c))
	require.ErrorIs(t, err, domain.ErrNotFound)

	got.Claimed = true
	require.NoError(t, s.Update(ctx, got))
	got, err = s.Get(ctx, 1, alice)
	require.NoError(t, err)
	require.True(t, got.Claimed)

	require.ErrorIs(t, s.Update(ctx, domain.Position{MarketID: 9, Account: alice}), domain.ErrNotFound)

	byMarket, err := s.ListByMarket(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byMarket, 2)
	// Ordered by placement time.
	require.Equal(t, alice, byMarket[0].Account)
	require.Equal(t, bob, byMarket[1].Account)

	byAccount, err := s.ListByAccount(ctx, alice)
	require.NoError(t, err)
	require.Len(t, byAccount, 2)
	require.Equal(t, uint64(1), byAccount[0].MarketID)
	require.Equal(t, uint64(2), byAccount[1].MarketID)
}

func TestParamStore(t *testing.T) {
	ctx := context.Background()
	s := NewParamStore(domain.Params{MinimumStake: 10, FeePercentage: 2})

	p, err := s.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(10), p.MinimumStake)

	p.FeePercentage = 5
	require.NoError(t, s.Set(ctx, p))
	p, err = s.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(5), p.FeePercentage)
}

func TestAuditStore(t *testing.T) {
	ctx := context.Background()
	s := NewAuditStore()

	for i := 0; i < 4; i++ {
		require.NoError(t, s.Log(ctx, "create_market", map[string]any{"i": i}))
	}

	all, err := s.List(ctx, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, int64(1), all[0].ID)

	page, err := s.List(ctx, domain.ListOpts{Limit: 2, Offset: 3})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, int64(4), page[0].ID)
}
