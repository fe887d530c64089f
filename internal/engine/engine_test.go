package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/updownlabs/updown/internal/bank"
	"github.com/updownlabs/updown/internal/chain"
	"github.com/updownlabs/updown/internal/domain"
	"github.com/updownlabs/updown/internal/store/memory"
)

func acct(b byte) domain.Account {
	var a domain.Account
	a[len(a)-1] = b
	return a
}

type env struct {
	eng    *Engine
	bank   *bank.Ledger
	blocks *chain.Counter

	admin  domain.Account
	escrow domain.Account
	oracle domain.Account
	alice  domain.Account
	bob    domain.Account
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		bank:   bank.NewLedger(),
		blocks: chain.NewCounter(0),
		admin:  acct(0x01),
		escrow: acct(0x02),
		oracle: acct(0x03),
		alice:  acct(0x0a),
		bob:    acct(0x0b),
	}

	e.eng = New(Config{
		Markets:   memory.NewMarketStore(),
		Positions: memory.NewPositionStore(),
		Params: memory.NewParamStore(domain.Params{
			Oracle:        e.oracle,
			MinimumStake:  1_000,
			FeePercentage: 2,
		}),
		Bank:   e.bank,
		Blocks: e.blocks,
		Audit:  memory.NewAuditStore(),
		Admin:  e.admin,
		Escrow: e.escrow,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	e.bank.Deposit(e.alice, 10_000_000)
	e.bank.Deposit(e.bob, 10_000_000)
	return e
}

func (e *env) balance(t *testing.T, a domain.Account) int64 {
	t.Helper()
	b, err := e.bank.Balance(context.Background(), a)
	require.NoError(t, err)
	return b
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name                       string
		stake, winning, total, fee int64
		gross, feeAmt, payout      int64
	}{
		{
			name:  "proportional with fee",
			stake: 1_000_000, winning: 1_000_000, total: 4_000_000, fee: 2,
			gross: 4_000_000, feeAmt: 80_000, payout: 3_920_000,
		},
		{
			name:  "truncation leaves dust",
			stake: 1, winning: 3, total: 10, fee: 0,
			gross: 3, feeAmt: 0, payout: 3,
		},
		{
			name:  "one sided pool",
			stake: 500, winning: 500, total: 500, fee: 10,
			gross: 500, feeAmt: 50, payout: 450,
		},
		{
			name:  "intermediate product exceeds 63 bits",
			stake: 3_000_000_000_000, winning: 5_000_000_000_000, total: 9_000_000_000_000, fee: 2,
			gross: 5_400_000_000_000, feeAmt: 108_000_000_000, payout: 5_292_000_000_000,
		},
		{
			name:  "full fee confiscates payout",
			stake: 100, winning: 100, total: 200, fee: 100,
			gross: 200, feeAmt: 200, payout: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gross, fee, payout := settle(tt.stake, tt.winning, tt.total, tt.fee)
			require.Equal(t, tt.gross, gross)
			require.Equal(t, tt.feeAmt, fee)
			require.Equal(t, tt.payout, payout)
		})
	}
}

func TestCreateMarket(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.eng.CreateMarket(ctx, e.alice, 50_000, 10, 20)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = e.eng.CreateMarket(ctx, e.admin, 0, 10, 20)
	require.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = e.eng.CreateMarket(ctx, e.admin, 50_000, 20, 20)
	require.ErrorIs(t, err, domain.ErrInvalidParameter)

	id, err := e.eng.CreateMarket(ctx, e.admin, 50_000, 10, 20)
	require.NoError(t, err)
	require.Equal(t, uint64(0), id)

	id, err = e.eng.CreateMarket(ctx, e.admin, 60_000, 30, 40)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	m, err := e.eng.Market(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, int64(50_000), m.StartPrice)
	require.False(t, m.Resolved)
	require.Zero(t, m.TotalStake())
}

func TestMakePrediction_PhaseGates(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	id, err := e.eng.CreateMarket(ctx, e.admin, 50_000, 10, 20)
	require.NoError(t, err)

	// Height 0: before the window.
	err = e.eng.MakePrediction(ctx, e.alice, id, domain.SideUp, 5_000)
	require.ErrorIs(t, err, domain.ErrMarketNotStarted)

	// The start block is inside the window.
	e.blocks.SetHeight(10)
	err = e.eng.MakePrediction(ctx, e.alice, id, domain.SideUp, 5_000)
	require.NoError(t, err)

	// The end block is not.
	e.blocks.SetHeight(20)
	err = e.eng.MakePrediction(ctx, e.bob, id, domain.SideDown, 5_000)
	require.ErrorIs(t, err, domain.ErrMarketEnded)
}

func TestMakePrediction_Validation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	id, err := e.eng.CreateMarket(ctx, e.admin, 50_000, 10, 20)
	require.NoError(t, err)
	e.blocks.SetHeight(12)

	err = e.eng.MakePrediction(ctx, e.alice, id, domain.Side("sideways"), 5_000)
	require.ErrorIs(t, err, domain.ErrInvalidPrediction)

	err = e.eng.MakePrediction(ctx, e.alice, id, domain.SideUp, 999)
	require.ErrorIs(t, err, domain.ErrInvalidPrediction)

	err = e.eng.MakePrediction(ctx, e.alice, id, domain.SideUp, 0)
	require.ErrorIs(t, err, domain.ErrInvalidPrediction)

	err = e.eng.MakePrediction(ctx, e.alice, id, domain.SideUp, 5_000)
	require.NoError(t, err)

	// One position per (market, participant) pair, even on the same side.
	err = e.eng.MakePrediction(ctx, e.alice, id, domain.SideUp, 5_000)
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	err = e.eng.MakePrediction(ctx, e.alice, id, domain.SideDown, 5_000)
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	// Unfunded account.
	err = e.eng.MakePrediction(ctx, acct(0x44), id, domain.SideUp, 5_000)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestMakePrediction_InsufficientBalanceLeavesNoState(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	id, err := e.eng.CreateMarket(ctx, e.admin, 50_000, 10, 20)
	require.NoError(t, err)
	e.blocks.SetHeight(12)

	err = e.eng.MakePrediction(ctx, e.alice, id, domain.SideUp, 20_000_000)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	m, err := e.eng.Market(ctx, id)
	require.NoError(t, err)
	require.Zero(t, m.TotalStake())

	_, err = e.eng.Position(ctx, id, e.alice)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.Equal(t, int64(10_000_000), e.balance(t, e.alice))
	require.Zero(t, e.balance(t, e.escrow))
}

func TestMakePrediction_MovesStakeToEscrow(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	id, err := e.eng.CreateMarket(ctx, e.admin, 50_000, 10, 20)
	require.NoError(t, err)
	e.blocks.SetHeight(12)

	require.NoError(t, e.eng.MakePrediction(ctx, e.alice, id, domain.SideUp, 1_000_000))
	require.NoError(t, e.eng.MakePrediction(ctx, e.bob, id, domain.SideDown, 3_000_000))

	require.Equal(t, int64(9_000_000), e.balance(t, e.alice))
	require.Equal(t, int64(7_000_000), e.balance(t, e.bob))
	require.Equal(t, int64(4_000_000), e.balance(t, e.escrow))

	m, err := e.eng.Market(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000), m.TotalUpStake)
	require.Equal(t, int64(3_000_000), m.TotalDownStake)

	pos, err := e.eng.Position(ctx, id, e.alice)
	require.NoError(t, err)
	require.Equal(t, domain.SideUp, pos.Side)
	require.Equal(t, int64(1_000_000), pos.Stake)
	require.False(t, pos.Claimed)
}

func TestResolveMarket(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	id, err := e.eng.CreateMarket(ctx, e.admin, 50_000, 10, 20)
	require.NoError(t, err)

	err = e.eng.ResolveMarket(ctx, e.alice, id, 51_000)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	// Window still open.
	e.blocks.SetHeight(19)
	err = e.eng.ResolveMarket(ctx, e.oracle, id, 51_000)
	require.ErrorIs(t, err, domain.ErrMarketNotEnded)

	e.blocks.SetHeight(20)
	err = e.eng.ResolveMarket(ctx, e.oracle, id, 0)
	require.ErrorIs(t, err, domain.ErrInvalidParameter)

	require.NoError(t, e.eng.ResolveMarket(ctx, e.oracle, id, 51_000))

	err = e.eng.ResolveMarket(ctx, e.oracle, id, 49_000)
	require.ErrorIs(t, err, domain.ErrAlreadyResolved)

	m, err := e.eng.Market(ctx, id)
	require.NoError(t, err)
	require.True(t, m.Resolved)
	require.Equal(t, int64(51_000), m.EndPrice)
	require.Equal(t, domain.SideUp, m.WinningSide())
	require.NotNil(t, m.ResolvedAt)
}

func TestResolveMarket_TieGoesDown(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	id, err := e.eng.CreateMarket(ctx, e.admin, 50_000, 10, 20)
	require.NoError(t, err)
	e.blocks.SetHeight(20)

	require.NoError(t, e.eng.ResolveMarket(ctx, e.oracle, id, 50_000))

	m, err := e.eng.Market(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.SideDown, m.WinningSide())
}

func TestClaimWinnings_Settlement(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	supplyBefore := e.bank.TotalSupply()

	id, err := e.eng.CreateMarket(ctx, e.admin, 50_000, 10, 20)
	require.NoError(t, err)

	e.blocks.SetHeight(12)
	require.NoError(t, e.eng.MakePrediction(ctx, e.alice, id, domain.SideUp, 1_000_000))
	e.blocks.SetHeight(15)
	require.NoError(t, e.eng.MakePrediction(ctx, e.bob, id, domain.SideDown, 3_000_000))

	// Claims are rejected until the oracle resolves.
	_, err = e.eng.ClaimWinnings(ctx, e.alice, id)
	require.ErrorIs(t, err, domain.ErrMarketClosed)

	e.blocks.SetHeight(20)
	require.NoError(t, e.eng.ResolveMarket(ctx, e.oracle, id, 51_000))

	rcpt, err := e.eng.ClaimWinnings(ctx, e.alice, id)
	require.NoError(t, err)
	require.Equal(t, int64(4_000_000), rcpt.GrossShare)
	require.Equal(t, int64(80_000), rcpt.Fee)
	require.Equal(t, int64(3_920_000), rcpt.Payout)
	require.NotEmpty(t, rcpt.Digest)

	// 9M from before the stake plus the settled payout.
	require.Equal(t, int64(12_920_000), e.balance(t, e.alice))
	require.Equal(t, int64(80_000), e.balance(t, e.admin))
	require.Zero(t, e.balance(t, e.escrow))

	// The position is burned after payout.
	_, err = e.eng.ClaimWinnings(ctx, e.alice, id)
	require.ErrorIs(t, err, domain.ErrAlreadyClaimed)

	// The losing side funds the winners and gets nothing back.
	_, err = e.eng.ClaimWinnings(ctx, e.bob, id)
	require.ErrorIs(t, err, domain.ErrInvalidPrediction)
	require.Equal(t, int64(7_000_000), e.balance(t, e.bob))

	// No value was minted or destroyed anywhere in the flow.
	require.Equal(t, supplyBefore, e.bank.TotalSupply())
}

func TestClaimWinnings_NoPosition(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	id, err := e.eng.CreateMarket(ctx, e.admin, 50_000, 10, 20)
	require.NoError(t, err)
	e.blocks.SetHeight(20)
	require.NoError(t, e.eng.ResolveMarket(ctx, e.oracle, id, 51_000))

	_, err = e.eng.ClaimWinnings(ctx, e.alice, id)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClaimWinnings_OneSidedMarket(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	id, err := e.eng.CreateMarket(ctx, e.admin, 50_000, 10, 20)
	require.NoError(t, err)
	e.blocks.SetHeight(12)
	require.NoError(t, e.eng.MakePrediction(ctx, e.alice, id, domain.SideUp, 1_000_000))
	e.blocks.SetHeight(20)
	require.NoError(t, e.eng.ResolveMarket(ctx, e.oracle, id, 51_000))

	// Winning stake equals the pool: the claimant gets their stake back
	// minus the fee.
	rcpt, err := e.eng.ClaimWinnings(ctx, e.alice, id)
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000), rcpt.GrossShare)
	require.Equal(t, int64(20_000), rcpt.Fee)
	require.Equal(t, int64(980_000), rcpt.Payout)
}

func TestClaimWinnings_ZeroFee(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	require.NoError(t, e.eng.SetFeePercentage(ctx, e.admin, 0))

	id, err := e.eng.CreateMarket(ctx, e.admin, 50_000, 10, 20)
	require.NoError(t, err)
	e.blocks.SetHeight(12)
	require.NoError(t, e.eng.MakePrediction(ctx, e.alice, id, domain.SideUp, 1_000_000))
	require.NoError(t, e.eng.MakePrediction(ctx, e.bob, id, domain.SideDown, 1_000_000))
	e.blocks.SetHeight(20)
	require.NoError(t, e.eng.ResolveMarket(ctx, e.oracle, id, 49_000))

	rcpt, err := e.eng.ClaimWinnings(ctx, e.bob, id)
	require.NoError(t, err)
	require.Equal(t, int64(2_000_000), rcpt.Payout)
	require.Zero(t, rcpt.Fee)
	require.Zero(t, e.balance(t, e.admin))
}

func TestClaimWinnings_DustStaysInEscrow(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	require.NoError(t, e.eng.SetMinimumStake(ctx, e.admin, 1))
	require.NoError(t, e.eng.SetFeePercentage(ctx, e.admin, 0))

	carol := acct(0x0c)
	e.bank.Deposit(carol, 100)

	id, err := e.eng.CreateMarket(ctx, e.admin, 50_000, 10, 20)
	require.NoError(t, err)
	e.blocks.SetHeight(12)
	require.NoError(t, e.eng.MakePrediction(ctx, e.alice, id, domain.SideUp, 1))
	require.NoError(t, e.eng.MakePrediction(ctx, e.bob, id, domain.SideUp, 1))
	require.NoError(t, e.eng.MakePrediction(ctx, carol, id, domain.SideDown, 1))
	e.blocks.SetHeight(20)
	require.NoError(t, e.eng.ResolveMarket(ctx, e.oracle, id, 51_000))

	// Each winner: floor(1*3/2) = 1. One unit of dust stays behind.
	for _, winner := range []domain.Account{e.alice, e.bob} {
		rcpt, err := e.eng.ClaimWinnings(ctx, winner, id)
		require.NoError(t, err)
		require.Equal(t, int64(1), rcpt.Payout)
	}
	require.Equal(t, int64(1), e.balance(t, e.escrow))
}

func TestAdminSetters(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	require.ErrorIs(t, e.eng.SetOracleAddress(ctx, e.alice, acct(0x33)), domain.ErrUnauthorized)
	require.ErrorIs(t, e.eng.SetMinimumStake(ctx, e.alice, 5), domain.ErrUnauthorized)
	require.ErrorIs(t, e.eng.SetFeePercentage(ctx, e.alice, 5), domain.ErrUnauthorized)

	require.ErrorIs(t, e.eng.SetOracleAddress(ctx, e.admin, domain.ZeroAccount), domain.ErrInvalidParameter)
	require.ErrorIs(t, e.eng.SetMinimumStake(ctx, e.admin, -1), domain.ErrInvalidParameter)
	require.ErrorIs(t, e.eng.SetFeePercentage(ctx, e.admin, 101), domain.ErrInvalidParameter)

	newOracle := acct(0x33)
	require.NoError(t, e.eng.SetOracleAddress(ctx, e.admin, newOracle))
	require.NoError(t, e.eng.SetMinimumStake(ctx, e.admin, 42))
	require.NoError(t, e.eng.SetFeePercentage(ctx, e.admin, 7))

	oracle, err := e.eng.OracleAddress(ctx)
	require.NoError(t, err)
	require.Equal(t, newOracle, oracle)

	minStake, err := e.eng.MinimumStake(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(42), minStake)

	feePct, err := e.eng.FeePercentage(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(7), feePct)

	// The old oracle loses resolution rights immediately.
	id, err := e.eng.CreateMarket(ctx, e.admin, 50_000, 10, 20)
	require.NoError(t, err)
	e.blocks.SetHeight(20)
	require.ErrorIs(t, e.eng.ResolveMarket(ctx, e.oracle, id, 51_000), domain.ErrUnauthorized)
	require.NoError(t, e.eng.ResolveMarket(ctx, newOracle, id, 51_000))
}

func TestWithdrawFees(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.eng.WithdrawFees(ctx, e.alice, 100)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = e.eng.WithdrawFees(ctx, e.admin, 0)
	require.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = e.eng.WithdrawFees(ctx, e.admin, 100)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	e.bank.Deposit(e.escrow, 500)
	amount, err := e.eng.WithdrawFees(ctx, e.admin, 300)
	require.NoError(t, err)
	require.Equal(t, int64(300), amount)
	require.Equal(t, int64(300), e.balance(t, e.admin))
	require.Equal(t, int64(200), e.balance(t, e.escrow))
}
