package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReceiptSeal(t *testing.T) {
	r := Receipt{
		MarketID:   7,
		Side:       SideUp,
		Stake:      1_000_000,
		GrossShare: 4_000_000,
		Fee:        80_000,
		Payout:     3_920_000,
	}
	r.Account[19] = 0x0a

	r.Seal()
	require.Len(t, r.Digest, 64) // hex-encoded keccak256

	// Deterministic over the monetary fields.
	again := r
	again.Digest = ""
	again.Seal()
	require.Equal(t, r.Digest, again.Digest)

	// Any tampered figure changes the digest.
	tampered := r
	tampered.Payout++
	tampered.Seal()
	require.NotEqual(t, r.Digest, tampered.Digest)
}
