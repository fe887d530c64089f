package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAccount(t *testing.T) {
	a, err := ParseAccount("0x000000000000000000000000000000000000000a")
	require.NoError(t, err)
	require.NotEqual(t, ZeroAccount, a)

	for _, bad := range []string{"", "0x123", "not-an-address", "0xZZ00000000000000000000000000000000000000"} {
		_, err := ParseAccount(bad)
		require.ErrorIs(t, err, ErrInvalidParameter, "input %q", bad)
	}
}
