package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSide(t *testing.T) {
	side, err := ParseSide("up")
	require.NoError(t, err)
	require.Equal(t, SideUp, side)

	side, err = ParseSide("down")
	require.NoError(t, err)
	require.Equal(t, SideDown, side)

	for _, bad := range []string{"", "Up", "UP", "sideways", "yes"} {
		_, err := ParseSide(bad)
		require.ErrorIs(t, err, ErrInvalidPrediction, "input %q", bad)
	}
}

func TestSideOpposite(t *testing.T) {
	require.Equal(t, SideDown, SideUp.Opposite())
	require.Equal(t, SideUp, SideDown.Opposite())
}
