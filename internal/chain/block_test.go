package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounter(t *testing.T) {
	ctx := context.Background()
	c := NewCounter(5)

	h, err := c.Height(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(5), h)

	require.Equal(t, uint64(8), c.Advance(3))

	c.SetHeight(20)
	h, err = c.Height(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(20), h)

	// The clock never runs backwards.
	c.SetHeight(10)
	h, err = c.Height(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(20), h)
}
