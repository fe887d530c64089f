package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarketPhase(t *testing.T) {
	m := Market{StartBlock: 10, EndBlock: 20}

	tests := []struct {
		name     string
		height   uint64
		resolved bool
		want     Phase
	}{
		{name: "before window", height: 9, want: PhasePending},
		{name: "at start block", height: 10, want: PhaseOpen},
		{name: "inside window", height: 15, want: PhaseOpen},
		{name: "at end block", height: 20, want: PhaseClosed},
		{name: "after window", height: 100, want: PhaseClosed},
		{name: "resolved wins over height", height: 15, resolved: true, want: PhaseResolved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := m
			m.Resolved = tt.resolved
			require.Equal(t, tt.want, m.Phase(tt.height))
		})
	}
}

func TestMarketWinningSide(t *testing.T) {
	tests := []struct {
		name       string
		start, end int64
		want       Side
	}{
		{name: "price rose", start: 50_000, end: 50_001, want: SideUp},
		{name: "price fell", start: 50_000, end: 49_999, want: SideDown},
		{name: "price unchanged goes down", start: 50_000, end: 50_000, want: SideDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Market{StartPrice: tt.start, EndPrice: tt.end, Resolved: true}
			require.Equal(t, tt.want, m.WinningSide())
		})
	}
}

func TestMarketStakes(t *testing.T) {
	m := Market{TotalUpStake: 300, TotalDownStake: 700}
	require.Equal(t, int64(1_000), m.TotalStake())
	require.Equal(t, int64(300), m.SideStake(SideUp))
	require.Equal(t, int64(700), m.SideStake(SideDown))
}
