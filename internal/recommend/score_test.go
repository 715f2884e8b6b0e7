package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/ebird-recommend/internal/errors"
)

func TestRecencyBonusTiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		daysAgo int
		want    float64
	}{
		{-2, 15}, {0, 15}, {1, 15},
		{2, 10}, {3, 10},
		{4, 5}, {7, 5},
		{8, 2}, {14, 2},
		{15, 0}, {30, 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, RecencyBonus(tt.daysAgo), 0, "daysAgo=%d", tt.daysAgo)
	}

	for d := -1; d < 40; d++ {
		assert.LessOrEqual(t, RecencyBonus(d+1), RecencyBonus(d), "recency must not grow with age (d=%d)", d)
	}
}

func TestFrequencyBonusCapsAtEight(t *testing.T) {
	t.Parallel()

	for n := 1; n < 8; n++ {
		assert.Greater(t, FrequencyBonus(n+1), FrequencyBonus(n))
	}
	assert.InDelta(t, 12.0, FrequencyBonus(8), 0)
	assert.InDelta(t, FrequencyBonus(8), FrequencyBonus(9), 0)
	assert.InDelta(t, FrequencyBonus(8), FrequencyBonus(100), 0)
}

func TestScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		daysAgo    int
		reports    int
		distanceKm float64
		maxDistKm  float64
		want       float64
	}{
		{"fresh single report at origin", 0, 1, 0, 50, 16.5},
		{"end-to-end reference", 0, 1, 1.400675729313813, 50, 16.22},
		{"three days, four reports, halfway", 3, 4, 25, 50, 10 + 6 - 5},
		{"stale and far can go negative", 30, 1, 100, 50, 1.5 - 20},
		{"capped frequency", 10, 20, 0, 25, 2 + 12},
		{"exact tie rounds to even", 0, 1, 3, 80, 16.12},
		{"binary value just below the tie", 0, 1, 21.4, 80, 13.82},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Score(tt.daysAgo, tt.reports, tt.distanceKm, tt.maxDistKm)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestRoundUsesExactBinaryValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     float64
		places int32
		want   float64
	}{
		{2.675, 2, 2.67},
		{16.125, 2, 16.12},
		{-16.125, 2, -16.12},
		{0.125, 2, 0.12},
		{0.375, 2, 0.38},
		{1.45, 1, 1.4},
		{2.5, 0, 2},
		{3.5, 0, 4},
		{1e20, 2, 1e20},
		{0, 2, 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, round(tt.in, tt.places), 0, "round(%v, %d)", tt.in, tt.places)
	}
}

func TestScoreDecreasesWithDistance(t *testing.T) {
	t.Parallel()

	prev, err := Score(2, 3, 0, 40)
	require.NoError(t, err)
	for d := 1.0; d <= 60; d++ {
		got, err := Score(2, 3, d, 40)
		require.NoError(t, err)
		assert.Less(t, got, prev, "distance %v", d)
		prev = got
	}
}

func TestScoreRejectsNonPositiveRadius(t *testing.T) {
	t.Parallel()

	for _, radius := range []float64{0, -1, -50} {
		_, err := Score(0, 1, 1, radius)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidRadius)
		assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	}
}

func TestReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		lifer   bool
		notable bool
		daysAgo int
		reports int
		want    string
	}{
		{"lifer seen today", true, false, 0, 1, "lifer | seen today"},
		{"one day counts as today", false, false, 1, 1, "seen today"},
		{"everything", true, true, 3, 4, "lifer | notable | seen 3d ago | 4 reports"},
		{"notable only", false, true, 9, 2, "notable | seen 9d ago | 2 reports"},
		{"future dated", false, false, -1, 1, "seen today"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Reason(tt.lifer, tt.notable, tt.daysAgo, tt.reports))
		})
	}
}
