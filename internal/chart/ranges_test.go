package chart

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRanges_Order(t *testing.T) {
	labels := make([]string, len(Ranges))
	days := make([]int, len(Ranges))
	for i, r := range Ranges {
		labels[i] = r.Label
		days[i] = r.LookbackDays
	}
	assert.Equal(t, []string{"24H", "7D", "30D", "90D", "1Y"}, labels)
	assert.Equal(t, []int{1, 7, 30, 90, 365}, days)
	assert.Equal(t, "7D", DefaultRange.Label)
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("30d")
	require.NoError(t, err)
	assert.Equal(t, 30, r.LookbackDays)

	r, err = ParseRange(" 1Y ")
	require.NoError(t, err)
	assert.Equal(t, 365, r.LookbackDays)

	_, err = ParseRange("2W")
	assert.True(t, errors.Is(err, ErrUnknownRange))
}

func TestRangeForDays(t *testing.T) {
	r, err := RangeForDays(90)
	require.NoError(t, err)
	assert.Equal(t, "90D", r.Label)

	_, err = RangeForDays(14)
	assert.ErrorIs(t, err, ErrUnknownRange)
	assert.False(t, ValidDays(0))
	assert.True(t, ValidDays(1))
}

func TestGranularityFor(t *testing.T) {
	for days := 0; days <= 7; days++ {
		assert.Equal(t, Hourly, GranularityFor(days), "days=%d", days)
	}
	for _, days := range []int{8, 30, 90, 365, 1000} {
		assert.Equal(t, Daily, GranularityFor(days), "days=%d", days)
	}
	for _, r := range Ranges {
		want := Daily
		if r.LookbackDays <= 7 {
			want = Hourly
		}
		assert.Equal(t, want, GranularityFor(r.LookbackDays), r.Label)
	}
}

func TestTickLayout(t *testing.T) {
	assert.Equal(t, "Jan 02 15:04", Hourly.TickLayout())
	assert.Equal(t, "Jan 02", Daily.TickLayout())
}
