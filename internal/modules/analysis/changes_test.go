package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iboito/dividenden-dashboard/internal/domain"
)

func fptr(v float64) *float64 {
	return &v
}

func point(date time.Time, close float64) domain.PricePoint {
	return domain.PricePoint{Date: date, Close: close}
}

func TestPriceChangesTooFewPoints(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, prices := range [][]domain.PricePoint{
		nil,
		{point(now, 100)},
	} {
		changes := PriceChanges(prices)
		for _, c := range changes {
			assert.Nil(t, c)
		}
	}
}

func TestPriceChangesExactHorizons(t *testing.T) {
	latest := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	prices := []domain.PricePoint{
		point(latest.AddDate(0, 0, -365), 100),
		point(latest.AddDate(0, 0, -30), 105),
		point(latest.AddDate(0, 0, -7), 108),
		point(latest.AddDate(0, 0, -1), 110),
		point(latest, 111),
	}

	changes := PriceChanges(prices)

	require.NotNil(t, changes[0])
	require.NotNil(t, changes[1])
	require.NotNil(t, changes[2])
	require.NotNil(t, changes[3])

	assert.InDelta(t, 0.909, *changes[0], 0.001)  // vs 110
	assert.InDelta(t, 2.778, *changes[1], 0.001)  // vs 108
	assert.InDelta(t, 5.714, *changes[2], 0.001)  // vs 105
	assert.InDelta(t, 11.000, *changes[3], 0.001) // vs 100
}

// A sparse series has no entry on most comparison dates; every horizon must
// fall forward to the next available point instead of failing.
func TestPriceChangesSparseSeriesFallsForward(t *testing.T) {
	latest := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	prices := []domain.PricePoint{
		point(latest.AddDate(0, 0, -400), 100),
		point(latest.AddDate(0, 0, -1), 110),
		point(latest, 111),
	}

	changes := PriceChanges(prices)

	// All four targets land after the -400d point, so every horizon
	// compares against the -1d close.
	for i, c := range changes {
		require.NotNil(t, c, "horizon %d", i)
		assert.InDelta(t, 0.909, *c, 0.001, "horizon %d", i)
	}
}

func TestPriceChangesHorizonsFailIndependently(t *testing.T) {
	latest := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// The year horizon's comparison point has a zero close and must be
	// skipped; the shorter horizons still resolve.
	prices := []domain.PricePoint{
		point(latest.AddDate(0, 0, -365), 0),
		point(latest.AddDate(0, 0, -1), 110),
		point(latest, 111),
	}

	changes := PriceChanges(prices)

	assert.NotNil(t, changes[0])
	assert.NotNil(t, changes[1])
	assert.NotNil(t, changes[2])
	assert.Nil(t, changes[3])
}

func TestPriceChangesFlatSeries(t *testing.T) {
	latest := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	prices := []domain.PricePoint{
		point(latest.AddDate(0, 0, -1), 100),
		point(latest, 100),
	}

	changes := PriceChanges(prices)

	require.NotNil(t, changes[0])
	assert.Equal(t, 0.0, *changes[0])
	assert.Equal(t, "0,0", FormatChange(changes[0]))
}
