package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePrices(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	points := []PricePoint{
		{Date: day.AddDate(0, 0, -1), Close: 98},
		{Date: day, Close: 100},
		{Date: day.Add(6 * time.Hour), Close: 101}, // same calendar day, last wins
		{Date: day.AddDate(0, 0, -2), Close: 0},    // dropped
		{Date: day.AddDate(0, 0, -3), Close: -5},   // dropped
	}

	out := SanitizePrices(points)

	require.Len(t, out, 2)
	assert.Equal(t, 98.0, out[0].Close)
	assert.Equal(t, 101.0, out[1].Close)
	assert.True(t, out[0].Date.Before(out[1].Date))
}

func TestSanitizePricesEmpty(t *testing.T) {
	assert.Empty(t, SanitizePrices(nil))
}
