package universe

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iboito/dividenden-dashboard/internal/domain"
)

func TestHistoryCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cache := NewHistoryCache(dir, zerolog.Nop())

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	prices := []domain.PricePoint{
		{Date: day.AddDate(0, 0, -2), Close: 98.5},
		{Date: day.AddDate(0, 0, -1), Close: 99.25},
		{Date: day, Close: 100},
	}

	require.NoError(t, cache.Save("SAP.DE", prices))

	// Dots in the symbol map to underscores in the file name
	_, err := os.Stat(filepath.Join(dir, "SAP_DE.db"))
	require.NoError(t, err)

	loaded, err := cache.Load("SAP.DE")
	require.NoError(t, err)

	require.Len(t, loaded, 3)
	for i := range prices {
		assert.Equal(t, prices[i].Close, loaded[i].Close)
		assert.Equal(t, prices[i].Date.Format("2006-01-02"), loaded[i].Date.Format("2006-01-02"))
	}
}

func TestHistoryCacheSaveReplaces(t *testing.T) {
	cache := NewHistoryCache(t.TempDir(), zerolog.Nop())

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, cache.Save("O", []domain.PricePoint{
		{Date: day.AddDate(0, 0, -1), Close: 54},
		{Date: day, Close: 55},
	}))
	require.NoError(t, cache.Save("O", []domain.PricePoint{
		{Date: day, Close: 56},
	}))

	loaded, err := cache.Load("O")
	require.NoError(t, err)

	require.Len(t, loaded, 1)
	assert.Equal(t, 56.0, loaded[0].Close)
}

func TestHistoryCacheSymbolsAreIsolated(t *testing.T) {
	cache := NewHistoryCache(t.TempDir(), zerolog.Nop())

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, cache.Save("SAP.DE", []domain.PricePoint{{Date: day, Close: 100}}))
	require.NoError(t, cache.Save("KO", []domain.PricePoint{{Date: day, Close: 60}}))

	sap, err := cache.Load("SAP.DE")
	require.NoError(t, err)
	ko, err := cache.Load("KO")
	require.NoError(t, err)

	require.Len(t, sap, 1)
	require.Len(t, ko, 1)
	assert.Equal(t, 100.0, sap[0].Close)
	assert.Equal(t, 60.0, ko[0].Close)
}
