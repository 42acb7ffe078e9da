package analysis

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iboito/dividenden-dashboard/internal/domain"
	"github.com/iboito/dividenden-dashboard/internal/modules/fx"
)

type quoteStub struct {
	quotes map[string]*domain.Quote
}

func (s *quoteStub) GetQuote(symbol string) (*domain.Quote, error) {
	quote, ok := s.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("quote lookup failed for %s", symbol)
	}
	return quote, nil
}

type historyStub struct {
	histories map[string]*domain.History
}

func (s *historyStub) GetHistory(symbol string, days int) (*domain.History, error) {
	history, ok := s.histories[symbol]
	if !ok {
		return nil, fmt.Errorf("history lookup failed for %s", symbol)
	}
	return history, nil
}

type cacheStub struct {
	saved map[string][]domain.PricePoint
}

func newCacheStub() *cacheStub {
	return &cacheStub{saved: make(map[string][]domain.PricePoint)}
}

func (c *cacheStub) Save(symbol string, prices []domain.PricePoint) error {
	c.saved[symbol] = prices
	return nil
}

func (c *cacheStub) Load(symbol string) ([]domain.PricePoint, error) {
	return c.saved[symbol], nil
}

func testHistory(latest time.Time) *domain.History {
	return &domain.History{
		Prices: []domain.PricePoint{
			{Date: latest.AddDate(0, 0, -30), Close: 90},
			{Date: latest.AddDate(0, 0, -1), Close: 98},
			{Date: latest, Close: 100},
		},
	}
}

func newTestService(quotes *quoteStub, histories *historyStub, cache PriceCache) *Service {
	fxCache := fx.NewCache(&fakeRates{rates: map[string]float64{"USDEUR": 0.9}}, zerolog.Nop())

	return NewService(Config{
		Quotes:         quotes,
		History:        histories,
		Cache:          cache,
		FX:             fxCache,
		TargetCurrency: "EUR",
		LookbackDays:   400,
		Log:            zerolog.Nop(),
	})
}

func TestRunHappyPath(t *testing.T) {
	latest := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	quotes := &quoteStub{quotes: map[string]*domain.Quote{
		"ALV.DE": {
			Symbol:                     "ALV.DE",
			Name:                       "Allianz SE",
			Currency:                   "EUR",
			Price:                      fptr(100),
			TrailingAnnualDividendRate: fptr(5),
		},
	}}
	histories := &historyStub{histories: map[string]*domain.History{
		"ALV.DE": testHistory(latest),
	}}

	service := newTestService(quotes, histories, nil)
	records := service.Run([]string{"ALV.DE"})

	require.Len(t, records, 1)
	r := records[0]

	assert.Equal(t, "Allianz SE", r.Name)
	assert.Equal(t, "ALV.DE", r.Symbol)
	assert.False(t, r.Degraded)

	require.NotNil(t, r.Price)
	assert.Equal(t, 100.0, *r.Price)

	require.NotNil(t, r.Dividend)
	assert.Equal(t, 5.0, *r.Dividend)

	require.NotNil(t, r.YieldPct)
	assert.InDelta(t, 5.0, *r.YieldPct, 0.001)

	require.NotNil(t, r.Changes[0])
	assert.InDelta(t, 2.041, *r.Changes[0], 0.001)
	require.NotNil(t, r.Changes[2])
	assert.InDelta(t, 11.111, *r.Changes[2], 0.001)

	assert.NotNil(t, r.Volatility)
	assert.Nil(t, r.AboveSMA50, "three closes are not enough for a 50-day average")
}

func TestRunConvertsQuoteCurrency(t *testing.T) {
	latest := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	quotes := &quoteStub{quotes: map[string]*domain.Quote{
		"KO": {
			Symbol:                     "KO",
			Name:                       "Coca-Cola",
			Currency:                   "USD",
			Price:                      fptr(60),
			TrailingAnnualDividendRate: fptr(2),
		},
	}}
	histories := &historyStub{histories: map[string]*domain.History{
		"KO": testHistory(latest),
	}}

	service := newTestService(quotes, histories, nil)
	records := service.Run([]string{"KO"})

	require.Len(t, records, 1)
	r := records[0]

	require.NotNil(t, r.Price)
	assert.Equal(t, 54.0, *r.Price)

	require.NotNil(t, r.Dividend)
	assert.Equal(t, 1.8, *r.Dividend)

	// Yield is computed on the converted figures
	require.NotNil(t, r.YieldPct)
	assert.InDelta(t, 3.333, *r.YieldPct, 0.001)
}

func TestRunQuoteFailureDegrades(t *testing.T) {
	latest := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	quotes := &quoteStub{quotes: map[string]*domain.Quote{}}
	histories := &historyStub{histories: map[string]*domain.History{
		"XXXX": testHistory(latest),
	}}

	service := newTestService(quotes, histories, nil)
	records := service.Run([]string{"XXXX"})

	require.Len(t, records, 1)
	r := records[0]

	assert.True(t, r.Degraded)
	assert.Equal(t, "Fehler bei 'XXXX'", r.Name)
	assert.Equal(t, "XXXX", r.Symbol)
	assert.Nil(t, r.Price)
	assert.Nil(t, r.Dividend)
	assert.NotEmpty(t, r.Timestamp)
}

func TestRunFailureDoesNotAbortBatch(t *testing.T) {
	latest := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	quotes := &quoteStub{quotes: map[string]*domain.Quote{
		"ALV.DE": {Symbol: "ALV.DE", Name: "Allianz SE", Currency: "EUR", Price: fptr(100)},
	}}
	histories := &historyStub{histories: map[string]*domain.History{
		"ALV.DE": testHistory(latest),
	}}

	service := newTestService(quotes, histories, nil)
	records := service.Run([]string{"XXXX", "ALV.DE"})

	require.Len(t, records, 2)

	// Ranked output: the healthy record precedes the degraded one
	assert.Equal(t, "ALV.DE", records[0].Symbol)
	assert.False(t, records[0].Degraded)
	assert.Equal(t, "XXXX", records[1].Symbol)
	assert.True(t, records[1].Degraded)
}

func TestRunHistoryFailureFallsBackToCache(t *testing.T) {
	latest := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	quotes := &quoteStub{quotes: map[string]*domain.Quote{
		"ALV.DE": {Symbol: "ALV.DE", Name: "Allianz SE", Currency: "EUR", Price: fptr(100)},
	}}
	histories := &historyStub{histories: map[string]*domain.History{}}

	cache := newCacheStub()
	cache.saved["ALV.DE"] = testHistory(latest).Prices

	service := newTestService(quotes, histories, cache)
	records := service.Run([]string{"ALV.DE"})

	require.Len(t, records, 1)
	r := records[0]

	assert.False(t, r.Degraded)
	require.NotNil(t, r.Changes[0])
	assert.InDelta(t, 2.041, *r.Changes[0], 0.001)
}

func TestRunHistoryFailureWithoutCacheDegrades(t *testing.T) {
	quotes := &quoteStub{quotes: map[string]*domain.Quote{
		"ALV.DE": {Symbol: "ALV.DE", Currency: "EUR", Price: fptr(100)},
	}}
	histories := &historyStub{histories: map[string]*domain.History{}}

	service := newTestService(quotes, histories, nil)
	records := service.Run([]string{"ALV.DE"})

	require.Len(t, records, 1)
	assert.True(t, records[0].Degraded)
}

func TestRunWritesThroughToCache(t *testing.T) {
	latest := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	quotes := &quoteStub{quotes: map[string]*domain.Quote{
		"ALV.DE": {Symbol: "ALV.DE", Currency: "EUR", Price: fptr(100)},
	}}
	histories := &historyStub{histories: map[string]*domain.History{
		"ALV.DE": testHistory(latest),
	}}

	cache := newCacheStub()
	service := newTestService(quotes, histories, cache)
	service.Run([]string{"ALV.DE"})

	assert.Len(t, cache.saved["ALV.DE"], 3)
}

func TestRunIsDeterministic(t *testing.T) {
	latest := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	quotes := &quoteStub{quotes: map[string]*domain.Quote{
		"ALV.DE": {
			Symbol:                     "ALV.DE",
			Name:                       "Allianz SE",
			Currency:                   "EUR",
			Price:                      fptr(100),
			TrailingAnnualDividendRate: fptr(5),
		},
	}}
	histories := &historyStub{histories: map[string]*domain.History{
		"ALV.DE": testHistory(latest),
	}}

	service := newTestService(quotes, histories, nil)

	first := service.Run([]string{"ALV.DE"})
	second := service.Run([]string{"ALV.DE"})

	require.Len(t, first, 1)
	require.Len(t, second, 1)

	// Equal apart from the wall-clock timestamp
	second[0].Timestamp = first[0].Timestamp
	assert.Equal(t, first[0], second[0])
}

func TestRank(t *testing.T) {
	records := []ResolvedRecord{
		{Symbol: "LOW", Changes: [4]*float64{fptr(1.0)}},
		{Symbol: "MISSING"},
		{Symbol: "HIGH", Changes: [4]*float64{fptr(2.5)}},
		{Symbol: "NEG", Changes: [4]*float64{fptr(-0.5)}},
	}

	Rank(records)

	got := make([]string, len(records))
	for i, r := range records {
		got[i] = r.Symbol
	}

	assert.Equal(t, []string{"HIGH", "LOW", "NEG", "MISSING"}, got)
}

func TestRankIsStable(t *testing.T) {
	records := []ResolvedRecord{
		{Symbol: "A"},
		{Symbol: "B"},
		{Symbol: "C", Changes: [4]*float64{fptr(1.0)}},
	}

	Rank(records)

	assert.Equal(t, "C", records[0].Symbol)
	assert.Equal(t, "A", records[1].Symbol)
	assert.Equal(t, "B", records[2].Symbol)
}

func TestSummarize(t *testing.T) {
	records := []ResolvedRecord{
		{Dividend: fptr(5), YieldPct: fptr(4.0), Volatility: fptr(20)},
		{Dividend: fptr(2), YieldPct: fptr(2.0), Volatility: fptr(30)},
		{Degraded: true},
	}

	summary := Summarize(records)

	assert.Equal(t, 3, summary.Records)
	assert.Equal(t, 2, summary.WithDividend)
	assert.Equal(t, 3.0, summary.MeanYieldPct)
	assert.InDelta(t, 1.41, summary.StdDevYieldPct, 0.01)
	assert.Equal(t, 25.0, summary.MeanVolatility)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)

	assert.Equal(t, 0, summary.Records)
	assert.Equal(t, 0, summary.WithDividend)
	assert.Equal(t, 0.0, summary.MeanYieldPct)
}
