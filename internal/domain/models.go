package domain

import (
	"sort"
	"time"
)

// FallbackCurrency is assumed when the provider omits a currency code.
const FallbackCurrency = "USD"

// Quote holds the current market snapshot for one security, as reported by
// the provider. Price and the dividend fields are in the provider's native
// unit, which may be a minor unit (e.g. pence) for some markets.
type Quote struct {
	Symbol                     string   `json:"symbol"`
	Name                       string   `json:"name"`
	Price                      *float64 `json:"price,omitempty"`
	Currency                   string   `json:"currency"`
	TrailingAnnualDividendRate *float64 `json:"trailing_annual_dividend_rate,omitempty"`
	DividendYield              *float64 `json:"dividend_yield,omitempty"`
}

// PricePoint is one daily closing price
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// DividendPayment is one dividend payment event
type DividendPayment struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// History is the dated daily price series and dividend payment series for
// one security over the lookback window.
type History struct {
	Prices    []PricePoint      `json:"prices"`
	Dividends []DividendPayment `json:"dividends"`
}

// SanitizePrices enforces the price series invariants: ascending by date,
// deduplicated (last entry per day wins), non-positive prices excluded.
func SanitizePrices(points []PricePoint) []PricePoint {
	byDay := make(map[string]PricePoint, len(points))
	for _, p := range points {
		if p.Close <= 0 {
			continue
		}
		byDay[p.Date.Format("2006-01-02")] = p
	}

	out := make([]PricePoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	return out
}
