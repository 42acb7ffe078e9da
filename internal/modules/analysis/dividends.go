package analysis

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/iboito/dividenden-dashboard/internal/domain"
	"github.com/iboito/dividenden-dashboard/internal/modules/fx"
	"github.com/iboito/dividenden-dashboard/internal/modules/overrides"
)

// minorUnit describes a currency the provider reports in a sub-unit
type minorUnit struct {
	Major   string
	Divisor float64
}

// minorUnits is the static table of minor-unit currency codes. The divisor
// applies to price and dividend amounts alike before any FX conversion.
var minorUnits = map[string]minorUnit{
	"GBp": {Major: "GBP", Divisor: 100},
	"GBX": {Major: "GBP", Divisor: 100},
	"ZAc": {Major: "ZAR", Divisor: 100},
}

// normalizeCurrency maps a provider currency code to its major form and the
// divisor needed to scale amounts into it. Regular codes return divisor 1.
func normalizeCurrency(code string) (major string, divisor float64) {
	if mu, ok := minorUnits[code]; ok {
		return mu.Major, mu.Divisor
	}
	return code, 1
}

// Resolver derives one authoritative annual dividend per security from a
// cascade of fallback sources. Provider fields are frequently null, stale or
// in the wrong unit; the cascade prefers explicit provider figures over
// derived ones and manual correction over all automated sources.
type Resolver struct {
	fx     *fx.Cache
	target string
	log    zerolog.Logger
}

// NewResolver creates a dividend resolver converting into the target currency
func NewResolver(fxCache *fx.Cache, target string, log zerolog.Logger) *Resolver {
	return &Resolver{
		fx:     fxCache,
		target: target,
		log:    log.With().Str("component", "dividend_resolver").Logger(),
	}
}

// Resolve returns the annual dividend in the target currency, or nil when no
// source yields a positive amount. Evaluation order, first hit wins:
//
//  1. manual override — already in the target currency, used verbatim
//  2. provider trailing annual dividend rate, unit-scaled, FX-converted
//  3. provider dividend yield × price (percentage values above 1 are
//     treated as percent and divided by 100), FX-converted
//  4. sum of dividend payments within the last 365 days of the history
//     window, unit-scaled, FX-converted
func (r *Resolver) Resolve(symbol string, quote *domain.Quote, history *domain.History, ovr *overrides.Store) *float64 {
	if ovr != nil {
		if value, ok := ovr.Get(symbol); ok {
			r.log.Debug().Str("symbol", symbol).Float64("dividend", value).Msg("Using manual override")
			return round2Ptr(value)
		}
	}

	major, divisor := normalizeCurrency(quote.Currency)

	if rate := quote.TrailingAnnualDividendRate; rate != nil && *rate > 0 {
		amount := *rate / divisor * r.fx.Rate(major, r.target)
		return round2Ptr(amount)
	}

	if y := quote.DividendYield; y != nil && *y > 0 && quote.Price != nil && *quote.Price > 0 {
		yield := *y
		if yield > 1 {
			// Provider sometimes reports the yield as a percentage
			yield /= 100
		}
		amount := *quote.Price / divisor * yield * r.fx.Rate(major, r.target)
		return round2Ptr(amount)
	}

	if history != nil {
		if sum := trailingDividendSum(history); sum > 0 {
			amount := sum / divisor * r.fx.Rate(major, r.target)
			return round2Ptr(amount)
		}
	}

	return nil
}

// trailingDividendSum sums the dividend payments dated within 365 calendar
// days of the most recent history point.
func trailingDividendSum(history *domain.History) float64 {
	if len(history.Dividends) == 0 {
		return 0
	}

	newest := history.Dividends[len(history.Dividends)-1].Date
	if len(history.Prices) > 0 {
		if last := history.Prices[len(history.Prices)-1].Date; last.After(newest) {
			newest = last
		}
	}
	cutoff := newest.AddDate(0, 0, -365)

	var sum float64
	for _, d := range history.Dividends {
		if !d.Date.Before(cutoff) {
			sum += d.Amount
		}
	}
	return sum
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round2Ptr(v float64) *float64 {
	rounded := round2(v)
	return &rounded
}
