package analysis

import (
	"sort"

	"github.com/iboito/dividenden-dashboard/internal/domain"
)

// horizonDays are the fixed lookback horizons in calendar days:
// day, week, month, year.
var horizonDays = [4]int{1, 7, 30, 365}

// PriceChanges computes the trailing percentage change of the latest close
// against each horizon's comparison point. The comparison point for a
// horizon is the first series entry at or after (latest date - horizon);
// horizons fail independently. A series with fewer than two points yields
// four nil results.
//
// The series must be ascending by date (see domain.SanitizePrices).
func PriceChanges(prices []domain.PricePoint) [4]*float64 {
	var out [4]*float64

	if len(prices) < 2 {
		return out
	}

	latest := prices[len(prices)-1]

	for i, days := range horizonDays {
		target := latest.Date.AddDate(0, 0, -days)

		idx := sort.Search(len(prices), func(j int) bool {
			return !prices[j].Date.Before(target)
		})
		if idx >= len(prices) {
			continue
		}

		past := prices[idx]
		if past.Close <= 0 {
			continue
		}

		pct := (latest.Close - past.Close) / past.Close * 100
		out[i] = &pct
	}

	return out
}
