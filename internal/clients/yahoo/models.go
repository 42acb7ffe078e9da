package yahoo

import (
	"sort"

	"github.com/iboito/dividenden-dashboard/internal/domain"
)

// chartResponse mirrors the chart API payload. Close values arrive as
// nullable floats because the provider fills gaps with JSON null.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
			Events struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// sortDividends orders payments ascending by date. The chart API keys the
// dividend events by timestamp string, so map order is random.
func sortDividends(dividends []domain.DividendPayment) {
	sort.Slice(dividends, func(i, j int) bool {
		return dividends[i].Date.Before(dividends[j].Date)
	})
}
