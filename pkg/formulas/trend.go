package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMA calculates a simple moving average over the closing prices and returns
// the most recent value, or nil if there is not enough data.
func SMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}

	sma := talib.Sma(closes, length)

	if len(sma) > 0 && !isNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}

// AboveSMA reports whether the latest close sits above its N-day simple
// moving average. Returns nil when the series is too short to tell.
func AboveSMA(closes []float64, length int) *bool {
	sma := SMA(closes, length)
	if sma == nil || len(closes) == 0 {
		return nil
	}

	above := closes[len(closes)-1] > *sma
	return &above
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
