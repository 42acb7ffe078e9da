package analysis

// ResolvedRecord is one output row of an analysis run. Missing numerics are
// nil; the formatting layer turns them into display strings. Records are
// produced fresh on every run and never mutated in place.
type ResolvedRecord struct {
	Name       string      `json:"name"`
	Symbol     string      `json:"symbol"`
	Price      *float64    `json:"price,omitempty"`
	Dividend   *float64    `json:"dividend,omitempty"`
	YieldPct   *float64    `json:"yield_pct,omitempty"`
	Changes    [4]*float64 `json:"changes"` // day, week, month, year
	Volatility *float64    `json:"volatility,omitempty"`
	AboveSMA50 *bool       `json:"above_sma50,omitempty"`
	Override   bool        `json:"override"`
	Degraded   bool        `json:"degraded"`
	Timestamp  string      `json:"timestamp"`
}

// Summary holds batch-level statistics over one analysis run
type Summary struct {
	Records        int     `json:"records"`
	WithDividend   int     `json:"with_dividend"`
	MeanYieldPct   float64 `json:"mean_yield_pct"`
	StdDevYieldPct float64 `json:"stddev_yield_pct"`
	MeanVolatility float64 `json:"mean_volatility"`
}
