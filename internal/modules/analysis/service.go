package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/iboito/dividenden-dashboard/internal/domain"
	"github.com/iboito/dividenden-dashboard/internal/modules/fx"
	"github.com/iboito/dividenden-dashboard/internal/modules/overrides"
	"github.com/iboito/dividenden-dashboard/pkg/formulas"
)

// missingRank is the sort ordinal for records without a 1-day change;
// it sends them to the bottom of the ranking.
const missingRank = -9e9

// smaLength is the moving-average window for the trend flag
const smaLength = 50

// QuoteSource supplies current market quotes
type QuoteSource interface {
	GetQuote(symbol string) (*domain.Quote, error)
}

// HistorySource supplies daily price and dividend history
type HistorySource interface {
	GetHistory(symbol string, days int) (*domain.History, error)
}

// PriceCache stores the last known good price series per symbol
type PriceCache interface {
	Save(symbol string, prices []domain.PricePoint) error
	Load(symbol string) ([]domain.PricePoint, error)
}

// Config wires a Service
type Config struct {
	Quotes         QuoteSource
	History        HistorySource
	Cache          PriceCache // optional
	FX             *fx.Cache
	Overrides      *overrides.Store
	TargetCurrency string
	LookbackDays   int
	Log            zerolog.Logger
}

// Service runs the full fetch-resolve-compute sequence for a batch of
// identifiers. Identifiers are processed sequentially, one at a time;
// a failing identifier degrades to an error record and never aborts the
// batch. Callers must serialize runs that share the override store.
type Service struct {
	quotes    QuoteSource
	history   HistorySource
	cache     PriceCache
	fx        *fx.Cache
	overrides *overrides.Store
	resolver  *Resolver
	target    string
	lookback  int
	log       zerolog.Logger
}

// NewService creates an analysis service
func NewService(cfg Config) *Service {
	target := cfg.TargetCurrency
	if target == "" {
		target = "EUR"
	}
	lookback := cfg.LookbackDays
	if lookback <= 0 {
		lookback = 400
	}

	return &Service{
		quotes:    cfg.Quotes,
		history:   cfg.History,
		cache:     cfg.Cache,
		fx:        cfg.FX,
		overrides: cfg.Overrides,
		resolver:  NewResolver(cfg.FX, target, cfg.Log),
		target:    target,
		lookback:  lookback,
		log:       cfg.Log.With().Str("component", "analysis").Logger(),
	}
}

// TargetCurrency returns the display currency records are normalized into
func (s *Service) TargetCurrency() string {
	return s.target
}

// Run analyzes a batch of identifiers and returns the ranked records,
// one per input identifier.
func (s *Service) Run(tickers []string) []ResolvedRecord {
	records := make([]ResolvedRecord, 0, len(tickers))
	for _, ticker := range tickers {
		records = append(records, s.analyze(ticker))
	}

	Rank(records)

	s.log.Info().Int("count", len(records)).Msg("Analysis run complete")
	return records
}

// analyze produces the record for a single identifier
func (s *Service) analyze(ticker string) ResolvedRecord {
	timestamp := time.Now().Format("15:04:05")

	quote, err := s.quotes.GetQuote(ticker)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("Quote fetch failed")
		return degradedRecord(ticker, timestamp)
	}

	history, err := s.history.GetHistory(ticker, s.lookback)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("History fetch failed, trying cache")
		history = s.cachedHistory(ticker)
		if history == nil {
			return degradedRecord(ticker, timestamp)
		}
	} else if s.cache != nil && len(history.Prices) > 0 {
		if err := s.cache.Save(ticker, history.Prices); err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to cache price history")
		}
	}

	major, divisor := normalizeCurrency(quote.Currency)
	rate := s.fx.Rate(major, s.target)

	var price *float64
	if quote.Price != nil && *quote.Price > 0 {
		price = round2Ptr(*quote.Price / divisor * rate)
	}

	dividend := s.resolver.Resolve(ticker, quote, history, s.overrides)

	// Yield needs both a positive dividend and a positive price
	var yieldPct *float64
	if dividend != nil && *dividend > 0 && price != nil && *price > 0 {
		yield := *dividend / *price * 100
		yieldPct = &yield
	}

	closes := make([]float64, len(history.Prices))
	for i, p := range history.Prices {
		closes[i] = p.Close
	}

	var volatility *float64
	if returns := formulas.DailyReturns(closes); len(returns) > 0 {
		v := formulas.AnnualizedVolatility(returns)
		volatility = &v
	}

	name := quote.Name
	if name == "" {
		name = ticker
	}

	return ResolvedRecord{
		Name:       name,
		Symbol:     ticker,
		Price:      price,
		Dividend:   dividend,
		YieldPct:   yieldPct,
		Changes:    PriceChanges(history.Prices),
		Volatility: volatility,
		AboveSMA50: formulas.AboveSMA(closes, smaLength),
		Override:   s.overrides != nil && s.overrides.Has(ticker),
		Timestamp:  timestamp,
	}
}

// cachedHistory falls back to the last known good price series. The cached
// series carries no dividend payments; the resolver simply skips its
// history step in that case.
func (s *Service) cachedHistory(ticker string) *domain.History {
	if s.cache == nil {
		return nil
	}

	prices, err := s.cache.Load(ticker)
	if err != nil || len(prices) == 0 {
		return nil
	}

	s.log.Info().Str("ticker", ticker).Int("count", len(prices)).Msg("Using cached price history")
	return &domain.History{Prices: prices}
}

// degradedRecord is the error row for an identifier whose data could not be
// fetched at all
func degradedRecord(ticker, timestamp string) ResolvedRecord {
	return ResolvedRecord{
		Name:      fmt.Sprintf("Fehler bei '%s'", ticker),
		Symbol:    ticker,
		Degraded:  true,
		Timestamp: timestamp,
	}
}

// Rank sorts records by 1-day change, descending. Records without a 1-day
// value sort to the bottom via a very negative sentinel ordinal.
func Rank(records []ResolvedRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return dayRank(records[i]) > dayRank(records[j])
	})
}

func dayRank(r ResolvedRecord) float64 {
	if r.Changes[0] == nil {
		return missingRank
	}
	return *r.Changes[0]
}

// Summarize computes batch statistics over a completed run
func Summarize(records []ResolvedRecord) Summary {
	var yields, volatilities []float64
	withDividend := 0

	for _, r := range records {
		if r.Dividend != nil && *r.Dividend > 0 {
			withDividend++
		}
		if r.YieldPct != nil {
			yields = append(yields, *r.YieldPct)
		}
		if r.Volatility != nil {
			volatilities = append(volatilities, *r.Volatility)
		}
	}

	return Summary{
		Records:        len(records),
		WithDividend:   withDividend,
		MeanYieldPct:   round2(formulas.Mean(yields)),
		StdDevYieldPct: round2(formulas.StdDev(yields)),
		MeanVolatility: round2(formulas.Mean(volatilities)),
	}
}
