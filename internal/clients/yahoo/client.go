package yahoo

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/iboito/dividenden-dashboard/internal/domain"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client is a Yahoo Finance API client. It serves as the quote, history and
// FX-rate collaborator for the analysis engine.
type Client struct {
	client     *http.Client
	baseURL    string
	maxRetries int
	retryDelay time.Duration
	log        zerolog.Logger
}

// Option configures the client
type Option func(*Client)

// WithBaseURL overrides the API base URL (used in tests)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithRetryDelay overrides the pause between retries on empty responses
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:    defaultBaseURL,
		maxRetries: 3,
		retryDelay: 2 * time.Second,
		log:        log.With().Str("client", "yahoo").Logger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// yahooQuoteResponse represents the response from the quote API
type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []map[string]interface{} `json:"result"`
		Error  interface{}              `json:"error"`
	} `json:"quoteResponse"`
}

// GetQuote fetches the current quote for a symbol.
//
// The provider occasionally answers with an empty result set on the first
// try; those responses are retried a fixed number of times with a fixed
// pause. Transport and API errors are not retried.
func (c *Client) GetQuote(symbol string) (*domain.Quote, error) {
	var info map[string]interface{}

	for attempt := 0; ; attempt++ {
		var err error
		info, err = c.getQuoteInfo(symbol)
		if err != nil {
			return nil, err
		}
		if info != nil {
			break
		}
		if attempt >= c.maxRetries-1 {
			return nil, fmt.Errorf("no quote data returned for symbol %s after %d attempts", symbol, c.maxRetries)
		}

		c.log.Warn().
			Str("symbol", symbol).
			Int("attempt", attempt+1).
			Dur("wait", c.retryDelay).
			Msg("Empty quote response, retrying")
		time.Sleep(c.retryDelay)
	}

	name := getString(info, "longName", "")
	if name == "" {
		name = getString(info, "shortName", "")
	}
	if name == "" {
		name = getString(info, "symbol", symbol)
	}

	quote := &domain.Quote{
		Symbol:                     getString(info, "symbol", symbol),
		Name:                       name,
		Price:                      getFloat64(info, "regularMarketPrice"),
		Currency:                   getString(info, "currency", domain.FallbackCurrency),
		TrailingAnnualDividendRate: getFloat64(info, "trailingAnnualDividendRate"),
		DividendYield:              getFloat64(info, "dividendYield"),
	}

	if quote.Price == nil {
		quote.Price = getFloat64(info, "currentPrice")
	}

	return quote, nil
}

// Rate fetches the conversion rate for a currency pair via the provider's
// synthetic pair symbols (e.g. USDEUR=X).
func (c *Client) Rate(src, dst string) (float64, error) {
	pair := fmt.Sprintf("%s%s=X", src, dst)

	info, err := c.getQuoteInfo(pair)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch FX rate %s->%s: %w", src, dst, err)
	}
	if info == nil {
		return 0, fmt.Errorf("no FX data returned for pair %s", pair)
	}

	rate := getFloat64(info, "regularMarketPrice")
	if rate == nil || *rate <= 0 {
		return 0, fmt.Errorf("no usable FX rate in response for pair %s", pair)
	}

	return *rate, nil
}

// getQuoteInfo fetches quote information from the quote API. A nil map with
// a nil error means the provider answered successfully but returned no data.
func (c *Client) getQuoteInfo(symbol string) (map[string]interface{}, error) {
	params := url.Values{}
	params.Add("symbols", symbol)
	params.Add("fields", "symbol,longName,shortName,regularMarketPrice,currentPrice,currency,"+
		"trailingAnnualDividendRate,dividendYield")

	reqURL := c.baseURL + "/v7/finance/quote?" + params.Encode()

	body, err := c.get(reqURL)
	if err != nil {
		return nil, err
	}

	var result yahooQuoteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error: %v", result.QuoteResponse.Error)
	}

	if len(result.QuoteResponse.Result) == 0 {
		return nil, nil
	}

	return result.QuoteResponse.Result[0], nil
}

// GetHistory fetches the daily closing price series and the dividend payment
// series for a symbol over the given number of calendar days.
func (c *Client) GetHistory(symbol string, days int) (*domain.History, error) {
	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("range", fmt.Sprintf("%dd", days))
	params.Add("events", "div")

	reqURL := c.baseURL + "/v8/finance/chart/" + url.QueryEscape(symbol) + "?" + params.Encode()

	body, err := c.get(reqURL)
	if err != nil {
		return nil, err
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error: %v", result.Chart.Error)
	}

	if len(result.Chart.Result) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No historical data returned")
		return &domain.History{}, nil
	}

	chartData := result.Chart.Result[0]

	var points []domain.PricePoint
	if len(chartData.Indicators.Quote) > 0 {
		closes := chartData.Indicators.Quote[0].Close
		for i, ts := range chartData.Timestamp {
			if i >= len(closes) || closes[i] == nil {
				continue
			}
			points = append(points, domain.PricePoint{
				Date:  time.Unix(ts, 0).UTC(),
				Close: *closes[i],
			})
		}
	}

	var dividends []domain.DividendPayment
	for _, d := range chartData.Events.Dividends {
		dividends = append(dividends, domain.DividendPayment{
			Date:   time.Unix(d.Date, 0).UTC(),
			Amount: d.Amount,
		})
	}
	sortDividends(dividends)

	history := &domain.History{
		Prices:    domain.SanitizePrices(points),
		Dividends: dividends,
	}

	c.log.Debug().
		Str("symbol", symbol).
		Int("prices", len(history.Prices)).
		Int("dividends", len(history.Dividends)).
		Msg("Fetched history")

	return history, nil
}

// get performs a GET request with browser-like headers
func (c *Client) get(reqURL string) ([]byte, error) {
	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// Helper functions to safely extract values from map

func getFloat64(m map[string]interface{}, key string) *float64 {
	if val, ok := m[key]; ok && val != nil {
		switch v := val.(type) {
		case float64:
			return &v
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		}
	}
	return nil
}

func getString(m map[string]interface{}, key string, defaultVal string) string {
	if val, ok := m[key]; ok && val != nil {
		if s, ok := val.(string); ok && s != "" {
			return s
		}
	}
	return defaultVal
}
