package universe

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"

	"github.com/iboito/dividenden-dashboard/internal/domain"
)

// HistoryCache stores the last successfully fetched daily closing prices per
// symbol, one small database file per symbol. It is written through after
// every successful history fetch and read back when the provider fails, so a
// transient outage does not blank the price-change columns.
type HistoryCache struct {
	dir string
	log zerolog.Logger
}

// NewHistoryCache creates a history cache rooted at dir
func NewHistoryCache(dir string, log zerolog.Logger) *HistoryCache {
	return &HistoryCache{
		dir: dir,
		log: log.With().Str("component", "history_cache").Logger(),
	}
}

// Save replaces the cached price series for a symbol
func (h *HistoryCache) Save(symbol string, prices []domain.PricePoint) error {
	if err := os.MkdirAll(h.dir, 0755); err != nil {
		return fmt.Errorf("failed to create history cache directory: %w", err)
	}

	db, err := h.open(symbol)
	if err != nil {
		return err
	}
	defer db.Close()

	schema := `
		CREATE TABLE IF NOT EXISTS daily_prices (
			date TEXT PRIMARY KEY,
			close REAL NOT NULL
		)
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create daily_prices table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM daily_prices`); err != nil {
		return fmt.Errorf("failed to clear daily prices: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO daily_prices (date, close) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range prices {
		if _, err := stmt.Exec(p.Date.Format("2006-01-02"), p.Close); err != nil {
			return fmt.Errorf("failed to insert daily price: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit daily prices: %w", err)
	}

	h.log.Debug().Str("symbol", symbol).Int("count", len(prices)).Msg("Cached price history")
	return nil
}

// Load returns the cached price series for a symbol, ascending by date.
// A missing cache file is an error; callers treat it like any other miss.
func (h *HistoryCache) Load(symbol string) ([]domain.PricePoint, error) {
	db, err := h.open(symbol)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT date, close FROM daily_prices ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var prices []domain.PricePoint
	for rows.Next() {
		var dateStr string
		var closePrice float64

		if err := rows.Scan(&dateStr, &closePrice); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}

		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse cached date %q: %w", dateStr, err)
		}

		prices = append(prices, domain.PricePoint{Date: date, Close: closePrice})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	return prices, nil
}

// open opens the per-symbol cache database. AAPL.US maps to AAPL_US.db.
func (h *HistoryCache) open(symbol string) (*sql.DB, error) {
	fileSymbol := strings.ReplaceAll(symbol, ".", "_")
	dbPath := filepath.Join(h.dir, fileSymbol+".db")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history cache for %s: %w", symbol, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history cache for %s: %w", symbol, err)
	}

	return db, nil
}
