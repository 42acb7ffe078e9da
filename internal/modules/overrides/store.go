package overrides

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ErrInvalidValue is returned when a manual dividend entry does not parse
// as a number. The store is left untouched in that case.
var ErrInvalidValue = errors.New("invalid dividend value")

// Store holds user-entered dividend overrides, keyed by ticker, with amounts
// already expressed in the target display currency. The mapping is persisted
// to a flat, human-editable JSON file and rewritten wholesale after every
// mutation.
type Store struct {
	path string
	log  zerolog.Logger

	mu     sync.Mutex
	values map[string]float64
}

// NewStore creates an override store backed by the given file path
func NewStore(path string, log zerolog.Logger) *Store {
	return &Store{
		path:   path,
		values: make(map[string]float64),
		log:    log.With().Str("component", "overrides").Logger(),
	}
}

// Load reads the persisted state. A missing, unreadable or corrupted file is
// treated as an empty store; load failures are never surfaced to the caller.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[string]float64)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", s.path).Msg("Failed to read overrides file, starting empty")
		}
		return
	}

	var values map[string]float64
	if err := json.Unmarshal(data, &values); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("Overrides file is corrupted, starting empty")
		return
	}

	s.values = values
	s.log.Info().Int("count", len(values)).Msg("Loaded dividend overrides")
}

// Get returns the override for a ticker, if present
func (s *Store) Get(ticker string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[ticker]
	return value, ok
}

// Has reports whether a ticker has an override
func (s *Store) Has(ticker string) bool {
	_, ok := s.Get(ticker)
	return ok
}

// Set records a manual dividend for a ticker from raw user input. A comma
// decimal separator is accepted; an empty string removes the entry. The new
// state is persisted before Set returns; a persistence failure is returned
// to the caller.
func (s *Store) Set(ticker, raw string) error {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))

	s.mu.Lock()
	defer s.mu.Unlock()

	if raw == "" {
		delete(s.values, ticker)
		return s.persist()
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%w for %s: %q", ErrInvalidValue, ticker, raw)
	}

	s.values[ticker] = value
	return s.persist()
}

// Clear empties the mapping and removes the persisted file
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[string]float64)

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove overrides file: %w", err)
	}

	return nil
}

// Snapshot returns a copy of the current mapping
func (s *Store) Snapshot() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]float64, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// persist rewrites the whole file from the in-memory mapping. Callers must
// hold the mutex.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode overrides: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create overrides directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write overrides file: %w", err)
	}

	return nil
}
