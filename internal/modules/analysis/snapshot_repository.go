package analysis

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iboito/dividenden-dashboard/internal/database"
)

// Snapshot is one persisted analysis run
type Snapshot struct {
	ID        int64            `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Tickers   []string         `json:"tickers"`
	Records   []ResolvedRecord `json:"records"`
	Summary   Summary          `json:"summary"`
}

// SnapshotRepository persists analysis runs
type SnapshotRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewSnapshotRepository creates a snapshot repository
func NewSnapshotRepository(db *database.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:  db,
		log: log.With().Str("component", "snapshot_repository").Logger(),
	}
}

// Save stores a completed run and returns its id
func (r *SnapshotRepository) Save(tickers []string, records []ResolvedRecord, summary Summary) (int64, error) {
	recordsJSON, err := json.Marshal(records)
	if err != nil {
		return 0, fmt.Errorf("failed to encode records: %w", err)
	}

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return 0, fmt.Errorf("failed to encode summary: %w", err)
	}

	result, err := r.db.Exec(
		`INSERT INTO analysis_snapshots (created_at, tickers, records_json, summary_json) VALUES (?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339),
		strings.Join(tickers, ","),
		string(recordsJSON),
		string(summaryJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get snapshot id: %w", err)
	}

	r.log.Debug().Int64("id", id).Int("records", len(records)).Msg("Saved analysis snapshot")
	return id, nil
}

// Latest returns the most recent snapshot, or nil when none exists
func (r *SnapshotRepository) Latest() (*Snapshot, error) {
	row := r.db.QueryRow(`
		SELECT id, created_at, tickers, records_json, summary_json
		FROM analysis_snapshots
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`)

	var (
		snapshot    Snapshot
		createdAt   string
		tickers     string
		recordsJSON string
		summaryJSON string
	)

	err := row.Scan(&snapshot.ID, &createdAt, &tickers, &recordsJSON, &summaryJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	snapshot.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot timestamp: %w", err)
	}

	if tickers != "" {
		snapshot.Tickers = strings.Split(tickers, ",")
	}

	if err := json.Unmarshal([]byte(recordsJSON), &snapshot.Records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	if err := json.Unmarshal([]byte(summaryJSON), &snapshot.Summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}

	return &snapshot, nil
}
