package server

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"

	"github.com/iboito/dividenden-dashboard/internal/modules/analysis"
	"github.com/iboito/dividenden-dashboard/internal/modules/overrides"
	"github.com/iboito/dividenden-dashboard/internal/modules/universe"
)

// analysisRequest is the POST /api/analysis body
type analysisRequest struct {
	Tickers string `json:"tickers"`
}

// analysisResponse is the analysis result payload
type analysisResponse struct {
	Records []analysis.DisplayRecord `json:"records"`
	Summary analysis.Summary         `json:"summary"`
}

// handleRunAnalysis runs the engine for a comma-separated ticker list
func (s *Server) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tickers := universe.ParseTickers(req.Tickers)
	if len(tickers) == 0 {
		s.writeError(w, http.StatusBadRequest, "at least one ticker is required (e.g. SAP.DE, MSFT, O, IMB.L)")
		return
	}

	for _, ticker := range tickers {
		if universe.LooksLikeWKN(ticker) {
			s.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("'%s' looks like a WKN; please enter tickers only (e.g. SAP.DE, MSFT, O, IMB.L)", ticker))
			return
		}
		if universe.LooksLikeISIN(ticker) {
			s.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("'%s' looks like an ISIN; please enter tickers only (e.g. SAP.DE, MSFT, O, IMB.L)", ticker))
			return
		}
	}

	s.runMu.Lock()
	records := s.analysis.Run(tickers)
	s.runMu.Unlock()

	summary := analysis.Summarize(records)

	if _, err := s.snapshots.Save(tickers, records, summary); err != nil {
		s.log.Error().Err(err).Msg("Failed to persist analysis snapshot")
	}

	s.writeJSON(w, http.StatusOK, analysisResponse{
		Records: displayRecords(records, s.analysis.TargetCurrency()),
		Summary: summary,
	})
}

// handleLatestSnapshot returns the most recent stored run
func (s *Server) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.snapshots.Latest()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load latest snapshot")
		s.writeError(w, http.StatusInternalServerError, "failed to load latest snapshot")
		return
	}
	if snapshot == nil {
		s.writeError(w, http.StatusNotFound, "no analysis has been run yet")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"created_at": snapshot.CreatedAt,
		"tickers":    snapshot.Tickers,
		"records":    displayRecords(snapshot.Records, s.analysis.TargetCurrency()),
		"summary":    snapshot.Summary,
	})
}

// handleExportCSV exports the latest run as a semicolon-separated CSV
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.snapshots.Latest()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load latest snapshot")
		s.writeError(w, http.StatusInternalServerError, "failed to load latest snapshot")
		return
	}
	if snapshot == nil {
		s.writeError(w, http.StatusNotFound, "no analysis has been run yet")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="dividendenrendite_%s.csv"`, snapshot.CreatedAt.Format("2006-01-02_15-04-05")))

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	header := []string{"Unternehmen", "Ticker", "Kurs", "Jahresdividende", "Dividendenrendite (%)", "Veränderung T/W/M/J", "Stand"}
	if err := cw.Write(header); err != nil {
		s.log.Error().Err(err).Msg("Failed to write CSV header")
		return
	}

	for _, record := range snapshot.Records {
		d := record.Display(s.analysis.TargetCurrency())
		row := []string{d.Name, d.Symbol, d.Price, d.Dividend, d.Yield, d.Changes, d.Timestamp}
		if err := cw.Write(row); err != nil {
			s.log.Error().Err(err).Msg("Failed to write CSV row")
			return
		}
	}

	cw.Flush()
}

// overrideRequest is the PUT /api/overrides/{ticker} body
type overrideRequest struct {
	Value string `json:"value"`
}

// handleListOverrides returns the current override mapping
func (s *Server) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.overrides.Snapshot())
}

// handleSetOverride records a manual dividend for a ticker. An empty value
// removes the entry, mirroring the dialog behavior.
func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	ticker := universe.NormalizeTicker(chi.URLParam(r, "ticker"))

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.overrides.Set(ticker, req.Value); err != nil {
		if errors.Is(err, overrides.ErrInvalidValue) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to persist override")
		s.writeError(w, http.StatusInternalServerError, "failed to persist override")
		return
	}

	s.writeJSON(w, http.StatusOK, s.overrides.Snapshot())
}

// handleRemoveOverride deletes one override
func (s *Server) handleRemoveOverride(w http.ResponseWriter, r *http.Request) {
	ticker := universe.NormalizeTicker(chi.URLParam(r, "ticker"))

	if err := s.overrides.Set(ticker, ""); err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to persist override removal")
		s.writeError(w, http.StatusInternalServerError, "failed to persist override removal")
		return
	}

	s.writeJSON(w, http.StatusOK, s.overrides.Snapshot())
}

// handleClearOverrides deletes all overrides and the persisted file
func (s *Server) handleClearOverrides(w http.ResponseWriter, r *http.Request) {
	if err := s.overrides.Clear(); err != nil {
		s.log.Error().Err(err).Msg("Failed to clear overrides")
		s.writeError(w, http.StatusInternalServerError, "failed to clear overrides")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "dividenden-dashboard",
	})
}

// handleSystemStatus handles system status requests
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "running",
		"memory": map[string]interface{}{
			"alloc_mb":       m.Alloc / 1024 / 1024,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"num_gc":         m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	})
}

// displayRecords renders records for the API response
func displayRecords(records []analysis.ResolvedRecord, targetCurrency string) []analysis.DisplayRecord {
	out := make([]analysis.DisplayRecord, len(records))
	for i, r := range records {
		out[i] = r.Display(targetCurrency)
	}
	return out
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
