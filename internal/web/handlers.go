package web

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ldelafuente/capacita/internal/engine"
	"github.com/ldelafuente/capacita/internal/logging"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.pool.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleImport accepts a multipart spreadsheet upload and runs one import.
func (s *Server) handleImport(kind engine.ImportKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)
		if err := r.ParseMultipartForm(s.cfg.Import.MaxFileSize); err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large or malformed form")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing form field \"file\"")
			return
		}
		defer file.Close()

		ext := strings.ToLower(filepath.Ext(header.Filename))
		if ext != ".xlsx" && ext != ".xlsm" && ext != ".xls" {
			writeError(w, http.StatusBadRequest, "unsupported file type "+ext+", expected .xlsx")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
		defer cancel()

		// One import at a time; the engine owns a single connection's tx.
		s.importMu.Lock()
		defer s.importMu.Unlock()

		var stats *engine.Stats
		if kind == engine.KindTraining {
			stats, err = s.engine.ImportTrainingReportFrom(ctx, file, header.Filename)
		} else {
			stats, err = s.engine.ImportOrgPlanningFrom(ctx, file, header.Filename)
		}
		if err != nil {
			logging.FromContext(r.Context()).Error("import failed",
				"kind", kind, "file", header.Filename, "error", err)

			var colErr *engine.ColumnDetectionError
			switch {
			case errors.As(err, &colErr):
				writeError(w, http.StatusUnprocessableEntity, colErr.Error())
			case errors.Is(err, engine.ErrDatabase):
				writeError(w, http.StatusInternalServerError, "import failed, run rolled back")
			default:
				writeError(w, http.StatusBadRequest, err.Error())
			}
			return
		}

		writeJSON(w, http.StatusOK, stats)
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	runs, err := engine.ListRuns(r.Context(), s.pool, limit)
	if err != nil {
		logging.FromContext(r.Context()).Error("list runs failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list import runs")
		return
	}
	if runs == nil {
		runs = []engine.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleLastRun(w http.ResponseWriter, r *http.Request) {
	stats := s.engine.LastRun()
	if stats == nil {
		writeError(w, http.StatusNotFound, "no import has run yet")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleLastReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.engine.GenerateReport()))
}
