// Package api exposes persisted consensus runs over HTTP: run listings,
// score rows as JSON, and rendered charts.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/annolab-data/consensus.report/internal/consensus"
	"github.com/annolab-data/consensus.report/internal/report"
	"github.com/annolab-data/consensus.report/internal/storage/sqlite"
)

// Server serves consensus reports from a run store.
type Server struct {
	store *sqlite.Store
}

// NewServer creates a report server over the given store.
func NewServer(store *sqlite.Store) *Server {
	return &Server{store: store}
}

// ServeMux returns the route table for the server.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/runs", s.listRuns)
	mux.HandleFunc("/scores", s.listScores)
	mux.HandleFunc("/plots/box-by-creator", s.plotHandler(report.RenderScoreBoxByCreator))
	mux.HandleFunc("/plots/box-by-folder", s.plotHandler(report.RenderScoreBoxByFolder))
	mux.HandleFunc("/plots/scatter", s.plotHandler(report.RenderScoreScatter))
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Annotation consensus report server. See /runs.\n"))
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	runs, err := s.store.ListRuns()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "failed to list runs: "+err.Error())
		return
	}
	if runs == nil {
		runs = []*sqlite.Run{}
	}
	s.writeJSON(w, runs)
}

func (s *Server) listScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rows, ok := s.scoresForRequest(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, rows)
}

// plotHandler adapts a report renderer into an HTTP handler that looks up
// the requested run's scores and streams the rendered chart.
func (s *Server) plotHandler(render func(io.Writer, []consensus.ScoreRow) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		rows, ok := s.scoresForRequest(w, r)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := render(w, rows); err != nil {
			log.Printf("failed to render plot: %v", err)
		}
	}
}

// scoresForRequest resolves the run query parameter to its score rows,
// writing the error response itself when the lookup fails.
func (s *Server) scoresForRequest(w http.ResponseWriter, r *http.Request) ([]consensus.ScoreRow, bool) {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "missing run parameter")
		return nil, false
	}
	if _, err := s.store.GetRun(runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeJSONError(w, http.StatusNotFound, "no such run")
		} else {
			s.writeJSONError(w, http.StatusInternalServerError, "failed to load run: "+err.Error())
		}
		return nil, false
	}
	rows, err := s.store.Scores(runID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "failed to load scores: "+err.Error())
		return nil, false
	}
	return rows, true
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
