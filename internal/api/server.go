// Package api exposes a completed mining run over HTTP for ad-hoc
// inspection without reopening the CSV.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/blockmarket/miner/internal/market"
	"github.com/blockmarket/miner/internal/store"
)

const defaultListLimit = 100

type Server struct {
	router       *chi.Mux
	port         int
	runID        uuid.UUID
	transactions []market.Transaction
	archive      *store.Store // nil when no database is configured
}

// NewServer serves the given run's transactions. When an archive store
// is provided, ?source=archive lists previously mined runs as well.
func NewServer(port int, runID uuid.UUID, transactions []market.Transaction, archive *store.Store) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:       router,
		port:         port,
		runID:        runID,
		transactions: transactions,
		archive:      archive,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/status", s.status)
	router.Get("/api/v1/transactions", s.list)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"run_id":       s.runID.String(),
		"transactions": len(s.transactions),
		"archive":      s.archive != nil,
		"status":       "complete",
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Query().Get("source") == "archive" {
		if s.archive == nil {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "no archive configured"})
			return
		}
		limit := defaultListLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		txs, err := s.archive.ListTransactions(r.Context(), limit)
		if err != nil {
			slog.Error("failed to list archived transactions", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "archive query failed"})
			return
		}
		w.WriteHeader(http.StatusOK)
		if txs == nil {
			txs = []market.Transaction{}
		}
		json.NewEncoder(w).Encode(txs)
		return
	}

	w.WriteHeader(http.StatusOK)
	txs := s.transactions
	if txs == nil {
		txs = []market.Transaction{}
	}
	json.NewEncoder(w).Encode(txs)
}
