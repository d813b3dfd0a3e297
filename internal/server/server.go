// Package server exposes the command service over HTTP. This is the stand-in
// for the chat platform: a webhook gateway or bot adapter posts validated
// user input here and relays the rendered responses.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/trade_scribe/internal/bot"
	"github.com/eddiefleurent/trade_scribe/internal/ledger"
	"github.com/eddiefleurent/trade_scribe/internal/render"
	"github.com/eddiefleurent/trade_scribe/internal/storage"
)

// Server is the HTTP command surface.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	service   *bot.Service
	logger    *logrus.Logger
	port      int
	authToken string
}

// Config holds server settings.
type Config struct {
	Port      int
	AuthToken string
}

// NewServer builds the HTTP surface over the command service.
func NewServer(cfg Config, service *bot.Service, logger *logrus.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		service:   service,
		logger:    logger,
		port:      cfg.Port,
		authToken: cfg.AuthToken,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	if s.authToken != "" {
		s.router.Use(s.authMiddleware)
	}

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/trades", s.handleRecordBuy)
		r.Get("/trades", s.handleListTrades)
		r.Delete("/trades", s.handleDeleteAll)
		r.Post("/trades/{id}/sell", s.handleRecordSell)
		r.Delete("/trades/{id}", s.handleDeleteTrade)
		r.Get("/trades/text", s.handleListTradesText)
		r.Get("/stats/daily", s.handleDailyStats)
		r.Get("/summary", s.handleSummary)
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		if token != s.authToken {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Start runs the HTTP server until it fails or Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infof("Starting command server on port %d", s.port)
	return s.server.ListenAndServe()
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRecordBuy(w http.ResponseWriter, r *http.Request) {
	var req bot.BuyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	result, err := s.service.RecordBuy(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleRecordSell(w http.ResponseWriter, r *http.Request) {
	var req bot.SellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	req.TradeID = chi.URLParam(r, "id")

	result, err := s.service.RecordSell(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	var err error
	var trades any
	if r.URL.Query().Get("open") == "1" {
		trades, err = s.service.OpenTrades(userID)
	} else {
		trades, err = s.service.AllTrades(userID)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if err := s.service.DeleteTrade(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	deleted, err := s.service.DeleteUserTrades(userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

func (s *Server) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	daily, err := s.service.DailyStats(userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, daily)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	text, err := s.service.DailySummary(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"summary": text})
}

// writeError maps domain errors onto HTTP statuses: bad input 400, unknown
// id 404, stale revision 409, rejected ledger operations 422.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, bot.ErrValidation),
		errors.Is(err, ledger.ErrInvalidDateFormat),
		errors.Is(err, ledger.ErrInvalidContract):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrOverSell), errors.Is(err, ledger.ErrInvalidMergeState):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	}
	http.Error(w, err.Error(), status)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

// handleListTradesText returns the rendered open-trades listing, the text a
// chat adapter shows for the list command.
func (s *Server) handleListTradesText(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	trades, err := s.service.OpenTrades(userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"text": render.OpenTrades(trades)})
}
