// Package api exposes the matching engine, receipt parser, and expense
// store over a small JSON HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/anduinlabs/expenseflow/internal/match"
	"github.com/anduinlabs/expenseflow/internal/service"
)

// Config holds HTTP server settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible server defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8090",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server wires the application services into HTTP handlers.
type Server struct {
	matcher *match.Matcher
	feed    service.TransactionFeed
	parser  service.ReceiptParser
	storage service.Storage
	logger  *slog.Logger
	httpSrv *http.Server
	config  Config
}

// NewServer creates a server. Any service may be nil; its routes then
// respond 503.
func NewServer(cfg Config, matcher *match.Matcher, feed service.TransactionFeed, parser service.ReceiptParser, storage service.Storage, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default().With("component", "api")
	}

	s := &Server{
		matcher: matcher,
		feed:    feed,
		parser:  parser,
		storage: storage,
		logger:  logger,
		config:  cfg,
	}

	r := mux.NewRouter()
	s.registerRoutes(r)

	s.httpSrv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.logRequests(r),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

func (s *Server) registerRoutes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api.HandleFunc("/calendar/enrich", s.handleEnrich).Methods(http.MethodPost)
	api.HandleFunc("/calendar/match-single", s.handleMatchSingle).Methods(http.MethodPost)

	api.HandleFunc("/receipts/parse", s.handleParseReceipt).Methods(http.MethodPost)
	api.HandleFunc("/brex/expenses", s.handleBrexExpenses).Methods(http.MethodGet)

	api.HandleFunc("/expenses", s.handleListExpenses).Methods(http.MethodGet)
	api.HandleFunc("/expenses", s.handleCreateExpense).Methods(http.MethodPost)
	api.HandleFunc("/expenses/summary", s.handleExpenseSummary).Methods(http.MethodGet)
	api.HandleFunc("/expenses/{id}", s.handleGetExpense).Methods(http.MethodGet)
	api.HandleFunc("/expenses/{id}", s.handleUpdateExpense).Methods(http.MethodPut)
	api.HandleFunc("/expenses/{id}", s.handleDeleteExpense).Methods(http.MethodDelete)

	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleCreateCategory).Methods(http.MethodPost)
}

// ListenAndServe runs the server until ctx is canceled, then drains
// in-flight requests within the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.config.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	}
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
