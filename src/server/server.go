package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"riskwatch/src/model"
)

// PositionReader serves the current position set. Backed by the read-only
// database connection so dashboard reads never contend with the writer.
type PositionReader interface {
	FindAll(ctx context.Context) ([]model.Position, error)
}

// AlertReader serves the active alert set.
type AlertReader interface {
	FindActive(ctx context.Context) ([]model.Alert, error)
}

// SnapshotReader serves the newest portfolio snapshot.
type SnapshotReader interface {
	Latest(ctx context.Context) (*model.PortfolioSnapshot, error)
}

// LedgerReader serves recent cycle summaries.
type LedgerReader interface {
	Tail(ctx context.Context, limit int) ([]model.LedgerEntry, error)
}

// Server exposes the read-only status API plus the websocket push channel.
type Server struct {
	cfg       *Config
	positions PositionReader
	alerts    AlertReader
	snapshots SnapshotReader
	ledger    LedgerReader
	hub       *Hub
}

func NewServer(cfg *Config, positions PositionReader, alerts AlertReader, snapshots SnapshotReader, ledger LedgerReader, hub *Hub) *Server {
	return &Server{
		cfg:       cfg,
		positions: positions,
		alerts:    alerts,
		snapshots: snapshots,
		ledger:    ledger,
		hub:       hub,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthcheck", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("/healthcheck write error")
		}
	})

	r.Get("/api/positions", s.handlePositions)
	r.Get("/api/alerts", s.handleAlerts)
	r.Get("/api/portfolio/latest", s.handlePortfolioLatest)
	r.Get("/api/ledger", s.handleLedger)

	if s.hub != nil {
		r.Get("/ws", s.hub.HandleWS)
	}

	return r
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if s.hub != nil {
		go s.hub.Run(ctx)
	}

	addr := ":" + s.cfg.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown error")
		return err
	}
	return nil
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.positions.FindAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, positions)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.alerts.FindActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, alerts)
}

func (s *Server) handlePortfolioLatest(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Latest(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if snap == nil {
		http.Error(w, "no snapshot recorded yet", http.StatusNotFound)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := s.ledger.Tail(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, entries)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Error("response encode error")
	}
}

func writeError(w http.ResponseWriter, err error) {
	logger.WithError(err).Error("request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}
