package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/amaumene/watchnarr/internal/api/handlers"
	"github.com/amaumene/watchnarr/internal/api/middleware"
	"github.com/amaumene/watchnarr/internal/config"
	"github.com/amaumene/watchnarr/internal/ledger"
	"github.com/amaumene/watchnarr/internal/progress"
	"github.com/amaumene/watchnarr/internal/services/tmdb"
	"github.com/amaumene/watchnarr/internal/stats"
	"github.com/amaumene/watchnarr/internal/watchlist"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	logger *logrus.Logger
}

// NewServer creates a new HTTP server. catalog may be nil when no API
// key is configured; catalog-backed endpoints then degrade gracefully.
func NewServer(
	cfg *config.Config,
	wl *watchlist.Store,
	led *ledger.Ledger,
	aggregator *progress.Aggregator,
	engine *stats.Engine,
	catalog *tmdb.Client,
	logger *logrus.Logger,
) *Server {
	s := &Server{logger: logger}

	mux := http.NewServeMux()
	s.setupRoutes(mux, wl, led, aggregator, engine, catalog)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(
	mux *http.ServeMux,
	wl *watchlist.Store,
	led *ledger.Ledger,
	aggregator *progress.Aggregator,
	engine *stats.Engine,
	catalog *tmdb.Client,
) {
	// Health check
	healthHandler := handlers.NewHealthHandler(s.logger)
	mux.HandleFunc("/health", healthHandler.ServeHTTP)

	// Watchlist CRUD and toggles
	watchlistHandler := handlers.NewWatchlistHandler(wl, catalog, s.logger)
	mux.HandleFunc("/api/watchlist", watchlistHandler.ServeHTTP)
	mux.HandleFunc("/api/watchlist/favourite", handlers.NewFavouriteHandler(wl, s.logger).ServeHTTP)
	mux.HandleFunc("/api/watchlist/completion", handlers.NewCompletionHandler(wl, s.logger).ServeHTTP)

	// Episode progress
	mux.HandleFunc("/api/episodes", handlers.NewEpisodesHandler(led, s.logger).ServeHTTP)
	mux.HandleFunc("/api/episodes/toggle", handlers.NewToggleEpisodeHandler(led, s.logger).ServeHTTP)
	mux.HandleFunc("/api/progress", handlers.NewProgressHandler(wl, aggregator, s.logger).ServeHTTP)

	// Statistics
	mux.HandleFunc("/api/stats", handlers.NewStatsHandler(engine, s.logger).ServeHTTP)
	mux.HandleFunc("/api/stats/detailed", handlers.NewDetailedStatsHandler(engine, s.logger).ServeHTTP)

	// Export / import
	transferHandler := handlers.NewTransferHandler(wl, s.logger)
	mux.HandleFunc("/api/export", transferHandler.Export)
	mux.HandleFunc("/api/import", transferHandler.Import)

	// Catalog search
	mux.HandleFunc("/api/search", handlers.NewSearchHandler(catalog, s.logger).ServeHTTP)

	// Metrics
	mux.Handle("/metrics", promhttp.Handler())
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
