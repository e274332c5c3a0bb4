package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/watchnarr/internal/stats"
)

// StatsHandler serves watchlist statistics
type StatsHandler struct {
	engine   *stats.Engine
	detailed bool
	logger   *logrus.Logger
}

// NewStatsHandler creates a handler for the coarse summary
func NewStatsHandler(engine *stats.Engine, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{engine: engine, logger: logger}
}

// NewDetailedStatsHandler creates a handler for the four-bucket summary
func NewDetailedStatsHandler(engine *stats.Engine, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{engine: engine, detailed: true, logger: logger}
}

// ServeHTTP handles the statistics endpoints
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.detailed {
		writeJSON(w, http.StatusOK, h.engine.DetailedSummarize(r.Context()))
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Summarize())
}
