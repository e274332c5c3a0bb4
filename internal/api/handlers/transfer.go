package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/watchnarr/internal/watchlist"
)

// maxImportSize caps import documents at 8 MiB
const maxImportSize = 8 << 20

// TransferHandler serves watchlist export and import
type TransferHandler struct {
	watchlist *watchlist.Store
	logger    *logrus.Logger
}

// NewTransferHandler creates a new export/import handler
func NewTransferHandler(wl *watchlist.Store, logger *logrus.Logger) *TransferHandler {
	return &TransferHandler{watchlist: wl, logger: logger}
}

// Export serves the watchlist document
func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := h.watchlist.Export()
	if err != nil {
		h.logger.WithError(err).Error("Export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="watchlist.json"`)
	w.Write(data)
}

// Import replaces the watchlist from an uploaded document
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	count, err := h.watchlist.Import(data)
	if err != nil {
		if errors.Is(err, watchlist.ErrInvalidImport) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.WithError(err).Error("Import failed")
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}
