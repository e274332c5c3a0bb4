package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/amaumene/watchnarr/internal/models"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError writes a JSON error body
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// identity reads the (id, mediaType) pair from query parameters
func identity(r *http.Request) (int, models.MediaType, bool) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || id <= 0 {
		return 0, "", false
	}

	mediaType := models.MediaType(r.URL.Query().Get("mediaType"))
	switch mediaType {
	case models.MediaTypeMovie, models.MediaTypeTV, models.MediaTypeAnime:
		return id, mediaType, true
	}
	return 0, "", false
}
