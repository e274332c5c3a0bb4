package watchlist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/amaumene/watchnarr/internal/models"
)

// ErrInvalidImport is returned when an import document is not a JSON array
var ErrInvalidImport = errors.New("import document must be a JSON array")

// Export serializes the full collection as a portable JSON array
func (s *Store) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries == nil {
		return []byte("[]"), nil
	}
	return json.MarshalIndent(s.entries, "", "  ")
}

// Import replaces the entire collection with the given document. Only
// the top-level shape is validated; individual entries are decoded
// best-effort and pass through without schema checks, and duplicates
// within the document are kept as-is. Returns the number of entries
// imported.
func (s *Store) Import(data []byte) (int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return 0, ErrInvalidImport
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}

	entries := make([]models.WatchlistEntry, 0, len(raw))
	for _, element := range raw {
		var entry models.WatchlistEntry
		if err := json.Unmarshal(element, &entry); err != nil {
			s.logger.WithError(err).Debug("Importing malformed entry as-is")
		}
		entries = append(entries, entry)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = entries
	s.commitLocked()

	s.logger.WithField("count", len(entries)).Info("Imported watchlist")
	return len(entries), nil
}
