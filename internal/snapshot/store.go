package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/sgerhart/aegisrange/internal/model"
)

// Store persists the minimal session snapshot to a JSON file. Persistence is
// strictly best-effort: read and write failures are logged and resolved with
// defaults, never surfaced as fatal.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a snapshot store writing to path. An empty path disables
// persistence entirely (Load reports no snapshot, Save is a no-op).
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// Save writes the snapshot atomically (temp file + rename).
func (s *Store) Save(snap model.Snapshot) error {
	if s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	return nil
}

// Load reads the persisted snapshot. The second return value reports whether
// a usable snapshot was found; absent or malformed files return (zero, false)
// after logging. Decoding into the Snapshot struct drops any keys outside the
// persisted allow-list.
func (s *Store) Load() (model.Snapshot, bool) {
	if s.path == "" {
		return model.Snapshot{}, false
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Failed to read snapshot, using defaults", "path", s.path, "error", err)
		}
		return model.Snapshot{}, false
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("Malformed snapshot, using defaults", "path", s.path, "error", err)
		return model.Snapshot{}, false
	}

	return snap, true
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}
