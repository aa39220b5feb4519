// Package store persists RIB state snapshots to a JSON file, atomically
// (temp file + rename), directly grounded on
// client/doublezerod/internal/config.Config.saveLocked. It implements
// ribcore.Checkpointer so a *Store can be wired straight into ribcore.NewRIB;
// Save is fire-and-forget and never returns an error to its caller, matching
// the "optional, best-effort" persistence hook spec.md §5 describes.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/malbeclabs/meshrib/internal/ribcore"
)

// Store writes RIB state snapshots to path.
type Store struct {
	path string
	log  *slog.Logger

	mu sync.Mutex
}

func New(path string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{path: path, log: log}
}

// Save atomically writes state to the configured path. Errors are logged,
// never returned or panicked on — callers invoke this as "go s.Save(state)".
func (s *Store) Save(state *ribcore.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeLocked(state); err != nil {
		s.log.Warn("store: checkpoint write failed", "path", s.path, "error", err)
	}
}

func (s *Store) writeLocked(state *ribcore.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Load reads a previously-saved checkpoint. A missing file is not an error:
// it returns a fresh empty state, since a node's first run never has a
// checkpoint to restore from.
func (s *Store) Load() (*ribcore.State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return ribcore.NewEmptyState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", s.path, err)
	}
	var state ribcore.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", s.path, err)
	}
	if state.Local == nil {
		state.Local = &ribcore.RouteSet[ribcore.LocalRoute]{}
	}
	if state.Internal == nil {
		state.Internal = &ribcore.RouteSet[ribcore.InternalRoute]{}
	}
	if state.Peers == nil {
		state.Peers = &ribcore.RouteSet[ribcore.PeerRecord]{}
	}
	return &state, nil
}
