package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"papermirror/internal/shared/logger"
	"papermirror/internal/shared/types"
	"papermirror/proxypool/scorer"
)

// ListSuffix is appended to the config file's base name to form the
// companion diagnostic file, e.g. proxy.json -> proxy_list.json.
const ListSuffix = "_list.json"

// Snapshot is the diagnostic record of one discovery run: every working
// candidate in ranked order, when the run happened and which source fed it.
type Snapshot struct {
	Working   []scorer.Scored `json:"working"`
	Timestamp int64           `json:"timestamp"`
	Source    string          `json:"source"`
	RunID     string          `json:"run_id,omitempty"`
}

// Store persists the outcome of a discovery run.
type Store interface {
	SaveChoice(entry *types.ProxyEntry) error
	SaveSnapshot(snap *Snapshot) error
}

// FileStore implements Store on top of two JSON files next to each other.
type FileStore struct {
	path string // proxy config file; the snapshot path derives from it
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// SaveChoice writes the selected proxy as the active configuration.
func (fs *FileStore) SaveChoice(entry *types.ProxyEntry) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	l := logger.WithComponent("ProxyPool/Storage")

	if err := os.MkdirAll(filepath.Dir(fs.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal proxy entry: %w", err)
	}
	if err := os.WriteFile(fs.path, data, 0644); err != nil {
		return err
	}

	l.Info().Str("path", fs.path).Str("proxy", fmt.Sprintf("%s:%d", entry.Addr, entry.Port)).Msg("Saved active proxy choice.")
	return nil
}

// SaveSnapshot writes the ranked-candidate diagnostic file.
func (fs *FileStore) SaveSnapshot(snap *Snapshot) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	l := logger.WithComponent("ProxyPool/Storage")

	if snap.Timestamp == 0 {
		snap.Timestamp = time.Now().Unix()
	}

	path := SnapshotPath(fs.path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	l.Info().Str("path", path).Int("working", len(snap.Working)).Msg("Saved discovery snapshot.")
	return nil
}

// SnapshotPath derives the diagnostic file path from the config file path.
func SnapshotPath(configPath string) string {
	ext := filepath.Ext(configPath)
	return strings.TrimSuffix(configPath, ext) + ListSuffix
}
