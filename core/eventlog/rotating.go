package eventlog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kilianp07/fieldsim/core/model"
)

// RotatingJSONLStore stores events in a JSONL file rotated by lumberjack.
type RotatingJSONLStore struct {
	mu     sync.Mutex
	logger *lumberjack.Logger
	path   string
}

// NewRotatingJSONLStore creates a store with rotation options in megabytes and days.
func NewRotatingJSONLStore(path string, maxSizeMB, maxBackups, maxAgeDays int) (*RotatingJSONLStore, error) {
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &RotatingJSONLStore{logger: lj, path: path}, nil
}

// Append writes the event and triggers rotation if needed.
func (s *RotatingJSONLStore) Append(_ context.Context, ev model.SimulationEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.logger.Write(append(b, '\n'))
	return err
}

// Query reads the rotated backups, oldest first, then the active file.
func (s *RotatingJSONLStore) Query(_ context.Context, q Query) ([]model.SimulationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.SimulationEvent
	for _, name := range s.files() {
		f, err := os.Open(name)
		if err != nil {
			continue
		}
		out, err = scanEvents(f, q, out)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// files lists backups named "<name>-<timestamp><ext>" in chronological order
// followed by the active file.
func (s *RotatingJSONLStore) files() []string {
	ext := filepath.Ext(s.path)
	prefix := strings.TrimSuffix(s.path, ext) + "-"
	backups, _ := filepath.Glob(prefix + "*" + ext)
	sort.Strings(backups)
	return append(backups, s.path)
}

// Close closes the underlying writer.
func (s *RotatingJSONLStore) Close() error {
	return s.logger.Close()
}
