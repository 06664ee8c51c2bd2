package eventlog

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/kilianp07/fieldsim/core/model"
)

// JSONLStore stores events in a single JSONL file.
type JSONLStore struct {
	path string
	mu   sync.Mutex
}

func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &JSONLStore{path: path}, nil
}

func (s *JSONLStore) Append(ctx context.Context, ev model.SimulationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return json.NewEncoder(f).Encode(ev)
}

func (s *JSONLStore) Query(ctx context.Context, q Query) ([]model.SimulationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return scanEvents(f, q, nil)
}

func (s *JSONLStore) Close() error { return nil }

// scanEvents decodes one event per line and appends the matching ones to out.
// Malformed lines are skipped.
func scanEvents(r io.Reader, q Query, out []model.SimulationEvent) ([]model.SimulationEvent, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var ev model.SimulationEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		if q.Matches(ev) {
			out = append(out, ev)
		}
	}
	return out, scanner.Err()
}
