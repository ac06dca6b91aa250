package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/moasq/distcheck/internal/smoke"
)

const runsFile = "runs.json"

// RunStore keeps recent smoke reports in a local JSON file.
type RunStore struct {
	mu    sync.Mutex
	dir   string // .distcheck/ directory
	limit int    // 0 keeps every run
}

// NewRunStore creates a run store at the given directory.
func NewRunStore(dir string, limit int) *RunStore {
	return &RunStore{dir: dir, limit: limit}
}

func (s *RunStore) filePath() string {
	return filepath.Join(s.dir, runsFile)
}

// Append adds a report, dropping the oldest ones beyond the limit.
func (s *RunStore) Append(report *smoke.Report) error {
	if report == nil {
		return fmt.Errorf("cannot store nil report")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.readUnsafe()
	if err != nil {
		reports = nil // Start fresh if file is corrupted
	}

	reports = append(reports, *report)
	if s.limit > 0 && len(reports) > s.limit {
		reports = reports[len(reports)-s.limit:]
	}

	return s.writeUnsafe(reports)
}

// List returns all stored reports, oldest first.
func (s *RunStore) List() ([]smoke.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readUnsafe()
}

// Recent returns the last n reports, oldest first.
func (s *RunStore) Recent(n int) ([]smoke.Report, error) {
	reports, err := s.List()
	if err != nil {
		return nil, err
	}

	if n <= 0 || len(reports) <= n {
		return reports, nil
	}
	return reports[len(reports)-n:], nil
}

// Last returns the most recent report, or nil when there is none.
func (s *RunStore) Last() (*smoke.Report, error) {
	reports, err := s.Recent(1)
	if err != nil || len(reports) == 0 {
		return nil, err
	}
	return &reports[0], nil
}

// Clear removes all reports.
func (s *RunStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeUnsafe(nil)
}

func (s *RunStore) readUnsafe() ([]smoke.Report, error) {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read run history: %w", err)
	}

	var reports []smoke.Report
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("failed to parse run history: %w", err)
	}
	return reports, nil
}

func (s *RunStore) writeUnsafe(reports []smoke.Report) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run history: %w", err)
	}

	return os.WriteFile(s.filePath(), data, 0o644)
}
