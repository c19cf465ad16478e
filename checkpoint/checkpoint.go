// Package checkpoint persists per-(run, benchmark, provider) progress so an
// interrupted run can resume without re-ingesting or re-scoring completed
// items. The in-memory bookkeeping mirrors a simple id/state map, with
// durability added as an atomic write-temp-then-rename.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ItemStatus is the state of one benchmark item within a (benchmark,
// provider) pair.
type ItemStatus string

const (
	StatusPending    ItemStatus = "pending"
	StatusInProgress ItemStatus = "in_progress"
	StatusComplete   ItemStatus = "complete"
	StatusFailed     ItemStatus = "failed"
)

// State is the on-disk representation of one (run, benchmark, provider)
// pair's progress.
type State struct {
	RunID      string                `json:"run_id"`
	Benchmark  string                `json:"benchmark"`
	Provider   string                `json:"provider"`
	Items      map[string]ItemStatus `json:"items"`
	UpdatedAt  time.Time             `json:"updated_at"`
	IngestDone bool                  `json:"ingest_done"`
}

// Manager loads, mutates, and atomically persists a single pair's State. It
// is not safe for concurrent use by more than one Manager instance against
// the same file, but is safe for concurrent method calls on itself.
type Manager struct {
	mu   sync.Mutex
	dir  string
	path string
	state *State
}

// NewManager returns a Manager rooted at baseDir, for the given run,
// benchmark, and provider. The backing file is
// "{baseDir}/{runID}/{benchmark}-{provider}.json".
func NewManager(baseDir, runID, benchmark, provider string) *Manager {
	dir := filepath.Join(baseDir, runID)
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", benchmark, provider))
	return &Manager{
		dir:  dir,
		path: path,
		state: &State{
			RunID:     runID,
			Benchmark: benchmark,
			Provider:  provider,
			Items:     make(map[string]ItemStatus),
		},
	}
}

// LoadOrCreate reads the checkpoint file if it exists, leaving a fresh empty
// State in place otherwise. It is safe to call more than once; each call
// re-reads the file and replaces the in-memory State with its contents.
func (m *Manager) LoadOrCreate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checkpoint: read %s: %w", m.path, err)
	}
	var loaded State
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return fmt.Errorf("checkpoint: parse %s: %w", m.path, err)
	}
	if loaded.Items == nil {
		loaded.Items = make(map[string]ItemStatus)
	}
	m.state = &loaded
	return nil
}

// ShouldSkip reports whether itemID has already completed and therefore
// should not be re-run.
func (m *Manager) ShouldSkip(itemID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Items[itemID] == StatusComplete
}

// MarkInProgress records that itemID has started processing.
func (m *Manager) MarkInProgress(itemID string) error {
	return m.setStatus(itemID, StatusInProgress)
}

// MarkComplete records that itemID finished successfully.
func (m *Manager) MarkComplete(itemID string) error {
	return m.setStatus(itemID, StatusComplete)
}

// MarkFailed records that itemID failed; a failed item is still eligible for
// a future retry (ShouldSkip returns false for it).
func (m *Manager) MarkFailed(itemID string) error {
	return m.setStatus(itemID, StatusFailed)
}

// MarkIngestDone records that the INGEST phase for this pair has completed,
// so a resumed run can skip straight to EVALUATE.
func (m *Manager) MarkIngestDone() error {
	m.mu.Lock()
	m.state.IngestDone = true
	m.mu.Unlock()
	return m.persist()
}

// IngestDone reports whether the INGEST phase has already completed.
func (m *Manager) IngestDone() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.IngestDone
}

// Snapshot returns a copy of the current state for inspection (e.g. progress
// reporting).
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make(map[string]ItemStatus, len(m.state.Items))
	for k, v := range m.state.Items {
		items[k] = v
	}
	cp := *m.state
	cp.Items = items
	return cp
}

func (m *Manager) setStatus(itemID string, status ItemStatus) error {
	m.mu.Lock()
	m.state.Items[itemID] = status
	m.mu.Unlock()
	return m.persist()
}

// persist writes the current state to disk atomically: it writes to a
// temp file in the same directory, then renames over the target path so a
// crash mid-write never leaves a truncated checkpoint. Caller must not hold
// m.mu.
func (m *Manager) persist() error {
	m.mu.Lock()
	m.state.UpdatedAt = time.Now()
	raw, err := json.MarshalIndent(m.state, "", "  ")
	path := m.path
	dir := m.dir
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("checkpoint: marshal: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("checkpoint: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("checkpoint: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("checkpoint: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("checkpoint: close temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("checkpoint: rename: %w", err)
	}
	return nil
}
