package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sdlc-flow/internal/helpers"
	"sdlc-flow/internal/models"
)

// Snapshot is the persisted form of a Workflow.
type Snapshot struct {
	SessionID string                   `json:"session_id"`
	Project   *models.Project          `json:"project,omitempty"`
	Document  *models.UploadedDocument `json:"document,omitempty"`
	Result    *models.GenerationResult `json:"result,omitempty"`
	Stages    map[Stage]Status         `json:"stages"`
	SavedAt   time.Time                `json:"saved_at"`
}

// Snapshot captures the current state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		SessionID: w.sessionID,
		Stages:    make(map[Stage]Status, len(w.stages)),
		SavedAt:   time.Now(),
	}
	if w.project != nil {
		p := *w.project
		snap.Project = &p
	}
	if w.document != nil {
		d := *w.document
		snap.Document = &d
	}
	if w.result != nil {
		r := *w.result
		snap.Result = &r
	}
	for stage, m := range w.stages {
		snap.Stages[stage] = m.status()
	}
	return snap
}

// Restore rebuilds a workflow from a snapshot. A stage saved while loading
// was interrupted and comes back Idle; data whose prerequisite is missing is
// dropped.
func Restore(snap Snapshot) (*Workflow, error) {
	sessionID := snap.SessionID
	if sessionID == "" {
		fresh, err := New()
		if err != nil {
			return nil, err
		}
		sessionID = fresh.SessionID()
	}

	statuses := make(map[Stage]Status, len(snap.Stages))
	for stage, status := range snap.Stages {
		switch status.State {
		case Idle, Success, Error:
			statuses[stage] = status
		default:
			statuses[stage] = Status{State: Idle}
		}
	}

	w, err := newWorkflow(sessionID, statuses)
	if err != nil {
		return nil, err
	}

	if snap.Project != nil {
		p := *snap.Project
		w.project = &p
		if snap.Document != nil {
			d := *snap.Document
			w.document = &d
			if snap.Result != nil {
				r := *snap.Result
				w.result = &r
			}
		}
	}
	return w, nil
}

// FileStore keeps the workflow snapshot in a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the session file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the saved workflow, or a new one when nothing is saved yet.
func (s *FileStore) Load() (*Workflow, error) {
	if !helpers.FileExists(s.path) {
		return New()
	}

	var snap Snapshot
	if err := helpers.LoadJSON(s.path, &snap); err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return Restore(snap)
}

// Save writes the workflow snapshot.
func (s *FileStore) Save(w *Workflow) error {
	if err := helpers.EnsureDir(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if err := helpers.SaveJSON(w.Snapshot(), s.path); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Reset deletes the saved session.
func (s *FileStore) Reset() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to reset session: %w", err)
	}
	return nil
}
