package workflow

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"sdlc-flow/internal/logging"
	"sdlc-flow/internal/models"
)

// Observer is notified after every stage status change. It is called
// without the workflow lock held.
type Observer func(stage Stage, status Status)

// Workflow is the state shared by the stage controllers: the active project,
// the document uploaded for it, the last generation result and one status
// machine per stage.
type Workflow struct {
	mu        sync.Mutex
	sessionID string
	project   *models.Project
	document  *models.UploadedDocument
	result    *models.GenerationResult
	stages    map[Stage]*stageMachine
	observer  Observer
	log       *logging.Logger
}

// New creates an empty workflow with a fresh session id.
func New() (*Workflow, error) {
	return newWorkflow(uuid.NewString(), nil)
}

func newWorkflow(sessionID string, statuses map[Stage]Status) (*Workflow, error) {
	w := &Workflow{
		sessionID: sessionID,
		stages:    make(map[Stage]*stageMachine, len(Stages)),
	}
	for _, stage := range Stages {
		status := statuses[stage]
		if status.State == "" {
			status.State = Idle
		}
		m, err := newStageMachine(stage, status.State, status.Message)
		if err != nil {
			return nil, err
		}
		w.stages[stage] = m
	}
	return w, nil
}

// SessionID identifies this workflow across invocations.
func (w *Workflow) SessionID() string {
	return w.sessionID
}

// SetObserver registers the status change callback.
func (w *Workflow) SetObserver(observer Observer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observer = observer
}

// SetLogger enables debug logging of transitions.
func (w *Workflow) SetLogger(log *logging.Logger) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.log = log
}

// Project returns the active project.
func (w *Workflow) Project() (models.Project, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.project == nil {
		return models.Project{}, false
	}
	return *w.project, true
}

// Document returns the document uploaded for the active project.
func (w *Workflow) Document() (models.UploadedDocument, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.document == nil {
		return models.UploadedDocument{}, false
	}
	return *w.document, true
}

// Result returns the last generation result.
func (w *Workflow) Result() (models.GenerationResult, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.result == nil {
		return models.GenerationResult{}, false
	}
	return *w.result, true
}

// SetProject makes p the active project. The uploaded document and the
// generation result belong to the previous project and are dropped, and the
// downstream stages go back to Idle unless a call is in flight for them.
func (w *Workflow) SetProject(p models.Project) error {
	w.mu.Lock()
	w.project = &p
	w.document = nil
	w.result = nil

	var changed []Stage
	for _, stage := range []Stage{StageUpload, StageGenerate} {
		reset, err := w.resetLocked(stage)
		if err != nil {
			w.mu.Unlock()
			return err
		}
		if reset {
			changed = append(changed, stage)
		}
	}
	w.log.Printf("workflow: active project %s (%s)", p.ID, p.Name)
	w.mu.Unlock()

	for _, stage := range changed {
		w.notify(stage)
	}
	return nil
}

// resetLocked puts stage back to Idle unless it is loading or already idle.
func (w *Workflow) resetLocked(stage Stage) (bool, error) {
	m := w.stages[stage]
	if m.current() == Loading || m.current() == Idle {
		return false, nil
	}
	fresh, err := newStageMachine(stage, Idle, "")
	if err != nil {
		return false, err
	}
	w.stages[stage] = fresh
	return true, nil
}

// SetDocument stores the document uploaded for project. It fails with
// ErrStaleProject when project is no longer the active one. The first
// document of a project opens the generation stage at Idle.
func (w *Workflow) SetDocument(project models.Project, doc models.UploadedDocument) error {
	w.mu.Lock()
	if w.project == nil {
		w.mu.Unlock()
		return ErrStageLocked
	}
	if w.project.ID != project.ID {
		w.mu.Unlock()
		return ErrStaleProject
	}

	first := w.document == nil
	w.document = &doc
	w.log.Printf("workflow: document %q stored for project %s", doc.Name, project.ID)

	reset := false
	if first {
		var err error
		if reset, err = w.resetLocked(StageGenerate); err != nil {
			w.mu.Unlock()
			return err
		}
	}
	w.mu.Unlock()

	if reset {
		w.notify(StageGenerate)
	}
	return nil
}

// IsActive reports whether project is still the active project.
func (w *Workflow) IsActive(project models.Project) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.project != nil && w.project.ID == project.ID
}

// SetResult stores the generation result produced for project.
func (w *Workflow) SetResult(project models.Project, result models.GenerationResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.project == nil {
		return ErrStageLocked
	}
	if w.project.ID != project.ID {
		return ErrStaleProject
	}
	if w.document == nil {
		return ErrStageLocked
	}
	w.result = &result
	return nil
}

// ClearResult drops the last generation result.
func (w *Workflow) ClearResult() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.result = nil
}

// Reachable reports whether the inputs of stage exist.
func (w *Workflow) Reachable(stage Stage) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reachable(stage)
}

func (w *Workflow) reachable(stage Stage) bool {
	switch stage {
	case StageProject:
		return true
	case StageUpload:
		return w.project != nil
	case StageGenerate:
		return w.project != nil && w.document != nil
	default:
		return false
	}
}

// Next returns the furthest stage that is reachable.
func (w *Workflow) Next() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	next := StageProject
	for _, stage := range Stages {
		if w.reachable(stage) {
			next = stage
		}
	}
	return next
}

// Status returns the current status of stage.
func (w *Workflow) Status(stage Stage) Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	m, ok := w.stages[stage]
	if !ok {
		return Status{State: Idle}
	}
	return m.status()
}

// Begin moves stage to Loading before its first call is issued.
func (w *Workflow) Begin(stage Stage, message string) error {
	return w.transition(stage, eventSubmit, Loading, message, true)
}

// Progress updates the message of a loading stage.
func (w *Workflow) Progress(stage Stage, message string) error {
	w.mu.Lock()
	m, ok := w.stages[stage]
	if !ok || m.current() != Loading {
		w.mu.Unlock()
		return fmt.Errorf("%w: progress on %s outside loading", errInvalidTransition, stage)
	}
	m.message = message
	w.log.Printf("workflow: %s progress: %s", stage, message)
	w.mu.Unlock()

	w.notify(stage)
	return nil
}

// Succeed resolves a loading stage successfully.
func (w *Workflow) Succeed(stage Stage, message string) error {
	return w.transition(stage, eventSucceed, Success, message, false)
}

// Fail resolves a loading stage with a remote failure.
func (w *Workflow) Fail(stage Stage, message string) error {
	return w.transition(stage, eventFail, Error, message, false)
}

// Reject reports a local validation error; no call has been issued.
func (w *Workflow) Reject(stage Stage, message string) error {
	return w.transition(stage, eventReject, Error, message, true)
}

func (w *Workflow) transition(stage Stage, event string, want State, message string, gated bool) error {
	w.mu.Lock()
	m, ok := w.stages[stage]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("unknown stage %q", stage)
	}
	if gated && !w.reachable(stage) {
		w.mu.Unlock()
		return ErrStageLocked
	}
	if err := m.fire(event, want, message); err != nil {
		w.mu.Unlock()
		return err
	}
	w.log.Printf("workflow: %s -> %s: %s", stage, want, message)
	w.mu.Unlock()

	w.notify(stage)
	return nil
}

func (w *Workflow) notify(stage Stage) {
	w.mu.Lock()
	observer := w.observer
	status := w.stages[stage].status()
	w.mu.Unlock()

	if observer != nil {
		observer(stage, status)
	}
}
