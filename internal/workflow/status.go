package workflow

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Stage identifies one step of the workflow.
type Stage string

const (
	StageProject  Stage = "project"
	StageUpload   Stage = "upload"
	StageGenerate Stage = "generate"
)

// Stages lists the workflow steps in order.
var Stages = []Stage{StageProject, StageUpload, StageGenerate}

// Title returns the human label of the stage.
func (s Stage) Title() string {
	switch s {
	case StageProject:
		return "Create a Project"
	case StageUpload:
		return "Upload Requirements Document"
	case StageGenerate:
		return "Generate Requirements"
	default:
		return string(s)
	}
}

// State is the tag of a StageStatus.
type State string

const (
	stateIdle    = "idle"
	stateLoading = "loading"
	stateSuccess = "success"
	stateError   = "error"
)

const (
	Idle    State = stateIdle
	Loading State = stateLoading
	Success State = stateSuccess
	Error   State = stateError
)

const (
	eventSubmit  = "SUBMIT"
	eventSucceed = "SUCCEED"
	eventFail    = "FAIL"
	eventReject  = "REJECT"
)

var (
	// ErrStageLocked is returned when a stage is used before the data it
	// depends on exists.
	ErrStageLocked = errors.New("stage is not reachable yet")

	// ErrStageBusy is returned when a stage is submitted while its previous
	// submission is still loading.
	ErrStageBusy = errors.New("stage is already loading")

	// ErrStaleProject is returned when a stage result arrives for a project
	// that is no longer the active one.
	ErrStaleProject = errors.New("active project changed")

	errInvalidTransition = errors.New("invalid stage transition")
)

// Status is the observable state of one stage.
type Status struct {
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
}

// IsLoading reports whether a call for the stage is in flight.
func (s Status) IsLoading() bool { return s.State == Loading }

type stageContext struct {
	Stage Stage
}

// stageMachine drives Idle -> Loading -> {Success, Error}. A new submission
// from Success or Error goes back to Loading; a local validation failure goes
// straight to Error without a call.
type stageMachine struct {
	interpreter *statekit.Interpreter[stageContext]
	message     string
}

func newStageMachine(stage Stage, initial State, message string) (*stageMachine, error) {
	builder := statekit.NewMachine[stageContext]("stage-machine").
		WithInitial(statekit.StateID(initial)).
		WithContext(stageContext{Stage: stage})

	builder.State(stateIdle).
		On(eventSubmit).Target(stateLoading).
		On(eventReject).Target(stateError).
		Done()

	builder.State(stateLoading).
		On(eventSucceed).Target(stateSuccess).
		On(eventFail).Target(stateError).
		Done()

	builder.State(stateSuccess).
		On(eventSubmit).Target(stateLoading).
		On(eventReject).Target(stateError).
		Done()

	builder.State(stateError).
		On(eventSubmit).Target(stateLoading).
		On(eventReject).Target(stateError).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s state machine: %w", stage, err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &stageMachine{interpreter: interpreter, message: message}, nil
}

func (m *stageMachine) current() State {
	return State(m.interpreter.State().Value)
}

func (m *stageMachine) status() Status {
	return Status{State: m.current(), Message: m.message}
}

// fire sends event and checks that the machine landed on want. Only REJECT
// may leave the state unchanged (Error -> Error).
func (m *stageMachine) fire(event string, want State, message string) error {
	before := m.current()
	if before == Loading && event == eventSubmit {
		return ErrStageBusy
	}

	m.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := m.current()

	if after != want || (before == after && event != eventReject) {
		if before == Loading {
			return ErrStageBusy
		}
		return fmt.Errorf("%w: %s from %s", errInvalidTransition, event, before)
	}

	m.message = message
	return nil
}
