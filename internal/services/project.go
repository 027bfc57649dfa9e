package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"sdlc-flow/internal/models"
	"sdlc-flow/internal/repositories"
	"sdlc-flow/internal/workflow"
)

// ProjectCreator is the controller of the project creation stage
type ProjectCreator struct {
	flow   *workflow.Workflow
	caller repositories.Caller
	routes Routes

	mu   sync.Mutex
	name string
}

// NewProjectCreator creates a new project creation controller
func NewProjectCreator(flow *workflow.Workflow, caller repositories.Caller, routes Routes) *ProjectCreator {
	return &ProjectCreator{flow: flow, caller: caller, routes: routes}
}

// SetName sets the project name input
func (c *ProjectCreator) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// Name returns the project name input
func (c *ProjectCreator) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

// Submit creates a project from the name input, sent as typed. On success
// the project becomes the active one and the input is cleared. Validation
// and remote failures end up in the stage status; the returned error is only
// set when the stage could not be entered.
func (c *ProjectCreator) Submit(ctx context.Context) (workflow.Status, error) {
	name := c.Name()
	if strings.TrimSpace(name) == "" {
		return reject(c.flow, workflow.StageProject, MsgEnterProjectName)
	}

	if err := c.flow.Begin(workflow.StageProject, MsgCreatingProject); err != nil {
		return c.flow.Status(workflow.StageProject), err
	}

	payload, err := c.caller.Call(ctx, http.MethodPost, c.routes.CreateProject(), models.CreateProjectRequest{Name: name})
	if err != nil {
		return fail(c.flow, workflow.StageProject, repositories.FailureMessage(err, MsgUnexpected))
	}

	project, err := repositories.Decode[models.Project](payload)
	if err != nil || project.ID == "" {
		return fail(c.flow, workflow.StageProject, MsgUnexpected)
	}

	if err := c.flow.SetProject(*project); err != nil {
		return fail(c.flow, workflow.StageProject, MsgUnexpected)
	}

	c.SetName("")
	return succeed(c.flow, workflow.StageProject, fmt.Sprintf(msgProjectCreatedFmt, project.Name))
}
