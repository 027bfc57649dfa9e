package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"sdlc-flow/internal/config"
	"sdlc-flow/internal/models"
	"sdlc-flow/internal/repositories"
	"sdlc-flow/internal/workflow"
)

// BucketName returns the storage bucket holding the documents of a project
func BucketName(projectID models.ProjectID) string {
	return "project-" + projectID.String()
}

// NormalizeJiraKey upper-cases a Jira project key as it is typed
func NormalizeJiraKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// RequirementsGenerator is the controller of the requirements generation
// stage. It ingests the uploaded document, then asks the agent to generate
// requirements from it.
type RequirementsGenerator struct {
	flow   *workflow.Workflow
	caller repositories.Caller
	routes Routes

	mu      sync.Mutex
	prompt  string
	jiraKey string
}

// NewRequirementsGenerator creates a generation controller with the form
// defaults from the configuration
func NewRequirementsGenerator(flow *workflow.Workflow, caller repositories.Caller, routes Routes, defaults config.GenerationConfig) *RequirementsGenerator {
	g := &RequirementsGenerator{flow: flow, caller: caller, routes: routes}
	g.SetPrompt(defaults.DefaultPrompt)
	g.SetJiraKey(defaults.DefaultJiraProjectKey)
	return g
}

// SetPrompt sets the analysis prompt
func (g *RequirementsGenerator) SetPrompt(prompt string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompt = prompt
}

// Prompt returns the analysis prompt
func (g *RequirementsGenerator) Prompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompt
}

// SetJiraKey sets the Jira project key, upper-cased
func (g *RequirementsGenerator) SetJiraKey(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.jiraKey = NormalizeJiraKey(key)
}

// JiraKey returns the Jira project key
func (g *RequirementsGenerator) JiraKey() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.jiraKey
}

// Available reports whether a project and its document exist
func (g *RequirementsGenerator) Available() bool {
	return g.flow.Reachable(workflow.StageGenerate)
}

// Submit runs ingest then generate. Generate is never issued when ingest
// fails or the active project changed during ingest, and a successful ingest
// is not undone when generate fails. Every submission ingests again.
func (g *RequirementsGenerator) Submit(ctx context.Context) (workflow.Status, error) {
	project, hasProject := g.flow.Project()
	doc, hasDoc := g.flow.Document()
	if !hasProject || !hasDoc {
		return g.flow.Status(workflow.StageGenerate), workflow.ErrStageLocked
	}

	if err := g.flow.Begin(workflow.StageGenerate, MsgIngesting); err != nil {
		return g.flow.Status(workflow.StageGenerate), err
	}
	g.flow.ClearResult()

	ingest := models.IngestRequest{BucketName: BucketName(project.ID), ObjectName: doc.Name}
	if _, err := g.caller.Call(ctx, http.MethodPost, g.routes.IngestDocument(project.ID), ingest); err != nil {
		return fail(g.flow, workflow.StageGenerate, repositories.FailureMessage(err, MsgUnexpected))
	}

	// Generate is never issued for a project that is no longer active.
	if !g.flow.IsActive(project) {
		return fail(g.flow, workflow.StageGenerate, MsgProjectChanged)
	}

	if err := g.flow.Progress(workflow.StageGenerate, MsgGenerating); err != nil {
		return g.flow.Status(workflow.StageGenerate), err
	}

	generate := models.GenerateRequest{InitialPrompt: g.Prompt(), JiraProjectKey: g.JiraKey()}
	payload, err := g.caller.Call(ctx, http.MethodPost, g.routes.GenerateRequirements(project.ID), generate)
	if err != nil {
		return fail(g.flow, workflow.StageGenerate, repositories.FailureMessage(err, MsgUnexpected))
	}

	result, err := parseGeneration(payload)
	if err != nil {
		return fail(g.flow, workflow.StageGenerate, MsgUnexpected)
	}

	if err := g.flow.SetResult(project, *result); err != nil {
		if errors.Is(err, workflow.ErrStaleProject) {
			return fail(g.flow, workflow.StageGenerate, MsgProjectChanged)
		}
		return fail(g.flow, workflow.StageGenerate, MsgUnexpected)
	}

	return succeed(g.flow, workflow.StageGenerate, MsgGenerated)
}

// parseGeneration keeps final_state and its jira_results as the agent sent
// them.
func parseGeneration(payload json.RawMessage) (*models.GenerationResult, error) {
	resp, err := repositories.Decode[models.GenerateResponse](payload)
	if err != nil {
		return nil, err
	}

	var state map[string]json.RawMessage
	if err := json.Unmarshal(resp.FinalState, &state); err != nil || state == nil {
		return nil, errors.New("final_state is not an object")
	}

	return &models.GenerationResult{
		JiraResults: state["jira_results"],
		FinalState:  resp.FinalState,
	}, nil
}
