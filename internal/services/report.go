package services

import (
	"encoding/json"
	"fmt"
	"time"

	"sdlc-flow/internal/config"
	"sdlc-flow/internal/helpers"
	"sdlc-flow/internal/models"
	"sdlc-flow/internal/workflow"
)

// GenerationRecord is the file written for a saved generation
type GenerationRecord struct {
	SessionID   string          `json:"session_id"`
	Project     models.Project  `json:"project"`
	Document    string          `json:"document"`
	GeneratedAt time.Time       `json:"generated_at"`
	FinalState  json.RawMessage `json:"final_state"`
}

// ReportService displays workflow state and saves generation results
type ReportService struct {
	config *config.OutputConfig
}

// NewReportService creates a new report service
func NewReportService(outputConfig *config.OutputConfig) *ReportService {
	return &ReportService{config: outputConfig}
}

// DisplayResult prints jira_results exactly as the agent returned them
func (s *ReportService) DisplayResult(result models.GenerationResult) {
	helpers.PrintTitle("Generation Results")
	helpers.PrintJSON(result.JiraResults)
}

// DisplayWorkflow prints the active project, document and stage statuses
func (s *ReportService) DisplayWorkflow(flow *workflow.Workflow) {
	helpers.PrintTitle("Session %s", flow.SessionID())

	if project, ok := flow.Project(); ok {
		helpers.PrintInfo("Current Project: %s (ID: %s)", project.Name, project.ID)
	} else {
		helpers.PrintMuted("No project yet")
	}
	if doc, ok := flow.Document(); ok {
		helpers.PrintInfo("Document: %s (%s)", doc.Name, doc.Location)
	}
	helpers.PrintSeparator()

	for i, stage := range workflow.Stages {
		status := flow.Status(stage)
		label := fmt.Sprintf("Step %d: %s", i+1, stage.Title())

		if !flow.Reachable(stage) {
			helpers.PrintMuted("%s (locked)", label)
			continue
		}

		switch status.State {
		case workflow.Success:
			helpers.PrintSuccess("%s: %s", label, status.Message)
		case workflow.Error:
			helpers.PrintError("%s: Error: %s", label, status.Message)
		case workflow.Loading:
			helpers.PrintWarning("%s: interrupted", label)
		default:
			helpers.PrintInfo("%s: ready", label)
		}
	}

	if result, ok := flow.Result(); ok {
		helpers.PrintSeparator()
		s.DisplayResult(result)
	}
}

// SaveResult writes the generation response to the output directory
func (s *ReportService) SaveResult(flow *workflow.Workflow, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = s.config.Dir
	}

	result, ok := flow.Result()
	if !ok {
		return "", fmt.Errorf("no generation result to save")
	}
	project, _ := flow.Project()
	doc, _ := flow.Document()

	if err := helpers.EnsureDir(outputDir); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	record := GenerationRecord{
		SessionID:   flow.SessionID(),
		Project:     project,
		Document:    doc.Name,
		GeneratedAt: time.Now(),
		FinalState:  result.FinalState,
	}

	path := helpers.GetOutputPath(outputDir, helpers.GenerateOutputFilename("generation", "json"))
	if err := helpers.SaveJSON(record, path); err != nil {
		return "", fmt.Errorf("failed to save generation result: %w", err)
	}

	return path, nil
}
