package services

import (
	"context"
	"errors"
	"fmt"

	"sdlc-flow/internal/config"
	"sdlc-flow/internal/helpers"
	"sdlc-flow/internal/models"
	"sdlc-flow/internal/repositories"
)

// ErrJiraNotConfigured is returned when the jira section is incomplete
var ErrJiraNotConfigured = errors.New("jira base_url, username and api_token must be configured")

// jiraProjects is the part of the Jira repository the preflight needs
type jiraProjects interface {
	ListProjects(ctx context.Context) ([]models.JiraProjectInfo, error)
	GetProjectInfo(ctx context.Context, projectKey string) (*models.JiraProjectInfo, error)
}

// JiraService checks that generated requirements can land in Jira
type JiraService struct {
	repo jiraProjects
}

// NewJiraService creates a new JIRA service
func NewJiraService(jiraConfig *config.JiraConfig) (*JiraService, error) {
	if !jiraConfig.Enabled() {
		return nil, ErrJiraNotConfigured
	}
	return &JiraService{repo: repositories.NewJiraRepository(jiraConfig)}, nil
}

// CheckProjectKey tests the JIRA connection and validates access to the
// project the agent will push issues into
func (s *JiraService) CheckProjectKey(ctx context.Context, projectKey string) error {
	projectKey = NormalizeJiraKey(projectKey)
	helpers.PrintInfo("Testing JIRA authentication and listing accessible projects...")

	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	helpers.PrintSuccess("Authentication successful! Found %d accessible projects:", len(projects))

	projectFound := false
	for _, project := range projects {
		marker := "📋"
		if project.Key == projectKey {
			marker = "✅"
			projectFound = true
		}
		helpers.PrintInfo("  %s %s (%s)", marker, project.Key, project.Name)
	}

	if !projectFound {
		helpers.PrintWarning("Project key '%s' not found in accessible projects!", projectKey)
		return fmt.Errorf("project key '%s' not found in accessible projects", projectKey)
	}

	if _, err := s.repo.GetProjectInfo(ctx, projectKey); err != nil {
		return fmt.Errorf("failed to access project: %w", err)
	}

	helpers.PrintSuccess("Successfully accessed project '%s'", projectKey)
	return nil
}
