package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sdlc-flow/internal/config"
	"sdlc-flow/internal/models"
)

// JiraRepository handles the read-only JIRA API calls used before generation
type JiraRepository struct {
	config *config.JiraConfig
	client *http.Client
}

// NewJiraRepository creates a new JIRA repository
func NewJiraRepository(jiraConfig *config.JiraConfig) *JiraRepository {
	return &JiraRepository{
		config: jiraConfig,
		client: &http.Client{
			Timeout: time.Duration(jiraConfig.Timeout) * time.Second,
		},
	}
}

// ListProjects tests the JIRA connection and returns accessible projects
func (r *JiraRepository) ListProjects(ctx context.Context) ([]models.JiraProjectInfo, error) {
	var projects []models.JiraProjectInfo
	if err := r.get(ctx, "/rest/api/2/project", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProjectInfo gets information about a specific project
func (r *JiraRepository) GetProjectInfo(ctx context.Context, projectKey string) (*models.JiraProjectInfo, error) {
	var project models.JiraProjectInfo
	if err := r.get(ctx, "/rest/api/2/project/"+url.PathEscape(projectKey), &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *JiraRepository) get(ctx context.Context, path string, target any) error {
	endpoint := strings.TrimRight(r.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(r.config.Username, r.config.APIToken)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("JIRA API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
