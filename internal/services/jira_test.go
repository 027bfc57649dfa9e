package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdlc-flow/internal/config"
	"sdlc-flow/internal/models"
)

type fakeJira struct {
	projects []models.JiraProjectInfo
	listErr  error
	infoErr  error
	asked    string
}

func (f *fakeJira) ListProjects(ctx context.Context) ([]models.JiraProjectInfo, error) {
	return f.projects, f.listErr
}

func (f *fakeJira) GetProjectInfo(ctx context.Context, projectKey string) (*models.JiraProjectInfo, error) {
	f.asked = projectKey
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return &models.JiraProjectInfo{Key: projectKey}, nil
}

func TestNewJiraServiceRequiresConfig(t *testing.T) {
	_, err := NewJiraService(&config.JiraConfig{BaseURL: "https://acme.atlassian.net"})
	assert.ErrorIs(t, err, ErrJiraNotConfigured)

	svc, err := NewJiraService(&config.JiraConfig{BaseURL: "https://acme.atlassian.net", Username: "u", APIToken: "t"})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestCheckProjectKey(t *testing.T) {
	repo := &fakeJira{projects: []models.JiraProjectInfo{{Key: "PROJ", Name: "Project"}, {Key: "OPS", Name: "Ops"}}}
	svc := &JiraService{repo: repo}

	require.NoError(t, svc.CheckProjectKey(context.Background(), "proj"))
	assert.Equal(t, "PROJ", repo.asked)

	assert.ErrorContains(t, svc.CheckProjectKey(context.Background(), "NOPE"), "not found in accessible projects")

	repo.infoErr = errors.New("status 403")
	assert.ErrorContains(t, svc.CheckProjectKey(context.Background(), "OPS"), "failed to access project")

	repo.listErr = errors.New("status 401")
	assert.ErrorContains(t, svc.CheckProjectKey(context.Background(), "PROJ"), "authentication failed")
}
