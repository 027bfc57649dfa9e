package services

import (
	"net/url"
	"strings"

	"sdlc-flow/internal/config"
	"sdlc-flow/internal/models"
)

// Routes builds gateway-relative paths for the backend services
type Routes struct {
	ProjectAPI string
	AgentAPI   string
}

// NewRoutes creates routes from the gateway prefixes
func NewRoutes(gatewayConfig *config.GatewayConfig) Routes {
	return Routes{
		ProjectAPI: strings.TrimRight(gatewayConfig.ProjectAPIPrefix, "/"),
		AgentAPI:   strings.TrimRight(gatewayConfig.AgentAPIPrefix, "/"),
	}
}

func (r Routes) CreateProject() string {
	return r.ProjectAPI + "/projects/"
}

func (r Routes) UploadDocument(projectID models.ProjectID) string {
	return r.ProjectAPI + "/projects/" + url.PathEscape(projectID.String()) + "/documents/"
}

func (r Routes) IngestDocument(projectID models.ProjectID) string {
	return r.AgentAPI + "/projects/" + url.PathEscape(projectID.String()) + "/ingest-document"
}

func (r Routes) GenerateRequirements(projectID models.ProjectID) string {
	return r.AgentAPI + "/projects/" + url.PathEscape(projectID.String()) + "/generate-requirements"
}
