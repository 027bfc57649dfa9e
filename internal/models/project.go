package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ProjectID is a project identifier kept as the JSON the service sent, so
// integer and string ids both pass through unchanged.
type ProjectID string

// String returns the id as it appears in request paths
func (id ProjectID) String() string {
	var text string
	if err := json.Unmarshal([]byte(id), &text); err == nil {
		return text
	}
	return string(id)
}

// MarshalJSON writes the id back in its original form
func (id ProjectID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	return []byte(id), nil
}

// UnmarshalJSON accepts a JSON number or string
func (id *ProjectID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		if text == "" {
			*id = ""
			return nil
		}
		*id = ProjectID(data)
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("project id must be a number or a string: %s", data)
	}
	*id = ProjectID(number)
	return nil
}

// Project represents a project created by the project service
type Project struct {
	ID   ProjectID `json:"id"`
	Name string    `json:"name"`
}

// CreateProjectRequest represents the body of a create-project call
type CreateProjectRequest struct {
	Name string `json:"name"`
}

// UploadedDocument represents a document stored for the active project
type UploadedDocument struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// UploadResponse represents the document service reply to an upload
type UploadResponse struct {
	Filename  string    `json:"filename"`
	ProjectID ProjectID `json:"project_id,omitempty"`
	Location  string    `json:"location"`
}

// IngestRequest represents the body of an ingest-document call
type IngestRequest struct {
	BucketName string `json:"bucket_name"`
	ObjectName string `json:"object_name"`
}

// GenerateRequest represents the body of a generate-requirements call
type GenerateRequest struct {
	InitialPrompt  string `json:"initial_prompt"`
	JiraProjectKey string `json:"jira_project_key"`
}

// GenerateResponse represents the agent reply to a generate-requirements call
type GenerateResponse struct {
	Message    string          `json:"message"`
	FinalState json.RawMessage `json:"final_state"`
}

// GenerationResult holds the outcome of a successful generation
type GenerationResult struct {
	JiraResults json.RawMessage `json:"jira_results"`
	FinalState  json.RawMessage `json:"final_state"`
}
