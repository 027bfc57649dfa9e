package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"sdlc-flow/internal/helpers"
	"sdlc-flow/internal/models"
	"sdlc-flow/internal/repositories"
	"sdlc-flow/internal/workflow"
)

// DocumentUploader is the controller of the document upload stage
type DocumentUploader struct {
	flow   *workflow.Workflow
	caller repositories.Caller
	routes Routes

	mu   sync.Mutex
	path string
}

// NewDocumentUploader creates a new document upload controller
func NewDocumentUploader(flow *workflow.Workflow, caller repositories.Caller, routes Routes) *DocumentUploader {
	return &DocumentUploader{flow: flow, caller: caller, routes: routes}
}

// SelectFile sets the path of the document to upload
func (u *DocumentUploader) SelectFile(path string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.path = path
}

// SelectedFile returns the selected document path
func (u *DocumentUploader) SelectedFile() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.path
}

// Available reports whether a project exists to upload to
func (u *DocumentUploader) Available() bool {
	return u.flow.Reachable(workflow.StageUpload)
}

// Submit uploads the selected file into the active project. A failed upload
// leaves any previously uploaded document in place.
func (u *DocumentUploader) Submit(ctx context.Context) (workflow.Status, error) {
	project, ok := u.flow.Project()
	if !ok {
		return u.flow.Status(workflow.StageUpload), workflow.ErrStageLocked
	}

	path := u.SelectedFile()
	if path == "" {
		return reject(u.flow, workflow.StageUpload, MsgSelectFile)
	}

	name, data, err := helpers.ReadDocument(path)
	if err != nil {
		return reject(u.flow, workflow.StageUpload, fmt.Sprintf(msgUnreadableFileFmt, err))
	}

	if err := u.flow.Begin(workflow.StageUpload, MsgUploading); err != nil {
		return u.flow.Status(workflow.StageUpload), err
	}

	body := repositories.FilePart{Field: "file", Filename: name, Data: data}
	payload, err := u.caller.Call(ctx, http.MethodPost, u.routes.UploadDocument(project.ID), body)
	if err != nil {
		return fail(u.flow, workflow.StageUpload, repositories.FailureMessage(err, MsgUnexpectedUpload))
	}

	resp, err := repositories.Decode[models.UploadResponse](payload)
	if err != nil || resp.Filename == "" {
		return fail(u.flow, workflow.StageUpload, MsgUnexpectedUpload)
	}

	doc := models.UploadedDocument{Name: resp.Filename, Location: resp.Location}
	if err := u.flow.SetDocument(project, doc); err != nil {
		if errors.Is(err, workflow.ErrStaleProject) {
			return fail(u.flow, workflow.StageUpload, MsgProjectChanged)
		}
		return fail(u.flow, workflow.StageUpload, MsgUnexpectedUpload)
	}

	return succeed(u.flow, workflow.StageUpload, fmt.Sprintf(msgFileUploadedFmt, resp.Filename))
}
