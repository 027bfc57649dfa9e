package services

import (
	"sdlc-flow/internal/workflow"
)

// Messages shown in stage statuses
const (
	MsgEnterProjectName  = "Please enter a project name"
	MsgSelectFile        = "Please select a file to upload"
	MsgUnexpected        = "An unexpected error occurred."
	MsgUnexpectedUpload  = "An unexpected error occurred during upload."
	MsgCreatingProject   = "Creating project..."
	MsgUploading         = "Uploading document..."
	MsgIngesting         = "Step 1/2: Ingesting document into vector store... (This may take a moment)"
	MsgGenerating        = "Document ingested successfully. Step 2/2: Generating requirements and pushing to Jira..."
	MsgGenerated         = "Successfully generated requirements and pushed to Jira!"
	MsgProjectChanged    = "The active project changed before the call finished."
	msgProjectCreatedFmt = "Project \"%s\" created successfully!"
	msgFileUploadedFmt   = "File \"%s\" uploaded successfully!"
	msgUnreadableFileFmt = "Could not read the selected file: %v"
)

// reject reports a local validation error on stage.
func reject(flow *workflow.Workflow, stage workflow.Stage, message string) (workflow.Status, error) {
	if err := flow.Reject(stage, message); err != nil {
		return flow.Status(stage), err
	}
	return flow.Status(stage), nil
}

// fail resolves the in-flight call of stage as failed.
func fail(flow *workflow.Workflow, stage workflow.Stage, message string) (workflow.Status, error) {
	if err := flow.Fail(stage, message); err != nil {
		return flow.Status(stage), err
	}
	return flow.Status(stage), nil
}

// succeed resolves the in-flight call of stage as successful.
func succeed(flow *workflow.Workflow, stage workflow.Stage, message string) (workflow.Status, error) {
	if err := flow.Succeed(stage, message); err != nil {
		return flow.Status(stage), err
	}
	return flow.Status(stage), nil
}
