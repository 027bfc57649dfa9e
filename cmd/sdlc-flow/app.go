package main

import (
	"errors"
	"fmt"

	"sdlc-flow/internal/config"
	"sdlc-flow/internal/helpers"
	"sdlc-flow/internal/logging"
	"sdlc-flow/internal/repositories"
	"sdlc-flow/internal/services"
	"sdlc-flow/internal/workflow"
)

// errStageFailed signals that a stage ended in Error; its message has
// already been printed.
var errStageFailed = errors.New("stage failed")

// App wires the configuration, the saved session and the stage controllers
type App struct {
	config    *config.Config
	log       *logging.Logger
	logFile   *logging.Logger
	store     *workflow.FileStore
	flow      *workflow.Workflow
	creator   *services.ProjectCreator
	uploader  *services.DocumentUploader
	generator *services.RequirementsGenerator
	report    *services.ReportService
}

func newApp(configPath string) (*App, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logFile, err := logging.Open(cfg.Logging.File)
	if err != nil {
		return nil, err
	}

	store := workflow.NewFileStore(cfg.Session.File)
	flow, err := store.Load()
	if err != nil {
		logFile.Close()
		return nil, err
	}
	log := logFile.With(flow.SessionID())
	flow.SetLogger(log)
	flow.SetObserver(printStatus)
	log.Printf("session loaded from %s, next stage: %s", store.Path(), flow.Next().Title())

	caller := services.WithRetry(repositories.NewGatewayClient(&cfg.Gateway, log), &cfg.Gateway, log)
	routes := services.NewRoutes(&cfg.Gateway)

	return &App{
		config:    cfg,
		log:       log,
		logFile:   logFile,
		store:     store,
		flow:      flow,
		creator:   services.NewProjectCreator(flow, caller, routes),
		uploader:  services.NewDocumentUploader(flow, caller, routes),
		generator: services.NewRequirementsGenerator(flow, caller, routes, cfg.Generation),
		report:    services.NewReportService(&cfg.Output),
	}, nil
}

// Close saves the session and releases the log file
func (a *App) Close() error {
	err := a.store.Save(a.flow)
	if err != nil {
		a.log.Printf("saving session failed: %v", err)
	}
	if cerr := a.logFile.Close(); err == nil {
		err = cerr
	}
	return err
}

// printStatus reports stage transitions on the terminal
func printStatus(stage workflow.Stage, status workflow.Status) {
	switch status.State {
	case workflow.Loading:
		helpers.PrintInfo("%s", status.Message)
	case workflow.Success:
		helpers.PrintSuccess("%s", status.Message)
	case workflow.Error:
		helpers.PrintError("Error: %s", status.Message)
	default:
		helpers.PrintMuted("%s reset for the new project", stage.Title())
	}
}

// stageResult converts a controller outcome into the command result
func stageResult(stage workflow.Stage, status workflow.Status, err error) error {
	switch {
	case errors.Is(err, workflow.ErrStageLocked):
		return fmt.Errorf("%s is not available yet: %s", stage.Title(), lockedHint(stage))
	case errors.Is(err, workflow.ErrStageBusy):
		return fmt.Errorf("%s is still running", stage.Title())
	case err != nil:
		return err
	case status.State == workflow.Error:
		return errStageFailed
	default:
		return nil
	}
}

func lockedHint(stage workflow.Stage) string {
	if stage == workflow.StageUpload {
		return "create a project first (sdlc-flow create-project <name>)"
	}
	return "create a project and upload a document first (sdlc-flow upload <file>)"
}
