package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"sdlc-flow/internal/config"
	"sdlc-flow/internal/helpers"
	"sdlc-flow/internal/services"
	"sdlc-flow/internal/tui"
	"sdlc-flow/internal/workflow"

	"github.com/spf13/cobra"
)

var configFile string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "sdlc-flow",
		Short: "SDLC Flow - create a project, upload a document, generate requirements into Jira",
		Long: `SDLC Flow drives the requirements workflow behind the API gateway:

  1. create a project
  2. upload a requirements document into it
  3. ingest the document and generate Jira user stories from it

Each step unlocks the next one. The session is kept between invocations,
so the steps can be run one command at a time, all at once with "run",
or interactively with "tui".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "Configuration file path")

	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
	rootCmd.AddCommand(initCmd)

	var createProjectCmd = &cobra.Command{
		Use:   "create-project <name>",
		Short: "Step 1: create a project and make it the active one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCreateProject,
	}
	rootCmd.AddCommand(createProjectCmd)

	var uploadCmd = &cobra.Command{
		Use:   "upload <file>",
		Short: "Step 2: upload a requirements document into the active project",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runUpload,
	}
	rootCmd.AddCommand(uploadCmd)

	var generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Step 3: ingest the uploaded document and generate requirements into Jira",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}
	addGenerationFlags(generateCmd)
	rootCmd.AddCommand(generateCmd)

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run all three steps in order, stopping at the first failure",
		Args:  cobra.NoArgs,
		RunE:  runAll,
	}
	runCmd.Flags().StringP("name", "n", "", "Project name (required)")
	runCmd.Flags().StringP("file", "f", "", "Requirements document to upload (required)")
	runCmd.MarkFlagRequired("name")
	runCmd.MarkFlagRequired("file")
	addGenerationFlags(runCmd)
	rootCmd.AddCommand(runCmd)

	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the active project, document and stage statuses",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
	rootCmd.AddCommand(statusCmd)

	var resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE:  runReset,
	}
	rootCmd.AddCommand(resetCmd)

	var jiraCheckCmd = &cobra.Command{
		Use:   "jira-check [project-key]",
		Short: "Check that the Jira project key is accessible before generating",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runJiraCheck,
	}
	rootCmd.AddCommand(jiraCheckCmd)

	var tuiCmd = &cobra.Command{
		Use:   "tui",
		Short: "Run the workflow interactively",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}
	rootCmd.AddCommand(tuiCmd)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errStageFailed) {
			helpers.PrintError("Error: %v", err)
		}
		os.Exit(1)
	}
}

func addGenerationFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("prompt", "p", "", "Analysis prompt (defaults to generation.default_prompt)")
	cmd.Flags().StringP("jira-key", "k", "", "Jira project key (defaults to generation.default_jira_project_key)")
	cmd.Flags().StringP("output", "o", "", "Save the generation result into this directory")
}

func runInit(cmd *cobra.Command, args []string) error {
	helpers.PrintTitle("Initializing SDLC Flow Configuration")

	if helpers.FileExists(configFile) && !confirm(fmt.Sprintf("Configuration file already exists at %s. Overwrite it? (y/N): ", configFile)) {
		helpers.PrintInfo("Configuration initialization cancelled.")
		return nil
	}

	if err := config.Write(config.Sample(), configFile); err != nil {
		return err
	}

	helpers.PrintSuccess("Configuration file created at %s", configFile)
	helpers.PrintWarning("Please set gateway.base_url (and the jira section for jira-check) before running the workflow.")
	return nil
}

func runCreateProject(cmd *cobra.Command, args []string) (err error) {
	app, err := newApp(configFile)
	if err != nil {
		return err
	}
	defer closeApp(app, &err)

	if len(args) > 0 {
		app.creator.SetName(args[0])
	}

	helpers.PrintTitle("Step 1: %s", workflow.StageProject.Title())
	status, serr := app.creator.Submit(cmd.Context())
	if err := stageResult(workflow.StageProject, status, serr); err != nil {
		return err
	}

	project, _ := app.flow.Project()
	helpers.PrintInfo("Current Project: %s (ID: %s)", project.Name, project.ID)
	return nil
}

func runUpload(cmd *cobra.Command, args []string) (err error) {
	app, err := newApp(configFile)
	if err != nil {
		return err
	}
	defer closeApp(app, &err)

	if len(args) > 0 {
		app.uploader.SelectFile(args[0])
	}
	return upload(cmd, app)
}

func upload(cmd *cobra.Command, app *App) error {
	helpers.PrintTitle("Step 2: %s", workflow.StageUpload.Title())
	if project, ok := app.flow.Project(); ok {
		helpers.PrintInfo("Current Project: %s (ID: %s)", project.Name, project.ID)
	}

	status, err := app.uploader.Submit(cmd.Context())
	return stageResult(workflow.StageUpload, status, err)
}

func runGenerate(cmd *cobra.Command, args []string) (err error) {
	app, err := newApp(configFile)
	if err != nil {
		return err
	}
	defer closeApp(app, &err)

	return generate(cmd, app)
}

func generate(cmd *cobra.Command, app *App) error {
	if prompt, _ := cmd.Flags().GetString("prompt"); prompt != "" {
		app.generator.SetPrompt(prompt)
	}
	if key, _ := cmd.Flags().GetString("jira-key"); key != "" {
		app.generator.SetJiraKey(key)
	}

	helpers.PrintTitle("Step 3: %s", workflow.StageGenerate.Title())
	project, _ := app.flow.Project()
	if doc, ok := app.flow.Document(); ok {
		helpers.PrintInfo("Ready to process %s for project %s.", doc.Name, project.Name)
	}
	helpers.PrintInfo("Jira project key: %s", app.generator.JiraKey())

	status, err := app.generator.Submit(cmd.Context())
	if err := stageResult(workflow.StageGenerate, status, err); err != nil {
		return err
	}

	result, _ := app.flow.Result()
	helpers.PrintSeparator()
	app.report.DisplayResult(result)

	outputDir, _ := cmd.Flags().GetString("output")
	if outputDir != "" || app.config.Output.SaveResults {
		path, err := app.report.SaveResult(app.flow, outputDir)
		if err != nil {
			return err
		}
		helpers.PrintSuccess("Saved generation result to: %s", path)
	}
	return nil
}

func runAll(cmd *cobra.Command, args []string) (err error) {
	app, err := newApp(configFile)
	if err != nil {
		return err
	}
	defer closeApp(app, &err)

	name, _ := cmd.Flags().GetString("name")
	file, _ := cmd.Flags().GetString("file")

	helpers.PrintProgress(1, len(workflow.Stages), workflow.StageProject.Title())
	app.creator.SetName(name)
	status, serr := app.creator.Submit(cmd.Context())
	if err := stageResult(workflow.StageProject, status, serr); err != nil {
		return err
	}

	helpers.PrintProgress(2, len(workflow.Stages), workflow.StageUpload.Title())
	app.uploader.SelectFile(file)
	if err := upload(cmd, app); err != nil {
		return err
	}

	helpers.PrintProgress(3, len(workflow.Stages), workflow.StageGenerate.Title())
	return generate(cmd, app)
}

func runStatus(cmd *cobra.Command, args []string) (err error) {
	app, err := newApp(configFile)
	if err != nil {
		return err
	}
	defer closeApp(app, &err)

	app.report.DisplayWorkflow(app.flow)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := workflow.NewFileStore(cfg.Session.File).Reset(); err != nil {
		return err
	}
	helpers.PrintSuccess("Session cleared")
	return nil
}

func runJiraCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	key := cfg.Generation.DefaultJiraProjectKey
	if len(args) > 0 {
		key = args[0]
	}

	jiraService, err := services.NewJiraService(&cfg.Jira)
	if err != nil {
		return err
	}

	helpers.PrintTitle("Checking Jira project %s", services.NormalizeJiraKey(key))
	return jiraService.CheckProjectKey(cmd.Context(), key)
}

func runTUI(cmd *cobra.Command, args []string) (err error) {
	app, err := newApp(configFile)
	if err != nil {
		return err
	}
	defer closeApp(app, &err)

	return tui.Run(cmd.Context(), tui.Controllers{
		Flow:      app.flow,
		Creator:   app.creator,
		Uploader:  app.uploader,
		Generator: app.generator,
	})
}

// closeApp saves the session and keeps the first error
func closeApp(app *App, err *error) {
	if cerr := app.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

func confirm(question string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(question)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
