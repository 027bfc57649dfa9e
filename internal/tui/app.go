package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sdlc-flow/internal/helpers"
	"sdlc-flow/internal/services"
	"sdlc-flow/internal/workflow"
)

// Controllers are the workflow pieces the form drives.
type Controllers struct {
	Flow      *workflow.Workflow
	Creator   *services.ProjectCreator
	Uploader  *services.DocumentUploader
	Generator *services.RequirementsGenerator
}

type field int

const (
	fieldName field = iota
	fieldFile
	fieldPrompt
	fieldJiraKey
	fieldCount
)

func (f field) stage() workflow.Stage {
	switch f {
	case fieldName:
		return workflow.StageProject
	case fieldFile:
		return workflow.StageUpload
	default:
		return workflow.StageGenerate
	}
}

// statusMsg carries a status change reported by the workflow observer.
type statusMsg struct {
	stage  workflow.Stage
	status workflow.Status
}

// submitDoneMsg is sent when a stage submission has resolved.
type submitDoneMsg struct {
	stage  workflow.Stage
	status workflow.Status
	err    error
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#B48EAD"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	stepStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	resultStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#4CAF50")).Padding(0, 1)
)

// Model is the three-stage form. Later stages are hidden until the data they
// need exists.
type Model struct {
	ctx     context.Context
	c       Controllers
	inputs  []textinput.Model
	focus   field
	pending map[workflow.Stage]bool
	notice  string
	width   int
}

// New builds the form with the controllers' current inputs.
func New(ctx context.Context, c Controllers) Model {
	inputs := make([]textinput.Model, fieldCount)

	inputs[fieldName] = textinput.New()
	inputs[fieldName].Placeholder = "e.g., 'E-commerce Platform'"
	inputs[fieldName].SetValue(c.Creator.Name())

	inputs[fieldFile] = textinput.New()
	inputs[fieldFile].Placeholder = "path/to/requirements.pdf"
	inputs[fieldFile].SetValue(c.Uploader.SelectedFile())

	inputs[fieldPrompt] = textinput.New()
	inputs[fieldPrompt].SetValue(c.Generator.Prompt())

	inputs[fieldJiraKey] = textinput.New()
	inputs[fieldJiraKey].Placeholder = "e.g., 'PROJ'"
	inputs[fieldJiraKey].SetValue(c.Generator.JiraKey())

	for i := range inputs {
		inputs[i].Width = 60
		inputs[i].Prompt = "> "
	}

	m := Model{
		ctx:     ctx,
		c:       c,
		inputs:  inputs,
		focus:   fieldName,
		pending: map[workflow.Stage]bool{},
	}
	m.inputs[fieldName].Focus()
	return m
}

// Run starts the form and blocks until the user quits.
func Run(ctx context.Context, c Controllers) error {
	p := tea.NewProgram(New(ctx, c), tea.WithContext(ctx), tea.WithAltScreen())

	c.Flow.SetObserver(func(stage workflow.Stage, status workflow.Status) {
		p.Send(statusMsg{stage: stage, status: status})
	})
	defer c.Flow.SetObserver(nil)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case statusMsg:
		return m, nil

	case submitDoneMsg:
		delete(m.pending, msg.stage)
		m.notice = ""
		if msg.err != nil {
			m.notice = msg.err.Error()
		}
		if msg.stage == workflow.StageProject && msg.status.State == workflow.Success {
			m.inputs[fieldName].SetValue(m.c.Creator.Name())
		}
		cmd := m.refocus()
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "down":
			cmd := m.move(1)
			return m, cmd
		case "shift+tab", "up":
			cmd := m.move(-1)
			return m, cmd
		case "enter":
			cmd := m.submit()
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if m.focus == fieldJiraKey {
		value := m.inputs[fieldJiraKey].Value()
		if upper := strings.ToUpper(value); upper != value {
			m.inputs[fieldJiraKey].SetValue(upper)
		}
	}
	return m, cmd
}

// visible lists the fields whose stage is reachable.
func (m Model) visible() []field {
	var fields []field
	for f := fieldName; f < fieldCount; f++ {
		if m.c.Flow.Reachable(f.stage()) {
			fields = append(fields, f)
		}
	}
	return fields
}

func (m *Model) move(delta int) tea.Cmd {
	fields := m.visible()
	idx := 0
	for i, f := range fields {
		if f == m.focus {
			idx = i
		}
	}
	idx = (idx + delta + len(fields)) % len(fields)
	return m.setFocus(fields[idx])
}

// refocus moves focus back to a visible field after the stages changed.
func (m *Model) refocus() tea.Cmd {
	if m.c.Flow.Reachable(m.focus.stage()) {
		return nil
	}
	return m.setFocus(fieldName)
}

func (m *Model) setFocus(f field) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = f
	return m.inputs[f].Focus()
}

// submit hands the focused stage to its controller off the UI goroutine.
func (m *Model) submit() tea.Cmd {
	stage := m.focus.stage()
	if m.pending[stage] || m.c.Flow.Status(stage).IsLoading() {
		return nil
	}

	var run func(context.Context) (workflow.Status, error)
	switch stage {
	case workflow.StageProject:
		m.c.Creator.SetName(m.inputs[fieldName].Value())
		run = m.c.Creator.Submit
	case workflow.StageUpload:
		m.c.Uploader.SelectFile(strings.TrimSpace(m.inputs[fieldFile].Value()))
		run = m.c.Uploader.Submit
	case workflow.StageGenerate:
		m.c.Generator.SetPrompt(m.inputs[fieldPrompt].Value())
		m.c.Generator.SetJiraKey(m.inputs[fieldJiraKey].Value())
		run = m.c.Generator.Submit
	}

	m.pending[stage] = true
	ctx := m.ctx
	return func() tea.Msg {
		status, err := run(ctx)
		return submitDoneMsg{stage: stage, status: status, err: err}
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("AI SDLC Platform"))
	b.WriteString("\n\n")

	b.WriteString(m.step(1, workflow.StageProject, m.field("Project Name", fieldName)))

	if project, ok := m.c.Flow.Project(); ok {
		body := labelStyle.Render(fmt.Sprintf("Current Project: %s (ID: %s)", project.Name, project.ID)) + "\n" +
			m.field("Select Document", fieldFile)
		b.WriteString(m.step(2, workflow.StageUpload, body))

		if doc, ok := m.c.Flow.Document(); ok {
			body := labelStyle.Render(fmt.Sprintf("Ready to process %s for project %s.", doc.Name, project.Name)) + "\n" +
				m.field("Analysis Prompt", fieldPrompt) + "\n" +
				m.field("Jira Project Key", fieldJiraKey)
			b.WriteString(m.step(3, workflow.StageGenerate, body))

			if result, ok := m.c.Flow.Result(); ok {
				b.WriteString(resultStyle.Render(headerStyle.Render("Generation Results") + "\n" + helpers.IndentJSON(result.JiraResults)))
				b.WriteString("\n")
			}
		}
	}

	if m.notice != "" {
		b.WriteString(errorStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render("tab: next field • enter: submit step • esc: quit"))
	return b.String()
}

func (m Model) field(label string, f field) string {
	return labelStyle.Render(label) + "\n" + m.inputs[f].View()
}

func (m Model) step(n int, stage workflow.Stage, body string) string {
	header := headerStyle.Render(fmt.Sprintf("Step %d: %s", n, stage.Title()))
	content := header + "\n" + body
	if line := renderStatus(m.c.Flow.Status(stage)); line != "" {
		content += "\n" + line
	}

	style := stepStyle
	if m.width > 4 {
		style = style.Width(m.width - 4)
	}
	return style.Render(content) + "\n"
}

func renderStatus(status workflow.Status) string {
	switch status.State {
	case workflow.Loading:
		return infoStyle.Render("⏳ " + status.Message)
	case workflow.Success:
		return successStyle.Render(status.Message)
	case workflow.Error:
		return errorStyle.Render("Error: " + status.Message)
	default:
		return ""
	}
}
