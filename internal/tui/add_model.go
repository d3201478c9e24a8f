package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/tock/internal/models"
	"github.com/balkashynov/tock/internal/parser"
	"github.com/balkashynov/tock/internal/timer"
)

// Step represents the current field of the add form
type Step int

const (
	StepName Step = iota
	StepCategory
	StepTags
	StepTime
	stepCount
)

// AddTaskModel is the form behind `tock add -i`. The name field accepts
// the quick syntax and fills the other fields as it is typed.
type AddTaskModel struct {
	currentStep Step
	inputs      []textinput.Model
	width       int

	completed     bool
	cancelled     bool
	validationErr string
}

// NewAddTaskModel creates the form, optionally seeded with a quick line
func NewAddTaskModel(initial string) AddTaskModel {
	inputs := make([]textinput.Model, stepCount)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Width = 60
		inputs[i].TextStyle = nameStyle
		inputs[i].PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPlaceholder))
		inputs[i].Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))
	}

	inputs[StepName].Placeholder = "Write docs @Work/Docs #nexus 1h20m (required)"
	inputs[StepName].CharLimit = 200
	inputs[StepName].Focus()

	inputs[StepCategory].Placeholder = "Category path, e.g. Work/Dev (required)"
	inputs[StepCategory].CharLimit = 100

	inputs[StepTags].Placeholder = "Instance tags, comma separated (Enter to skip)"
	inputs[StepTags].CharLimit = 100

	inputs[StepTime].Placeholder = "Initial time: 1h20m, 45m, 1:30 (Enter to skip)"
	inputs[StepTime].CharLimit = 20

	m := AddTaskModel{currentStep: StepName, inputs: inputs}
	if initial != "" {
		m.inputs[StepName].SetValue(initial)
		m.spread()
	}
	return m
}

// Init initializes the model
func (m AddTaskModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m AddTaskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := m.width - 10
		if w < 30 {
			w = 30
		}
		if w > 80 {
			w = 80
		}
		for i := range m.inputs {
			m.inputs[i].Width = w
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			return m.handleEnter()
		case "tab", "down":
			return m.focus(m.currentStep + 1)
		case "shift+tab", "up":
			return m.focus(m.currentStep - 1)
		}
	}

	var cmd tea.Cmd
	m.inputs[m.currentStep], cmd = m.inputs[m.currentStep].Update(msg)
	if m.currentStep == StepName {
		m.spread()
	}
	return m, cmd
}

// spread copies what the quick syntax recognised into the other fields
func (m *AddTaskModel) spread() {
	p := parser.ParseQuick(m.inputs[StepName].Value())
	if p.CategoryPath != "" {
		m.inputs[StepCategory].SetValue(p.CategoryPath)
	}
	if len(p.InstanceTags) > 0 {
		m.inputs[StepTags].SetValue(strings.Join(p.InstanceTags, ","))
	}
	if p.InitialTime > 0 {
		m.inputs[StepTime].SetValue(timer.FormatSeconds(p.InitialTime))
	}
}

func (m AddTaskModel) focus(step Step) (AddTaskModel, tea.Cmd) {
	if step < StepName || step >= stepCount {
		return m, nil
	}
	m.inputs[m.currentStep].Blur()
	m.currentStep = step
	m.validationErr = ""
	return m, m.inputs[step].Focus()
}

func (m AddTaskModel) handleEnter() (AddTaskModel, tea.Cmd) {
	if m.currentStep < stepCount-1 {
		return m.focus(m.currentStep + 1)
	}
	if _, err := m.Request(); err != nil {
		m.validationErr = err.Error()
		return m, nil
	}
	m.completed = true
	return m, tea.Quit
}

// Request builds the create request from the form. Owner and date are
// left for the controller to fill in.
func (m AddTaskModel) Request() (models.CreateTaskRequest, error) {
	p := parser.ParseQuick(m.inputs[StepName].Value())
	req := models.CreateTaskRequest{
		Name:         p.Name,
		CategoryPath: strings.Trim(strings.TrimSpace(m.inputs[StepCategory].Value()), "/"),
	}
	if req.Name == "" {
		return req, fmt.Errorf("task name is required")
	}
	if req.CategoryPath == "" {
		return req, fmt.Errorf("category is required")
	}

	var tags []string
	for _, t := range strings.Split(m.inputs[StepTags].Value(), ",") {
		if t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#")); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) > 0 {
		req.InstanceTag = models.String(strings.Join(tags, ","))
	}

	if v := strings.TrimSpace(m.inputs[StepTime].Value()); v != "" {
		seconds, err := parser.ParseDuration(strings.ReplaceAll(v, " ", ""))
		if err != nil {
			return req, fmt.Errorf("invalid initial time: %w", err)
		}
		req.InitialTime = seconds
	}
	return req, nil
}

// View renders the form
func (m AddTaskModel) View() string {
	if m.cancelled || m.completed {
		return ""
	}

	labels := [stepCount]string{"Name", "Category", "Tags", "Initial time"}
	var b strings.Builder
	b.WriteString(titleStyle.Render("New task"))
	b.WriteString("\n\n")
	for i := range m.inputs {
		label := secondaryStyle.Render(labels[i])
		if Step(i) == m.currentStep {
			label = selectedStyle.Render(labels[i])
		}
		b.WriteString(label + "\n")
		b.WriteString(m.inputs[i].View() + "\n\n")
	}
	if m.validationErr != "" {
		b.WriteString(errorStyle.Render("⚠ " + m.validationErr))
		b.WriteString("\n")
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Padding(1)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		panel.Render(b.String()),
		helpStyle.Render("tab/↓ next • shift+tab/↑ back • enter next/save • esc cancel"),
	)
}
