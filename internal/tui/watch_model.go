package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/tock/internal/models"
	"github.com/balkashynov/tock/internal/timer"
)

// Session is the part of the controller the live view drives
type Session interface {
	Load(ctx context.Context) error
	Tasks() []*models.TimerTask
	Now() int64
	Start(ctx context.Context, id string) error
	Pause(ctx context.Context, id string) error
	Stop(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	MoveTo(id string, position int) error
}

// WatchModel is the live view of a day's tasks. Display times are
// re-evaluated on every tick; nothing is written until a key is pressed.
type WatchModel struct {
	session Session
	date    string
	width   int
	height  int

	roots  []*models.TimerTask
	rows   []Row
	cursor int
	now    int64

	status string
	err    error
}

// watchTickMsg is sent every second to refresh display times
type watchTickMsg struct{}

// opDoneMsg reports a finished write
type opDoneMsg struct {
	action string
	name   string
	err    error
}

// NewWatchModel creates the live view for session
func NewWatchModel(session Session, date string) WatchModel {
	m := WatchModel{session: session, date: date}
	return m.refresh()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return watchTickMsg{}
	})
}

// Init starts the ticker
func (m WatchModel) Init() tea.Cmd {
	return tick()
}

// Update handles messages
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case watchTickMsg:
		return m.refresh(), tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case opDoneMsg:
		m = m.refresh()
		if msg.err != nil {
			m.err = msg.err
			m.status = ""
		} else {
			m.err = nil
			m.status = fmt.Sprintf("%s: %s", msg.action, msg.name)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case "s", "enter":
			return m, m.run("Started", m.session.Start)
		case "p":
			return m, m.run("Paused", m.session.Pause)
		case "x":
			return m, m.run("Stopped", m.session.Stop)
		case "d":
			return m, m.run("Deleted", m.session.Delete)
		case "r":
			return m, m.reload()
		case "K":
			return m.shift(-1), nil
		case "J":
			return m.shift(1), nil
		}
	}

	return m, nil
}

// selected returns the task under the cursor
func (m WatchModel) selected() *models.TimerTask {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].Task
}

func (m WatchModel) run(action string, op func(context.Context, string) error) tea.Cmd {
	t := m.selected()
	if t == nil {
		return nil
	}
	id, name := t.ID, t.Name
	return func() tea.Msg {
		return opDoneMsg{action: action, name: name, err: op(context.Background(), id)}
	}
}

func (m WatchModel) reload() tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{action: "Reloaded", name: m.date, err: m.session.Load(context.Background())}
	}
}

// shift moves the selected task up or down among its siblings
func (m WatchModel) shift(delta int) WatchModel {
	t := m.selected()
	if t == nil {
		return m
	}
	parent := m.rows[m.cursor].Parent
	var siblings []string
	pos := -1
	for _, r := range m.rows {
		if r.Parent == parent {
			if r.Task.ID == t.ID {
				pos = len(siblings)
			}
			siblings = append(siblings, r.Task.ID)
		}
	}
	to := pos + delta
	if pos < 0 || to < 0 || to >= len(siblings) {
		return m
	}
	if err := m.session.MoveTo(t.ID, to); err != nil {
		m.err = err
		return m
	}
	m = m.refresh()
	m.status = fmt.Sprintf("Moved: %s", t.Name)
	return m
}

// refresh takes a new snapshot and keeps the cursor on the same task
func (m WatchModel) refresh() WatchModel {
	var current string
	if t := m.selected(); t != nil {
		current = t.ID
	}
	m.roots = m.session.Tasks()
	m.rows = Flatten(m.roots)
	m.now = m.session.Now()
	for i, r := range m.rows {
		if r.Task.ID == current {
			m.cursor = i
			return m
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

// View renders the live view
func (m WatchModel) View() string {
	header := titleStyle.Render("tock") + secondaryStyle.Render(fmt.Sprintf("  %s  total %s",
		m.date, timer.FormatClock(timer.ForestTotal(m.roots, m.now))))

	var body strings.Builder
	if len(m.rows) == 0 {
		body.WriteString(mutedStyle.Render("No tasks for this day. Use 'tock add' to create one."))
	}
	for i, r := range m.rows {
		prefix := "  "
		if i == m.cursor {
			prefix = selectedStyle.Render("› ")
		}
		body.WriteString(prefix + RenderRow(r, m.now, i == m.cursor))
		if i < len(m.rows)-1 {
			body.WriteString("\n")
		}
	}

	panelStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Padding(0, 1)
	if m.width > 4 {
		panelStyle = panelStyle.Width(m.width - 2)
	}

	var statusLine string
	switch {
	case m.err != nil:
		statusLine = errorStyle.Render("Error: " + m.err.Error())
	case m.status != "":
		statusLine = secondaryStyle.Render(m.status)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		panelStyle.Render(body.String()),
		statusLine,
		m.renderHelpBar(),
	)
}

func (m WatchModel) renderHelpBar() string {
	return helpStyle.Render("↑/↓ select • s start • p pause • x stop • d delete • J/K move • r reload • q quit")
}
