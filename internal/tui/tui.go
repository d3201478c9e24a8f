package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/tock/internal/models"
)

// RunAddTaskTUI runs the add form. ok is false when the user cancelled.
func RunAddTaskTUI(initial string) (req models.CreateTaskRequest, ok bool, err error) {
	p := tea.NewProgram(NewAddTaskModel(initial), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return req, false, err
	}

	m, _ := finalModel.(AddTaskModel)
	if !m.completed {
		fmt.Println("❌ Task creation cancelled.")
		return req, false, nil
	}
	req, err = m.Request()
	return req, err == nil, err
}

// RunWatchTUI runs the live view until the user quits
func RunWatchTUI(session Session, date string) error {
	p := tea.NewProgram(NewWatchModel(session, date), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
