package tui

import (
	"fmt"
	"strings"

	"github.com/balkashynov/tock/internal/models"
	"github.com/balkashynov/tock/internal/timer"
)

// Row is one line of the rendered task tree
type Row struct {
	Task   *models.TimerTask
	Depth  int
	Parent string // id of the row this one is nested under, "" for roots
}

// Flatten walks assembled roots depth-first, children in order. A task
// whose parent is not loaded is a root here, whatever its ParentID says.
func Flatten(roots []*models.TimerTask) []Row {
	var rows []Row
	var walk func(ts []*models.TimerTask, depth int, parent string)
	walk = func(ts []*models.TimerTask, depth int, parent string) {
		for _, t := range ts {
			rows = append(rows, Row{Task: t, Depth: depth, Parent: parent})
			walk(t.Children, depth+1, t.ID)
		}
	}
	walk(roots, 0, "")
	return rows
}

// ShortID trims store ids to something typeable
func ShortID(id string) string {
	if strings.HasPrefix(id, "local-") || len(id) <= 8 {
		return id
	}
	return id[:8]
}

func marker(t *models.TimerTask) string {
	switch t.State() {
	case models.StateRunning:
		return runningStyle.Render("▶")
	case models.StatePaused:
		return pausedStyle.Render("‖")
	default:
		return mutedStyle.Render("■")
	}
}

// RenderRow renders a single task line. Parents also show their subtree total.
func RenderRow(r Row, now int64, selected bool) string {
	t := r.Task
	clock := timer.FormatClock(timer.DisplayTime(t, now))
	switch t.State() {
	case models.StateRunning:
		clock = runningStyle.Render(clock)
	case models.StatePaused:
		clock = pausedStyle.Render(clock)
	default:
		clock = mutedStyle.Render(clock)
	}

	name := t.Name
	if tag := t.Tag(); tag != "" {
		name += " #" + strings.ReplaceAll(tag, ",", " #")
	}
	if selected {
		name = selectedStyle.Render(name)
	} else {
		name = nameStyle.Render(name)
	}

	var b strings.Builder
	b.WriteString(strings.Repeat("  ", r.Depth))
	b.WriteString(marker(t))
	b.WriteString(" ")
	b.WriteString(clock)
	b.WriteString("  ")
	b.WriteString(name)
	if r.Depth == 0 {
		b.WriteString(secondaryStyle.Render("  @" + timer.CategoryDisplay(t.CategoryPath)))
	}
	if len(t.Children) > 0 {
		b.WriteString(secondaryStyle.Render(fmt.Sprintf("  Σ %s", timer.FormatSeconds(timer.SubtreeTotal(t, now)))))
	}
	b.WriteString(mutedStyle.Render("  " + ShortID(t.ID)))
	return b.String()
}

// RenderTree renders the whole forest with a day total footer
func RenderTree(roots []*models.TimerTask, now int64) string {
	var b strings.Builder
	for _, r := range Flatten(roots) {
		b.WriteString(RenderRow(r, now, false))
		b.WriteString("\n")
	}
	b.WriteString(secondaryStyle.Render("Total: " + timer.FormatSeconds(timer.ForestTotal(roots, now))))
	b.WriteString("\n")
	return b.String()
}

// RenderGroups renders tasks under their category headers
func RenderGroups(groups []*models.CategoryGroup, now int64) string {
	var b strings.Builder
	var walk func(gs []*models.CategoryGroup)
	walk = func(gs []*models.CategoryGroup) {
		for _, g := range gs {
			indent := strings.Repeat("  ", g.Level-1)
			header := fmt.Sprintf("%s%s  %s", indent, g.DisplayName, timer.FormatSeconds(g.TotalTime))
			if g.RunningCount > 0 {
				header += fmt.Sprintf("  (%d running)", g.RunningCount)
			}
			b.WriteString(groupStyle.Render(header))
			b.WriteString("\n")
			for _, r := range Flatten(g.Tasks) {
				r.Depth += g.Level
				b.WriteString(RenderRow(r, now, false))
				b.WriteString("\n")
			}
			walk(g.SubGroups)
		}
	}
	walk(groups)
	return b.String()
}
