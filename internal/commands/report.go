package commands

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tock/internal/config"
	"github.com/balkashynov/tock/internal/models"
	"github.com/balkashynov/tock/internal/parser"
	"github.com/balkashynov/tock/internal/timer"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show a weekly timesheet by category",
	Long: `Show tracked time per category for each day of a calendar week.

Example output:
  Category         Mon   Tue   Wed   Thu   Fri   Sat   Sun   Total
  Work / Dev      2.0h  3.5h     -     -     -     -     -    5.5h
  Life            0.5h     -     -     -     -     -     -    0.5h
  Total           2.5h  3.5h     -     -     -     -     -    6.0h

Examples:
  tock report                  # This week
  tock report --week-of 2026-10-05`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		ref := time.Now()
		if v, _ := cmd.Flags().GetString("week-of"); v != "" {
			day, err := parser.ParseDate(v, ref)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			ref, _ = time.ParseInLocation("2006-01-02", day, time.Local)
		}

		weekStart := getWeekStart(ref)
		from := parser.FormatDate(weekStart)
		to := parser.FormatDate(weekStart.AddDate(0, 0, 6))
		tasks, err := newClient(cfg, newLogger()).ListRange(cmd.Context(), cfg.Client.OwnerID, from, to)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		sheet := buildTimesheet(tasks, weekStart, time.Now().Unix())
		if len(sheet.rows) == 0 {
			fmt.Printf("No time tracked between %s and %s.\n", from, to)
			return
		}
		fmt.Printf("Week of %s\n\n", from)
		fmt.Print(sheet.String())
	},
}

// timesheet holds seconds per category per weekday, Monday first
type timesheet struct {
	rows   []string
	cells  map[string]*[7]int64
	totals [7]int64
}

// buildTimesheet sums each task's own display time into its category and
// day. Subtasks count in their own category so nothing is counted twice.
func buildTimesheet(tasks []models.TimerTask, weekStart time.Time, now int64) timesheet {
	ts := timesheet{cells: map[string]*[7]int64{}}
	for i := range tasks {
		t := &tasks[i]
		day, err := time.ParseInLocation("2006-01-02", t.Date, weekStart.Location())
		if err != nil {
			continue
		}
		col := int(math.Round(day.Sub(weekStart).Hours() / 24))
		if col < 0 || col > 6 {
			continue
		}
		seconds := timer.DisplayTime(t, now)
		if seconds == 0 {
			continue
		}
		key := timer.CategoryDisplay(t.CategoryPath)
		if key == "" {
			key = timer.Uncategorized
		}
		row, ok := ts.cells[key]
		if !ok {
			row = &[7]int64{}
			ts.cells[key] = row
			ts.rows = append(ts.rows, key)
		}
		row[col] += seconds
		ts.totals[col] += seconds
	}
	sort.Strings(ts.rows)
	return ts
}

func hours(seconds int64) string {
	if seconds == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1fh", float64(seconds)/3600)
}

func (ts timesheet) String() string {
	width := len("Category")
	for _, r := range ts.rows {
		width = max(width, len(r))
	}
	line := func(label string, cells [7]int64) string {
		var b strings.Builder
		fmt.Fprintf(&b, "%-*s", width+2, label)
		var sum int64
		for _, c := range cells {
			fmt.Fprintf(&b, "%6s", hours(c))
			sum += c
		}
		fmt.Fprintf(&b, "%8s\n", hours(sum))
		return b.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s", width+2, "Category")
	for _, d := range []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"} {
		fmt.Fprintf(&b, "%6s", d)
	}
	fmt.Fprintf(&b, "%8s\n", "Total")
	for _, r := range ts.rows {
		b.WriteString(line(r, *ts.cells[r]))
	}
	b.WriteString(line("Total", ts.totals))
	return b.String()
}

// getWeekStart returns the start of the calendar week (Monday) for the given time
func getWeekStart(t time.Time) time.Time {
	weekday := t.Weekday()
	daysFromMonday := int(weekday - time.Monday)
	if weekday == time.Sunday {
		daysFromMonday = 6
	}
	weekStart := t.AddDate(0, 0, -daysFromMonday)
	return time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, weekStart.Location())
}

func init() {
	reportCmd.Flags().String("week-of", "", "Any day of the week to report (default: this week)")
}
