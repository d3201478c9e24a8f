// Package timer holds the pure parts of the timer engine: display time,
// state transitions, the task tree arena and category grouping. Nothing
// here performs I/O; the current time is always passed in.
package timer

import (
	"time"

	"github.com/balkashynov/tock/internal/models"
)

// Clock returns the current wall-clock time
type Clock func() time.Time

// SystemClock is the default Clock
var SystemClock Clock = time.Now

// Unix returns the clock reading in epoch seconds
func (c Clock) Unix() int64 {
	if c == nil {
		return time.Now().Unix()
	}
	return c().Unix()
}

// DisplayTime returns the live duration of a task in seconds: the persisted
// baseline plus the in-progress interval when the task is running.
func DisplayTime(t *models.TimerTask, now int64) int64 {
	if t == nil {
		return 0
	}
	if t.IsRunning && !t.IsPaused && t.StartTime != nil {
		return t.ElapsedTime + runningFor(t, now)
	}
	return t.ElapsedTime
}

// SubtreeTotal sums DisplayTime over t and all of its assembled children
func SubtreeTotal(t *models.TimerTask, now int64) int64 {
	if t == nil {
		return 0
	}
	total := DisplayTime(t, now)
	for _, c := range t.Children {
		total += SubtreeTotal(c, now)
	}
	return total
}

// ForestTotal sums SubtreeTotal over a list of roots
func ForestTotal(roots []*models.TimerTask, now int64) int64 {
	var total int64
	for _, r := range roots {
		total += SubtreeTotal(r, now)
	}
	return total
}

// runningFor is the current interval; a start time in the future counts as 0
func runningFor(t *models.TimerTask, now int64) int64 {
	if t.StartTime == nil {
		return 0
	}
	d := now - *t.StartTime
	if d < 0 {
		return 0
	}
	return d
}
