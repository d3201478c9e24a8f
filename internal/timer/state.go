package timer

import (
	"errors"
	"fmt"

	"github.com/balkashynov/tock/internal/models"
)

var (
	ErrAlreadyRunning = errors.New("task is already running")
	ErrNotRunning     = errors.New("task is not running")
	ErrAlreadyStopped = errors.New("task is already stopped")
)

// Start moves a stopped or paused task to running. It returns the updated
// copy and the patch that persists the transition.
func Start(t *models.TimerTask, now int64) (*models.TimerTask, models.TaskPatch, error) {
	if t.State() == models.StateRunning {
		return nil, models.TaskPatch{}, fmt.Errorf("%s: %w", t.Name, ErrAlreadyRunning)
	}
	patch := models.TaskPatch{
		ID:         t.ID,
		IsRunning:  models.Bool(true),
		IsPaused:   models.Bool(false),
		StartTime:  models.Int64(now),
		PausedTime: models.Int64(0),
	}
	return applied(t, patch), patch, nil
}

// Pause folds the running interval into the elapsed baseline and marks the
// task paused. Any task flagged as running can be paused, even one whose
// start time went missing; such a task contributes no interval.
func Pause(t *models.TimerTask, now int64) (*models.TimerTask, models.TaskPatch, error) {
	if !t.IsRunning {
		return nil, models.TaskPatch{}, fmt.Errorf("%s: %w", t.Name, ErrNotRunning)
	}
	return halt(t, now, true)
}

// Stop ends a running or paused task. It leaves the same fields as Pause
// except isPaused, which is cleared.
func Stop(t *models.TimerTask, now int64) (*models.TimerTask, models.TaskPatch, error) {
	if !t.IsRunning && !t.IsPaused {
		return nil, models.TaskPatch{}, fmt.Errorf("%s: %w", t.Name, ErrAlreadyStopped)
	}
	return halt(t, now, false)
}

func halt(t *models.TimerTask, now int64, paused bool) (*models.TimerTask, models.TaskPatch, error) {
	elapsed := t.ElapsedTime
	if t.IsRunning {
		elapsed += runningFor(t, now)
	}
	patch := models.TaskPatch{
		ID:             t.ID,
		ElapsedTime:    models.Int64(elapsed),
		IsRunning:      models.Bool(false),
		IsPaused:       models.Bool(paused),
		ClearStartTime: true,
		PausedTime:     models.Int64(0),
	}
	return applied(t, patch), patch, nil
}

func applied(t *models.TimerTask, patch models.TaskPatch) *models.TimerTask {
	c := t.Clone()
	patch.Apply(c)
	return c
}
