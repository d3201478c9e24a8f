// Package scheduler enforces that at most one task runs at a time: before a
// task starts, every other running task in the forest is paused.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/balkashynov/tock/internal/models"
	"github.com/balkashynov/tock/internal/timer"
)

// Updater persists a single task patch
type Updater interface {
	Update(ctx context.Context, patch models.TaskPatch) (*models.TimerTask, error)
}

// Step is one transition the plan will persist
type Step struct {
	Before *models.TimerTask // record the plan was computed from
	After  *models.TimerTask // optimistic result
	Patch  models.TaskPatch  // carries Before.Version
}

// Plan lists the pause writes to issue, in order, before the start write.
// Start is nil when the target is already running.
type Plan struct {
	TargetID string
	Pauses   []Step
	Start    *Step
}

// Paused reports the tasks the plan pauses as a side effect
func (p Plan) Paused() []models.PausedTask {
	out := make([]models.PausedTask, 0, len(p.Pauses))
	for _, s := range p.Pauses {
		out = append(out, models.PausedTask{ID: s.After.ID, Name: s.After.Name, ElapsedTime: s.After.ElapsedTime})
	}
	return out
}

// Changed returns every optimistic record the plan produces
func (p Plan) Changed() []*models.TimerTask {
	var out []*models.TimerTask
	for _, s := range p.Pauses {
		out = append(out, s.After)
	}
	if p.Start != nil {
		out = append(out, p.Start.After)
	}
	return out
}

// NewPlan computes the transitions needed to start targetID at now
func NewPlan(tree *timer.Tree, targetID string, now int64) (Plan, error) {
	target, ok := tree.Get(targetID)
	if !ok {
		return Plan{}, fmt.Errorf("%s: %w", targetID, timer.ErrNotFound)
	}

	plan := Plan{TargetID: targetID}
	for _, r := range tree.Running() {
		if r.ID == targetID {
			continue
		}
		after, patch, err := timer.Pause(r, now)
		if err != nil {
			return Plan{}, err
		}
		patch.Version = models.Int(r.Version)
		plan.Pauses = append(plan.Pauses, Step{Before: r, After: after, Patch: patch})
	}

	after, patch, err := timer.Start(target, now)
	switch {
	case errors.Is(err, timer.ErrAlreadyRunning):
		if len(plan.Pauses) == 0 {
			return Plan{}, err
		}
	case err != nil:
		return Plan{}, err
	default:
		patch.Version = models.Int(target.Version)
		plan.Start = &Step{Before: target, After: after, Patch: patch}
	}
	return plan, nil
}

// Outcome is the result of persisting one step
type Outcome struct {
	Step  Step
	Saved *models.TimerTask // server copy, nil on failure
	Err   error
}

// Result collects what Execute did
type Result struct {
	Pauses []Outcome
	Start  *Outcome
}

// Failed returns the outcomes that did not persist
func (r Result) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Pauses {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	if r.Start != nil && r.Start.Err != nil {
		out = append(out, *r.Start)
	}
	return out
}

// Scheduler persists plans through an Updater
type Scheduler struct {
	updater Updater
	logger  *log.Logger
}

// New creates a scheduler writing through updater
func New(updater Updater, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Scheduler{updater: updater, logger: logger}
}

// Execute issues every pause write, each awaited before the next, then the
// start write. A failed pause does not prevent the start; the returned error
// is the start write's error.
func (s *Scheduler) Execute(ctx context.Context, plan Plan) (Result, error) {
	var res Result
	for _, step := range plan.Pauses {
		saved, err := s.updater.Update(ctx, step.Patch)
		if err != nil {
			s.logger.Printf("[scheduler] pausing %q failed: %v", step.Before.Name, err)
		} else {
			s.logger.Printf("[scheduler] paused %q at %ds", saved.Name, saved.ElapsedTime)
		}
		res.Pauses = append(res.Pauses, Outcome{Step: step, Saved: saved, Err: err})
	}

	if plan.Start == nil {
		return res, nil
	}
	saved, err := s.updater.Update(ctx, plan.Start.Patch)
	res.Start = &Outcome{Step: *plan.Start, Saved: saved, Err: err}
	if err != nil {
		return res, err
	}
	s.logger.Printf("[scheduler] started %q", saved.Name)
	return res, nil
}

// Start plans and executes in one call
func (s *Scheduler) Start(ctx context.Context, tree *timer.Tree, targetID string, now int64) (Plan, Result, error) {
	plan, err := NewPlan(tree, targetID, now)
	if err != nil {
		return Plan{}, Result{}, err
	}
	res, err := s.Execute(ctx, plan)
	return plan, res, err
}

// Anomalies returns the running tasks when more than one is running.
// That state is recoverable: the next start pauses all but one.
func Anomalies(tree *timer.Tree) []*models.TimerTask {
	running := tree.Running()
	if len(running) > 1 {
		return running
	}
	return nil
}
