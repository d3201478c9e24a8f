package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/balkashynov/tock/internal/api"
	"github.com/balkashynov/tock/internal/guard"
	"github.com/balkashynov/tock/internal/models"
	"github.com/balkashynov/tock/internal/reorder"
	"github.com/balkashynov/tock/internal/scheduler"
	"github.com/balkashynov/tock/internal/timer"
)

// Create adds a task. Owner and date default to the controller's. The task
// appears in the tree at once under a local id, which is swapped for the
// store's id when the create succeeds; edits made to it meanwhile are then
// saved, and a delete made meanwhile removes the stored task again. With
// AutoStart, running tasks are paused first.
func (c *Controller) Create(ctx context.Context, req models.CreateTaskRequest) (*models.TimerTask, error) {
	if req.OwnerID == "" {
		req.OwnerID = c.opts.OwnerID
	}
	if req.Date == "" {
		req.Date = c.opts.Date
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tree := c.Tree()
	parent := ""
	if req.ParentID != nil && *req.ParentID != "" {
		if IsLocal(*req.ParentID) {
			return nil, fmt.Errorf("parent %s: %w", *req.ParentID, ErrPending)
		}
		if _, ok := tree.Get(*req.ParentID); !ok {
			return nil, fmt.Errorf("parent %s: %w", *req.ParentID, ErrUnknownTask)
		}
		parent = *req.ParentID
	} else {
		req.ParentID = nil
	}
	order := len(tree.Children(parent))
	if req.Order != nil {
		order = *req.Order
	}

	at := c.clock()
	local := &models.TimerTask{
		ID:           fmt.Sprintf("%s%d", localPrefix, c.seq.Add(1)),
		CreatedAt:    at,
		UpdatedAt:    at,
		OwnerID:      req.OwnerID,
		Date:         req.Date,
		Name:         req.Name,
		CategoryPath: req.CategoryPath,
		ElapsedTime:  req.InitialTime,
		InitialTime:  req.InitialTime,
		ParentID:     req.ParentID,
		Order:        order,
	}
	if req.InstanceTag != nil && *req.InstanceTag != "" {
		local.InstanceTag = models.String(*req.InstanceTag)
	}
	c.apply(local)
	c.record("create", local, req.CategoryPath)

	var pauseErr error
	if req.AutoStart {
		plan, err := scheduler.NewPlan(c.Tree(), local.ID, at.Unix())
		if err != nil {
			return nil, err
		}
		revs := c.apply(plan.Changed()...)
		res, _ := scheduler.New(writer{c, revs}, c.logger).Execute(ctx, scheduler.Plan{TargetID: local.ID, Pauses: plan.Pauses})
		pauseErr = c.afterPauses(res)
	}

	rev := c.rev(local.ID)
	c.writeMu.Lock()
	saved, err := c.client.Create(ctx, req)
	if err != nil {
		c.writeMu.Unlock()
		var se *api.StatusError
		if errors.As(err, &se) && !se.Temporary() {
			c.drop(local.ID)
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	stored, follow, ok := c.swap(local.ID, rev, saved)
	if !ok {
		c.logger.Printf("[controller] %q was deleted while being created, removing %s", saved.Name, saved.ID)
		derr := c.client.Delete(ctx, saved.ID)
		c.writeMu.Unlock()
		if derr != nil && !errors.Is(derr, api.ErrNotFound) {
			return nil, fmt.Errorf("failed to remove deleted task %q: %w", saved.Name, derr)
		}
		return nil, fmt.Errorf("%q was deleted before it was saved: %w", saved.Name, ErrUnknownTask)
	}
	c.writeMu.Unlock()
	c.publish()

	if !follow.Empty() {
		if _, err := c.send(ctx, follow, c.rev(stored.ID)); err != nil {
			pauseErr = errors.Join(pauseErr, fmt.Errorf("failed to save changes to %q: %w", stored.Name, err))
		}
	}
	if pauseErr != nil {
		if guard.IsConflict(pauseErr) {
			_ = c.Load(ctx)
		}
		if c.opts.OnError != nil {
			c.opts.OnError(pauseErr)
		}
	}
	if cur, ok := c.Get(stored.ID); ok {
		return cur, nil
	}
	return stored, nil
}

// AddSubtask creates a child of parentID in the parent's category, placed
// after the existing children
func (c *Controller) AddSubtask(ctx context.Context, parentID, name string, initialTime int64) (*models.TimerTask, error) {
	parent, err := c.lookup(parentID)
	if err != nil {
		return nil, err
	}
	return c.Create(ctx, models.CreateTaskRequest{
		Name:         name,
		CategoryPath: parent.CategoryPath,
		InitialTime:  initialTime,
		ParentID:     models.String(parent.ID),
		Order:        models.Int(len(c.Tree().Children(parent.ID))),
	})
}

// Start runs id after pausing every other running task. Pauses are written
// one at a time before the start write.
func (c *Controller) Start(ctx context.Context, id string) error {
	if _, err := c.lookup(id); err != nil {
		return err
	}

	recorded := false
	return c.guarded(ctx, id, func(ctx context.Context) error {
		plan, err := scheduler.NewPlan(c.Tree(), id, c.clock.Unix())
		if errors.Is(err, timer.ErrNotFound) {
			return fmt.Errorf("%s: %w", id, ErrUnknownTask)
		}
		if err != nil {
			return err
		}
		if !recorded {
			t, _ := c.Tree().Get(id)
			c.record("start", t, "")
			recorded = true
		}
		revs := c.apply(plan.Changed()...)
		res, startErr := scheduler.New(writer{c, revs}, c.logger).Execute(ctx, plan)
		return errors.Join(c.afterPauses(res), startErr)
	})
}

// afterPauses drops tasks the store no longer has, notifies about the rest
// and returns the pause failures
func (c *Controller) afterPauses(res scheduler.Result) error {
	var paused []models.PausedTask
	var errs []error
	for _, o := range res.Pauses {
		before := o.Step.Before
		if o.Err != nil && errors.Is(o.Err, api.ErrNotFound) {
			c.drop(c.Tree().Subtree(before.ID)...)
			continue
		}
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("failed to pause %q: %w", before.Name, o.Err))
		}
		after := o.Step.After
		if o.Saved != nil {
			after = o.Saved
		}
		paused = append(paused, models.PausedTask{ID: after.ID, Name: after.Name, ElapsedTime: after.ElapsedTime})
		c.record("pause", after, "paused automatically")
	}
	if len(paused) > 0 && c.opts.OnTasksPaused != nil {
		c.opts.OnTasksPaused(paused)
	}
	return errors.Join(errs...)
}

// Pause folds the running interval into the task's elapsed time
func (c *Controller) Pause(ctx context.Context, id string) error {
	return c.edit(ctx, "pause", id, "", func(t *models.TimerTask) (*models.TimerTask, models.TaskPatch, error) {
		return timer.Pause(t, c.clock.Unix())
	})
}

// Stop ends a running or paused task
func (c *Controller) Stop(ctx context.Context, id string) error {
	return c.edit(ctx, "stop", id, "", func(t *models.TimerTask) (*models.TimerTask, models.TaskPatch, error) {
		return timer.Stop(t, c.clock.Unix())
	})
}

// Rename changes a task's name
func (c *Controller) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	return c.edit(ctx, "rename", id, name, patched(models.TaskPatch{Name: models.String(name)}))
}

// Recategorize files a task under another category path
func (c *Controller) Recategorize(ctx context.Context, id, categoryPath string) error {
	categoryPath = strings.Trim(strings.TrimSpace(categoryPath), "/")
	if categoryPath == "" {
		return fmt.Errorf("%w: categoryPath is required", models.ErrValidation)
	}
	return c.edit(ctx, "recategorize", id, categoryPath, patched(models.TaskPatch{CategoryPath: models.String(categoryPath)}))
}

// SetInstanceTag sets the comma-joined instance tags; empty clears them
func (c *Controller) SetInstanceTag(ctx context.Context, id, tag string) error {
	tag = strings.TrimSpace(tag)
	patch := models.TaskPatch{InstanceTag: models.String(tag)}
	if tag == "" {
		patch = models.TaskPatch{ClearInstanceTag: true}
	}
	return c.edit(ctx, "tag", id, tag, patched(patch))
}

// SetInitialTime changes the seeded time and shifts the elapsed baseline by
// the same amount, never below zero
func (c *Controller) SetInitialTime(ctx context.Context, id string, seconds int64) error {
	if seconds < 0 {
		return fmt.Errorf("%w: initialTime must be >= 0", models.ErrValidation)
	}
	return c.edit(ctx, "initial-time", id, timer.FormatSeconds(seconds), func(t *models.TimerTask) (*models.TimerTask, models.TaskPatch, error) {
		elapsed := max(t.ElapsedTime+seconds-t.InitialTime, 0)
		return patched(models.TaskPatch{
			InitialTime: models.Int64(seconds),
			ElapsedTime: models.Int64(elapsed),
		})(t)
	})
}

// Reparent moves id under parentID ("" for top level), after the new
// siblings. Moves into the task's own subtree are rejected.
func (c *Controller) Reparent(ctx context.Context, id, parentID string) error {
	tree := c.Tree()
	if err := tree.CanReparent(id, parentID); err != nil {
		if errors.Is(err, timer.ErrNotFound) {
			return fmt.Errorf("%s: %w", id, ErrUnknownTask)
		}
		return err
	}
	if tree.ParentOf(id) == parentID {
		return nil
	}
	if IsLocal(parentID) {
		return fmt.Errorf("parent %s: %w", parentID, ErrPending)
	}

	patch := models.TaskPatch{Order: models.Int(len(tree.Children(parentID)))}
	if parentID == "" {
		patch.ClearParentID = true
	} else {
		patch.ParentID = models.String(parentID)
	}
	return c.edit(ctx, "reparent", id, parentID, func(t *models.TimerTask) (*models.TimerTask, models.TaskPatch, error) {
		if err := c.Tree().CanReparent(id, parentID); err != nil {
			return nil, models.TaskPatch{}, err
		}
		return patched(patch)(t)
	})
}

// Delete removes id and its whole subtree. Children are deleted before
// their parents; tasks already gone from the store are skipped.
func (c *Controller) Delete(ctx context.Context, id string) error {
	t, err := c.lookup(id)
	if err != nil {
		return err
	}
	ids := c.Tree().PostOrder(id)
	c.drop(ids...)
	c.record("delete", t, fmt.Sprintf("%d subtasks", len(ids)-1))

	var stored, groups []string
	for _, tid := range ids {
		groups = append(groups, groupKey(tid))
		if !IsLocal(tid) {
			stored = append(stored, tid)
		}
	}
	c.reorder.Forget(groups...)
	if len(stored) == 0 {
		return nil
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	for _, tid := range stored {
		if err := c.client.Delete(ctx, tid); err != nil && !errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("failed to delete %s: %w", tid, err)
		}
	}
	return nil
}

// Reorder moves the child of parentID at from to position to. The new
// order applies locally at once and is saved in the background.
func (c *Controller) Reorder(parentID string, from, to int) error {
	tree := c.Tree()
	if parentID != "" {
		if _, ok := tree.Get(parentID); !ok {
			return fmt.Errorf("%s: %w", parentID, ErrUnknownTask)
		}
	}
	ids := tree.Children(parentID)
	siblings := make([]*models.TimerTask, 0, len(ids))
	for _, sid := range ids {
		s, _ := tree.Get(sid)
		siblings = append(siblings, s)
	}

	if from == to && from >= 0 && from < len(siblings) && reorder.Contiguous(siblings) {
		return nil
	}
	moved, updates, err := reorder.Move(siblings, from, to)
	if err != nil {
		return err
	}
	c.apply(moved...)
	c.record("reorder", moved[to], fmt.Sprintf("%d -> %d", from, to))
	c.reorder.Submit(groupKey(parentID), updates)
	return nil
}

// MoveTo places id at position among its siblings
func (c *Controller) MoveTo(id string, position int) error {
	tree := c.Tree()
	if _, ok := tree.Get(id); !ok {
		return fmt.Errorf("%s: %w", id, ErrUnknownTask)
	}
	parent := tree.ParentOf(id)
	for i, sid := range tree.Children(parent) {
		if sid == id {
			return c.Reorder(parent, i, position)
		}
	}
	return fmt.Errorf("%s: %w", id, ErrUnknownTask)
}

func groupKey(parentID string) string {
	if parentID == "" {
		return "root"
	}
	return parentID
}

// edit applies change to the current record, persists its patch and
// resolves conflicts
func (c *Controller) edit(ctx context.Context, action, id, details string, change func(*models.TimerTask) (*models.TimerTask, models.TaskPatch, error)) error {
	if _, err := c.lookup(id); err != nil {
		return err
	}

	recorded := false
	return c.guarded(ctx, id, func(ctx context.Context) error {
		cur, err := c.lookup(id)
		if err != nil {
			return err
		}
		after, patch, err := change(cur)
		if err != nil {
			return err
		}
		if !recorded {
			c.record(action, cur, details)
			recorded = true
		}
		revs := c.apply(after)
		_, err = c.send(ctx, patch, revs[id])
		return err
	})
}

// patched builds a change that applies a fixed patch
func patched(patch models.TaskPatch) func(*models.TimerTask) (*models.TimerTask, models.TaskPatch, error) {
	return func(t *models.TimerTask) (*models.TimerTask, models.TaskPatch, error) {
		patch.ID = t.ID
		after := t.Clone()
		patch.Apply(after)
		return after, patch, nil
	}
}
