package controller

import (
	"errors"
	"strings"

	"github.com/balkashynov/tock/internal/models"
)

// local tasks exist only in the session tree until the store assigns an id
const localPrefix = "local-"

// ErrPending is returned when an operation needs the store id of a task
// whose create has not returned yet
var ErrPending = errors.New("task is not saved yet")

// IsLocal reports whether id belongs to a task the store has not confirmed
func IsLocal(id string) bool {
	return strings.HasPrefix(id, localPrefix)
}

// swap replaces the placeholder localID with the stored task. Changes made
// to the placeholder after rev are kept and returned as a patch for the
// store. It reports false when the placeholder was deleted meanwhile.
func (c *Controller) swap(localID string, rev uint64, saved *models.TimerTask) (*models.TimerTask, models.TaskPatch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.tree.Get(localID)
	if !ok {
		return nil, models.TaskPatch{}, false
	}
	stored := saved.Clone()
	stored.Children = nil
	var follow models.TaskPatch
	if c.revs[localID] != rev {
		want := cur.Clone()
		want.ID, want.Version = stored.ID, stored.Version
		want.CreatedAt, want.UpdatedAt = stored.CreatedAt, stored.UpdatedAt
		want.OwnerID, want.Date = stored.OwnerID, stored.Date
		follow = diffPatch(stored, want)
		stored = want
	}
	c.tree = c.tree.Remove(localID).Put(stored)
	delete(c.revs, localID)
	c.revs[stored.ID]++
	return stored.Clone(), follow, true
}

// diffPatch returns the patch that turns from into to
func diffPatch(from, to *models.TimerTask) models.TaskPatch {
	p := models.TaskPatch{ID: to.ID}
	if from.Name != to.Name {
		p.Name = models.String(to.Name)
	}
	if from.CategoryPath != to.CategoryPath {
		p.CategoryPath = models.String(to.CategoryPath)
	}
	if from.Tag() != to.Tag() {
		if to.Tag() == "" {
			p.ClearInstanceTag = true
		} else {
			p.InstanceTag = models.String(to.Tag())
		}
	}
	if from.ElapsedTime != to.ElapsedTime {
		p.ElapsedTime = models.Int64(to.ElapsedTime)
	}
	if from.InitialTime != to.InitialTime {
		p.InitialTime = models.Int64(to.InitialTime)
	}
	if from.IsRunning != to.IsRunning {
		p.IsRunning = models.Bool(to.IsRunning)
	}
	if from.IsPaused != to.IsPaused {
		p.IsPaused = models.Bool(to.IsPaused)
	}
	switch {
	case to.StartTime == nil && from.StartTime != nil:
		p.ClearStartTime = true
	case to.StartTime != nil && (from.StartTime == nil || *from.StartTime != *to.StartTime):
		p.StartTime = models.Int64(*to.StartTime)
	}
	if from.Parent() != to.Parent() {
		if to.Parent() == "" {
			p.ClearParentID = true
		} else {
			p.ParentID = models.String(to.Parent())
		}
	}
	if from.Order != to.Order {
		p.Order = models.Int(to.Order)
	}
	return p
}
