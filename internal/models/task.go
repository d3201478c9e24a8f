package models

import (
	"time"

	"gorm.io/gorm"
)

// TimerTask represents a timed unit of work, possibly nested under a parent
type TimerTask struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OwnerID string `gorm:"index;not null" json:"ownerId,omitempty"`
	Date    string `gorm:"index;size:10" json:"date,omitempty"` // YYYY-MM-DD

	Name         string  `gorm:"not null" json:"name"`
	CategoryPath string  `gorm:"not null" json:"categoryPath"` // slash-delimited, e.g. "Work/Dev"
	InstanceTag  *string `json:"instanceTag"`

	ElapsedTime int64  `gorm:"default:0" json:"elapsedTime"` // seconds folded in while not running
	InitialTime int64  `gorm:"default:0" json:"initialTime"` // seconds the task was seeded with
	IsRunning   bool   `gorm:"default:false" json:"isRunning"`
	IsPaused    bool   `gorm:"default:false" json:"isPaused"`
	StartTime   *int64 `json:"startTime"` // epoch seconds of the latest resume
	PausedTime  int64  `gorm:"default:0" json:"pausedTime"`

	ParentID *string `gorm:"index;size:36" json:"parentId"`
	Order    int     `gorm:"column:sort_order;default:0" json:"order"`
	Version  int     `gorm:"default:1" json:"version"`

	// Assembled from ParentID, never stored
	Children []*TimerTask `gorm:"-" json:"children,omitempty"`
}

// State is the derived lifecycle state of a task
type State int

const (
	StateStopped State = iota
	StatePaused
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return "stopped"
	}
}

// State collapses the persisted flags into one of three states.
// A task only counts as running while it has a start time to measure from.
func (t *TimerTask) State() State {
	switch {
	case t.IsRunning && !t.IsPaused && t.StartTime != nil:
		return StateRunning
	case !t.IsRunning && t.IsPaused:
		return StatePaused
	default:
		return StateStopped
	}
}

// IsTopLevel reports whether the task has no parent
func (t *TimerTask) IsTopLevel() bool {
	return t.ParentID == nil || *t.ParentID == ""
}

// Parent returns the parent id or "" for top-level tasks
func (t *TimerTask) Parent() string {
	if t.ParentID == nil {
		return ""
	}
	return *t.ParentID
}

// Tag returns the instance tag or ""
func (t *TimerTask) Tag() string {
	if t.InstanceTag == nil {
		return ""
	}
	return *t.InstanceTag
}

// Clone returns a copy of the task without its assembled children.
// Pointer fields are copied so the clone can be mutated independently.
func (t *TimerTask) Clone() *TimerTask {
	c := *t
	c.Children = nil
	if t.StartTime != nil {
		v := *t.StartTime
		c.StartTime = &v
	}
	if t.ParentID != nil {
		v := *t.ParentID
		c.ParentID = &v
	}
	if t.InstanceTag != nil {
		v := *t.InstanceTag
		c.InstanceTag = &v
	}
	return &c
}

// Int64 returns a pointer to v
func Int64(v int64) *int64 { return &v }

// Int returns a pointer to v
func Int(v int) *int { return &v }

// String returns a pointer to v
func String(v string) *string { return &v }

// Bool returns a pointer to v
func Bool(v bool) *bool { return &v }
