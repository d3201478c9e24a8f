package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is returned for requests rejected before any I/O
var ErrValidation = errors.New("validation failed")

// CreateTaskRequest holds the data needed to create a new task
type CreateTaskRequest struct {
	Name         string  `json:"name"`
	CategoryPath string  `json:"categoryPath"`
	InstanceTag  *string `json:"instanceTag,omitempty"`
	InitialTime  int64   `json:"initialTime"`
	OwnerID      string  `json:"ownerId"`
	Date         string  `json:"date"`
	ParentID     *string `json:"parentId,omitempty"`
	AutoStart    bool    `json:"autoStart,omitempty"`
	Order        *int    `json:"order,omitempty"`
}

// Validate checks the create contract. Name is trimmed in place.
func (r *CreateTaskRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.CategoryPath = strings.Trim(strings.TrimSpace(r.CategoryPath), "/")
	switch {
	case r.Name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case r.CategoryPath == "":
		return fmt.Errorf("%w: categoryPath is required", ErrValidation)
	case r.InitialTime < 0:
		return fmt.Errorf("%w: initialTime must be >= 0", ErrValidation)
	case r.OwnerID == "":
		return fmt.Errorf("%w: ownerId is required", ErrValidation)
	case r.Date == "":
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	return nil
}

// TaskPatch is a partial update. Nil pointers are left untouched; the
// Clear* flags send an explicit null for the matching nullable field.
type TaskPatch struct {
	ID      string
	Version *int

	Name         *string
	CategoryPath *string
	InstanceTag  *string
	ElapsedTime  *int64
	InitialTime  *int64
	IsRunning    *bool
	IsPaused     *bool
	StartTime    *int64
	PausedTime   *int64
	ParentID     *string
	Order        *int

	ClearStartTime   bool
	ClearParentID    bool
	ClearInstanceTag bool
}

// MarshalJSON writes only the fields that are set
func (p TaskPatch) MarshalJSON() ([]byte, error) {
	m := map[string]any{"id": p.ID}
	if p.Version != nil {
		m["version"] = *p.Version
	}
	if p.Name != nil {
		m["name"] = *p.Name
	}
	if p.CategoryPath != nil {
		m["categoryPath"] = *p.CategoryPath
	}
	if p.ElapsedTime != nil {
		m["elapsedTime"] = *p.ElapsedTime
	}
	if p.InitialTime != nil {
		m["initialTime"] = *p.InitialTime
	}
	if p.IsRunning != nil {
		m["isRunning"] = *p.IsRunning
	}
	if p.IsPaused != nil {
		m["isPaused"] = *p.IsPaused
	}
	if p.PausedTime != nil {
		m["pausedTime"] = *p.PausedTime
	}
	if p.Order != nil {
		m["order"] = *p.Order
	}
	setNullable(m, "startTime", p.StartTime, p.ClearStartTime)
	setNullable(m, "parentId", p.ParentID, p.ClearParentID)
	setNullable(m, "instanceTag", p.InstanceTag, p.ClearInstanceTag)
	return json.Marshal(m)
}

func setNullable[T any](m map[string]any, key string, v *T, clear bool) {
	switch {
	case clear:
		m[key] = nil
	case v != nil:
		m[key] = *v
	}
}

// UnmarshalJSON distinguishes an absent key from an explicit null
func (p *TaskPatch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = TaskPatch{}

	fields := []struct {
		key   string
		dst   any
		clear *bool
	}{
		{"id", &p.ID, nil},
		{"version", &p.Version, nil},
		{"name", &p.Name, nil},
		{"categoryPath", &p.CategoryPath, nil},
		{"elapsedTime", &p.ElapsedTime, nil},
		{"initialTime", &p.InitialTime, nil},
		{"isRunning", &p.IsRunning, nil},
		{"isPaused", &p.IsPaused, nil},
		{"pausedTime", &p.PausedTime, nil},
		{"order", &p.Order, nil},
		{"startTime", &p.StartTime, &p.ClearStartTime},
		{"parentId", &p.ParentID, &p.ClearParentID},
		{"instanceTag", &p.InstanceTag, &p.ClearInstanceTag},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		if string(v) == "null" {
			if f.clear != nil {
				*f.clear = true
			}
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return fmt.Errorf("field %s: %w", f.key, err)
		}
	}
	return nil
}

// Empty reports whether the patch changes nothing besides carrying an id
func (p TaskPatch) Empty() bool {
	return p.Name == nil && p.CategoryPath == nil && p.InstanceTag == nil &&
		p.ElapsedTime == nil && p.InitialTime == nil && p.IsRunning == nil &&
		p.IsPaused == nil && p.StartTime == nil && p.PausedTime == nil &&
		p.ParentID == nil && p.Order == nil &&
		!p.ClearStartTime && !p.ClearParentID && !p.ClearInstanceTag
}

// Apply copies the patch fields onto t. Version and timestamps are left
// to the caller.
func (p TaskPatch) Apply(t *TimerTask) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.CategoryPath != nil {
		t.CategoryPath = *p.CategoryPath
	}
	if p.ElapsedTime != nil {
		t.ElapsedTime = *p.ElapsedTime
	}
	if p.InitialTime != nil {
		t.InitialTime = *p.InitialTime
	}
	if p.IsRunning != nil {
		t.IsRunning = *p.IsRunning
	}
	if p.IsPaused != nil {
		t.IsPaused = *p.IsPaused
	}
	if p.PausedTime != nil {
		t.PausedTime = *p.PausedTime
	}
	if p.Order != nil {
		t.Order = *p.Order
	}
	switch {
	case p.ClearStartTime:
		t.StartTime = nil
	case p.StartTime != nil:
		t.StartTime = Int64(*p.StartTime)
	}
	switch {
	case p.ClearParentID:
		t.ParentID = nil
	case p.ParentID != nil:
		t.ParentID = String(*p.ParentID)
	}
	switch {
	case p.ClearInstanceTag:
		t.InstanceTag = nil
	case p.InstanceTag != nil:
		t.InstanceTag = String(*p.InstanceTag)
	}
}

// OrderUpdate assigns a sibling position to a task
type OrderUpdate struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// BatchOrderRequest is the body of the batch reorder call
type BatchOrderRequest struct {
	Updates []OrderUpdate `json:"updates"`
}

// ConflictBody is returned by the store alongside HTTP 409
type ConflictBody struct {
	Error          string `json:"error,omitempty"`
	TaskName       string `json:"taskName,omitempty"`
	CurrentVersion int    `json:"currentVersion"`
}
