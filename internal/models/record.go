package models

import "time"

// OperationRecord describes a user-visible operation performed on a task
type OperationRecord struct {
	Action   string    `json:"action"` // start, pause, stop, create, delete, rename, ...
	TaskID   string    `json:"taskId"`
	TaskName string    `json:"taskName"`
	Details  string    `json:"details,omitempty"`
	At       time.Time `json:"at"`
}

// CategoryGroup aggregates top-level tasks sharing a category prefix
type CategoryGroup struct {
	ID           string           `json:"id"`
	CategoryPath string           `json:"categoryPath"` // prefix this group covers
	CategoryName string           `json:"categoryName"` // last segment of the prefix
	DisplayName  string           `json:"displayName"`
	Level        int              `json:"level"` // 1..3
	Tasks        []*TimerTask     `json:"tasks"` // tasks filed directly at this level
	SubGroups    []*CategoryGroup `json:"subGroups,omitempty"`
	TotalTime    int64            `json:"totalTime"`
	RunningCount int              `json:"runningCount"`
}

// PausedTask identifies a task paused as a side effect of starting another
type PausedTask struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ElapsedTime int64  `json:"elapsedTime"`
}
