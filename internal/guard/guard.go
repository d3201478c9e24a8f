// Package guard turns version conflicts reported by the store into a typed
// error. It never resends a conflicted write.
package guard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/balkashynov/tock/internal/api"
	"github.com/balkashynov/tock/internal/models"
)

// Updater is the update call the guard decorates
type Updater interface {
	Update(ctx context.Context, patch models.TaskPatch) (*models.TimerTask, error)
}

// ConflictError reports a write carrying a stale version
type ConflictError struct {
	TaskID         string
	TaskName       string
	CurrentVersion int
	RequestVersion int
}

func (e *ConflictError) Error() string {
	name := e.TaskName
	if name == "" {
		name = e.TaskID
	}
	return fmt.Sprintf("version conflict on %q: store has version %d, request carried %d", name, e.CurrentVersion, e.RequestVersion)
}

// IsConflict reports whether err is, or wraps, a *ConflictError
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// AsConflict extracts the conflict from err
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	ok := errors.As(err, &ce)
	return ce, ok
}

// Guard wraps an Updater and classifies 409 responses
type Guard struct {
	next       Updater
	onConflict func(*ConflictError)
}

// New wraps next. onConflict, if set, observes every conflict.
func New(next Updater, onConflict func(*ConflictError)) *Guard {
	return &Guard{next: next, onConflict: onConflict}
}

// Update forwards patch and converts a 409 into a *ConflictError
func (g *Guard) Update(ctx context.Context, patch models.TaskPatch) (*models.TimerTask, error) {
	task, err := g.next.Update(ctx, patch)
	if err == nil {
		return task, nil
	}

	var se *api.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusConflict {
		return nil, err
	}

	ce := &ConflictError{TaskID: patch.ID}
	if patch.Version != nil {
		ce.RequestVersion = *patch.Version
	}
	var body models.ConflictBody
	if json.Unmarshal(se.Body, &body) == nil {
		ce.TaskName = body.TaskName
		ce.CurrentVersion = body.CurrentVersion
	}
	if g.onConflict != nil {
		g.onConflict(ce)
	}
	return nil, ce
}
