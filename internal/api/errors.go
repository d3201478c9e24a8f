package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/balkashynov/tock/internal/models"
)

var (
	// ErrValidation is returned before any request is sent
	ErrValidation = models.ErrValidation
	// ErrNotFound is returned when the store no longer has the task
	ErrNotFound = errors.New("task not found")
)

// StatusError is a non-2xx response from the store
type StatusError struct {
	Op   string
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: store returned %d %s: %s", e.Op, e.Code, http.StatusText(e.Code), string(e.Body))
}

// Is lets errors.Is(err, ErrNotFound) match a 404
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// Temporary reports whether the failure is worth retrying
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// RetryError is returned once every attempt of a retried call has failed
type RetryError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s: giving up after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }

// IsStatus reports whether err carries the given HTTP status code
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
