// Package api is the typed HTTP client for the timer-task store.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/balkashynov/tock/internal/models"
)

const (
	tasksPath      = "/timer-tasks"
	batchOrderPath = "/timer-tasks/batch-order"
	datesPath      = "/timer-tasks/dates"
	runningPath    = "/timer-tasks/running"

	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
)

// Options configures a Client
type Options struct {
	BaseURL     string
	HTTPClient  *http.Client
	Timeout     time.Duration
	MaxRetries  int
	RetryDelays []time.Duration
	OnRetry     RetryFunc
	Logger      *log.Logger
}

// Client talks to the backing store
type Client struct {
	baseURL string
	client  *http.Client
	retry   RetryPolicy
	logger  *log.Logger
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "failed to decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// NewClient creates a new store client
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	// Zero means the default; pass a negative value to disable retries
	retries := opts.MaxRetries
	switch {
	case retries == 0:
		retries = DefaultMaxRetries
	case retries < 0:
		retries = 0
	}
	delays := opts.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  httpClient,
		logger:  logger,
	}
	c.retry = RetryPolicy{
		MaxRetries: retries,
		Delays:     delays,
		OnRetry: func(op string, attempt int, err error) {
			c.logger.Printf("[api] %s: retry %d/%d: %v", op, attempt, retries, err)
			if opts.OnRetry != nil {
				opts.OnRetry(op, attempt, err)
			}
		},
	}
	return c
}

// List returns the tasks of an owner for one date (YYYY-MM-DD)
func (c *Client) List(ctx context.Context, ownerID, date string) ([]models.TimerTask, error) {
	q := url.Values{"ownerId": {ownerID}, "date": {date}}
	var tasks []models.TimerTask
	if err := c.do(ctx, "list", http.MethodGet, tasksPath+"?"+q.Encode(), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListRange returns the tasks of an owner between two dates, inclusive
func (c *Client) ListRange(ctx context.Context, ownerID, from, to string) ([]models.TimerTask, error) {
	q := url.Values{"ownerId": {ownerID}, "startDate": {from}, "endDate": {to}}
	var tasks []models.TimerTask
	if err := c.do(ctx, "list range", http.MethodGet, tasksPath+"?"+q.Encode(), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Dates returns every date an owner has tasks on, newest first
func (c *Client) Dates(ctx context.Context, ownerID string) ([]string, error) {
	q := url.Values{"ownerId": {ownerID}}
	var dates []string
	if err := c.do(ctx, "dates", http.MethodGet, datesPath+"?"+q.Encode(), nil, &dates); err != nil {
		return nil, err
	}
	return dates, nil
}

// Running returns an owner's running tasks on any date
func (c *Client) Running(ctx context.Context, ownerID string) ([]models.TimerTask, error) {
	q := url.Values{"ownerId": {ownerID}}
	var tasks []models.TimerTask
	if err := c.do(ctx, "running", http.MethodGet, runningPath+"?"+q.Encode(), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Create validates req locally and creates the task, retrying transient failures
func (c *Client) Create(ctx context.Context, req models.CreateTaskRequest) (*models.TimerTask, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var task models.TimerTask
	err := c.retry.do(ctx, "create", func() error {
		return c.do(ctx, "create", http.MethodPost, tasksPath, req, &task)
	})
	if err != nil {
		return nil, err
	}
	c.logger.Printf("[api] created %q (%s)", task.Name, task.ID)
	return &task, nil
}

// Update sends a partial update once. Conflicts come back as a 409
// *StatusError; callers decide whether to resend.
func (c *Client) Update(ctx context.Context, patch models.TaskPatch) (*models.TimerTask, error) {
	if patch.ID == "" {
		return nil, fmt.Errorf("%w: task id is required", ErrValidation)
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}
	var task models.TimerTask
	if err := c.do(ctx, "update", http.MethodPut, tasksPath, patch, &task); err != nil {
		return nil, err
	}
	c.logger.Printf("[api] updated %q to version %d", task.Name, task.Version)
	return &task, nil
}

// Delete removes a single task by id, retrying transient failures
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: task id is required", ErrValidation)
	}
	q := url.Values{"id": {id}}
	return c.retry.do(ctx, "delete", func() error {
		return c.do(ctx, "delete", http.MethodDelete, tasksPath+"?"+q.Encode(), nil, nil)
	})
}

// BatchReorder assigns sibling positions in one call, retrying transient failures
func (c *Client) BatchReorder(ctx context.Context, updates []models.OrderUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	body := models.BatchOrderRequest{Updates: updates}
	err := c.retry.do(ctx, "batch reorder", func() error {
		return c.do(ctx, "batch reorder", http.MethodPut, batchOrderPath, body, nil)
	})
	if err == nil {
		c.logger.Printf("[api] reordered %d tasks", len(updates))
	}
	return err
}

// do performs one request. A nil out discards the response body.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, Code: resp.StatusCode, Body: data}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w", op, &decodeError{err: err})
	}
	return nil
}
