// Package controller is the façade the command line and live view use to
// operate on a day's tasks. Every operation mutates the in-memory tree
// first and then persists through the guarded API client.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/balkashynov/tock/internal/api"
	"github.com/balkashynov/tock/internal/guard"
	"github.com/balkashynov/tock/internal/models"
	"github.com/balkashynov/tock/internal/reorder"
	"github.com/balkashynov/tock/internal/scheduler"
	"github.com/balkashynov/tock/internal/timer"
)

// ErrUnknownTask is returned for ids missing from the loaded tree
var ErrUnknownTask = errors.New("unknown task")

// Client is the subset of the API client the controller needs
type Client interface {
	List(ctx context.Context, ownerID, date string) ([]models.TimerTask, error)
	Create(ctx context.Context, req models.CreateTaskRequest) (*models.TimerTask, error)
	Update(ctx context.Context, patch models.TaskPatch) (*models.TimerTask, error)
	Delete(ctx context.Context, id string) error
	BatchReorder(ctx context.Context, updates []models.OrderUpdate) error
}

// Options configures a Controller. OwnerID, Date and Client are required.
type Options struct {
	OwnerID string
	Date    string // YYYY-MM-DD
	Client  Client
	Clock   timer.Clock

	// OnConflict decides what to do after a version conflict; nil means Refresh
	OnConflict func(*guard.ConflictError) Resolution
	// OnTasksPaused reports tasks paused so that another could start
	OnTasksPaused func([]models.PausedTask)
	// OnError receives failures of background order writes
	OnError  func(error)
	OnRecord func(models.OperationRecord)
	Logger   *log.Logger
}

// Controller holds the session tree for one owner and date
type Controller struct {
	opts    Options
	client  Client
	guard   *guard.Guard
	reorder *reorder.Coordinator
	clock   timer.Clock
	logger  *log.Logger

	mu   sync.RWMutex
	tree *timer.Tree
	revs map[string]uint64 // bumped on every local mutation of a task
	subs map[int]func([]*models.TimerTask)
	next int

	// writeMu serializes writes so each one carries the version returned by the previous
	writeMu sync.Mutex
	seq     atomic.Int64
}

// New creates a controller with an empty tree; call Load to fetch tasks
func New(opts Options) (*Controller, error) {
	if opts.Client == nil {
		return nil, errors.New("controller: client is required")
	}
	if opts.OwnerID == "" || opts.Date == "" {
		return nil, fmt.Errorf("%w: owner and date are required", models.ErrValidation)
	}
	if opts.Clock == nil {
		opts.Clock = timer.SystemClock
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	c := &Controller{
		opts:   opts,
		client: opts.Client,
		guard:  guard.New(opts.Client, nil),
		clock:  opts.Clock,
		logger: logger,
		tree:   timer.Build(nil),
		revs:   make(map[string]uint64),
		subs:   make(map[int]func([]*models.TimerTask)),
	}
	c.reorder = reorder.NewCoordinator(opts.Client, reorder.Options{
		Logger: logger,
		OnError: func(group string, _ []models.OrderUpdate, err error) {
			if opts.OnError != nil {
				opts.OnError(fmt.Errorf("saving order of %s: %w", group, err))
			}
		},
	})
	return c, nil
}

// Load replaces the session tree with the store's tasks for the date
func (c *Controller) Load(ctx context.Context) error {
	tasks, err := c.client.List(ctx, c.opts.OwnerID, c.opts.Date)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}
	tree := timer.BuildFrom(tasks)

	c.mu.Lock()
	c.tree = tree
	c.mu.Unlock()
	// the store may have been reordered elsewhere since the last batch
	c.reorder.Forget()

	if running := scheduler.Anomalies(tree); running != nil {
		c.logger.Printf("[controller] %d tasks are running at once; the next start will pause all but one", len(running))
	}
	c.publish()
	return nil
}

// Tree returns the current immutable snapshot
func (c *Controller) Tree() *timer.Tree {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tree
}

// Tasks returns the assembled forest, safe for the caller to modify
func (c *Controller) Tasks() []*models.TimerTask {
	return c.Tree().Assemble()
}

// Get returns a copy of one task
func (c *Controller) Get(id string) (*models.TimerTask, bool) {
	t, ok := c.Tree().Get(id)
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// Groups returns the top-level tasks grouped by category
func (c *Controller) Groups() []*models.CategoryGroup {
	return timer.GroupByCategory(c.Tasks(), c.clock.Unix())
}

// Now is the controller's clock in epoch seconds
func (c *Controller) Now() int64 {
	return c.clock.Unix()
}

// Subscribe registers fn to receive the forest after every change.
// The returned func unregisters it.
func (c *Controller) Subscribe(fn func([]*models.TimerTask)) func() {
	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Flush waits for pending order writes
func (c *Controller) Flush(ctx context.Context) error {
	return c.reorder.Flush(ctx)
}

// Close sends pending order writes and stops the background worker
func (c *Controller) Close() {
	c.reorder.Close()
}

func (c *Controller) publish() {
	c.mu.RLock()
	tree := c.tree
	subs := make([]func([]*models.TimerTask), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.RUnlock()

	for _, fn := range subs {
		fn(tree.Assemble())
	}
}

func (c *Controller) lookup(id string) (*models.TimerTask, error) {
	t, ok := c.Tree().Get(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrUnknownTask)
	}
	return t, nil
}

// apply puts optimistic records into the tree and returns their new revisions
func (c *Controller) apply(tasks ...*models.TimerTask) map[string]uint64 {
	revs := make(map[string]uint64, len(tasks))
	c.mu.Lock()
	c.tree = c.tree.Put(tasks...)
	for _, t := range tasks {
		c.revs[t.ID]++
		revs[t.ID] = c.revs[t.ID]
	}
	c.mu.Unlock()
	c.publish()
	return revs
}

// rev is the local revision of id
func (c *Controller) rev(id string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.revs[id]
}

// drop removes ids from the tree
func (c *Controller) drop(ids ...string) {
	if len(ids) == 0 {
		return
	}
	c.mu.Lock()
	c.tree = c.tree.Remove(ids...)
	for _, id := range ids {
		c.revs[id]++
	}
	c.mu.Unlock()
	c.publish()
}

// adopt reconciles a write response. When the task changed locally after
// the write was issued, only the new version is kept.
func (c *Controller) adopt(saved *models.TimerTask, rev uint64) {
	c.mu.Lock()
	cur, ok := c.tree.Get(saved.ID)
	switch {
	case !ok:
		c.mu.Unlock()
		return
	case c.revs[saved.ID] != rev:
		if saved.Version <= cur.Version {
			c.mu.Unlock()
			return
		}
		n := cur.Clone()
		n.Version = saved.Version
		c.tree = c.tree.Put(n)
	default:
		n := saved.Clone()
		n.Children = nil
		c.tree = c.tree.Put(n)
	}
	c.mu.Unlock()
	c.publish()
}

// send persists one patch through the guard. The patch is stamped with the
// task's current local version at send time. Patches for a placeholder stay
// local until its create returns.
func (c *Controller) send(ctx context.Context, patch models.TaskPatch, rev uint64) (*models.TimerTask, error) {
	if IsLocal(patch.ID) {
		cur, ok := c.Tree().Get(patch.ID)
		if !ok {
			return nil, fmt.Errorf("%s: %w", patch.ID, ErrUnknownTask)
		}
		return cur.Clone(), nil
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if cur, ok := c.Tree().Get(patch.ID); ok && cur.Version > 0 {
		patch.Version = models.Int(cur.Version)
	}
	saved, err := c.guard.Update(ctx, patch)
	if err != nil {
		return nil, err
	}
	c.adopt(saved, rev)
	return saved, nil
}

// writer adapts send to the scheduler's Updater
type writer struct {
	c    *Controller
	revs map[string]uint64
}

func (w writer) Update(ctx context.Context, patch models.TaskPatch) (*models.TimerTask, error) {
	return w.c.send(ctx, patch, w.revs[patch.ID])
}

func (c *Controller) record(action string, t *models.TimerTask, details string) {
	if c.opts.OnRecord == nil {
		return
	}
	rec := models.OperationRecord{Action: action, Details: details, At: c.clock()}
	if t != nil {
		rec.TaskID, rec.TaskName = t.ID, t.Name
	}
	c.opts.OnRecord(rec)
}

// settle turns a not-found response into a local removal of id's subtree
func (c *Controller) settle(id string, err error) error {
	if err == nil || !errors.Is(err, api.ErrNotFound) {
		return err
	}
	c.logger.Printf("[controller] task %s no longer exists, dropping it", id)
	c.drop(c.Tree().Subtree(id)...)
	return nil
}
