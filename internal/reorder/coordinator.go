package reorder

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/balkashynov/tock/internal/models"
)

// Reorderer persists a batch of order assignments
type Reorderer interface {
	BatchReorder(ctx context.Context, updates []models.OrderUpdate) error
}

// Options configures a Coordinator
type Options struct {
	Timeout time.Duration // per batch, default 30s
	OnError func(group string, updates []models.OrderUpdate, err error)
	OnSaved func(group string, updates []models.OrderUpdate)
	Logger  *log.Logger
}

// Coordinator is the background sync queue for order writes. Submit never
// blocks; one worker goroutine sends batches in submission order. Only the
// latest batch per sibling group is kept while waiting, and a batch equal
// to the last one saved for its group is dropped.
type Coordinator struct {
	client Reorderer
	opts   Options
	logger *log.Logger

	mu       sync.Mutex
	queue    []string // group keys waiting to be sent
	pending  map[string][]models.OrderUpdate
	lastSent map[string][]models.OrderUpdate
	busy     bool
	waiters  []chan struct{}
	closed   bool

	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}
}

// NewCoordinator starts the worker
func NewCoordinator(client Reorderer, opts Options) *Coordinator {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	c := &Coordinator{
		client:   client,
		opts:     opts,
		logger:   logger,
		pending:  make(map[string][]models.OrderUpdate),
		lastSent: make(map[string][]models.OrderUpdate),
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go c.run()
	return c
}

// Submit queues updates for a sibling group and returns immediately.
// It reports false when the batch was dropped as a repeat or the
// coordinator is closed.
func (c *Coordinator) Submit(group string, updates []models.OrderUpdate) bool {
	if len(updates) == 0 {
		return false
	}
	batch := append([]models.OrderUpdate(nil), updates...)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if _, waiting := c.pending[group]; !waiting && equal(c.lastSent[group], batch) {
		c.mu.Unlock()
		c.logger.Printf("[reorder] %s: order unchanged, skipping", group)
		return false
	}
	if _, waiting := c.pending[group]; !waiting {
		c.queue = append(c.queue, group)
	}
	c.pending[group] = batch
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return true
}

// Forget drops the saved state of the given groups, or of every group when
// none are named, so their next batch is always sent
func (c *Coordinator) Forget(groups ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(groups) == 0 {
		clear(c.lastSent)
		return
	}
	for _, g := range groups {
		delete(c.lastSent, g)
	}
}

// Flush waits until every submitted batch has been attempted
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	if !c.busy && len(c.queue) == 0 {
		c.mu.Unlock()
		return nil
	}
	done := make(chan struct{})
	c.waiters = append(c.waiters, done)
	c.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close sends whatever is queued and stops the worker
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		<-c.stopped
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.stopped
}

func (c *Coordinator) run() {
	defer close(c.stopped)
	for {
		select {
		case <-c.wake:
			c.drain()
		case <-c.stop:
			c.drain()
			return
		}
	}
}

func (c *Coordinator) drain() {
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.busy = false
			waiters := c.waiters
			c.waiters = nil
			c.mu.Unlock()
			for _, w := range waiters {
				close(w)
			}
			return
		}
		group := c.queue[0]
		c.queue = c.queue[1:]
		batch := c.pending[group]
		delete(c.pending, group)
		c.busy = true
		c.mu.Unlock()

		c.send(group, batch)
	}
}

func (c *Coordinator) send(group string, batch []models.OrderUpdate) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
	defer cancel()

	if err := c.client.BatchReorder(ctx, batch); err != nil {
		// The local order stays as the user left it; a reload reconciles.
		c.logger.Printf("[reorder] %s: saving order failed: %v", group, err)
		if c.opts.OnError != nil {
			c.opts.OnError(group, batch, err)
		}
		return
	}

	c.mu.Lock()
	c.lastSent[group] = batch
	c.mu.Unlock()
	c.logger.Printf("[reorder] %s: saved order of %d tasks", group, len(batch))
	if c.opts.OnSaved != nil {
		c.opts.OnSaved(group, batch)
	}
}
