package reorder

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/balkashynov/tock/internal/models"
)

func siblings(ids ...string) []*models.TimerTask {
	out := make([]*models.TimerTask, len(ids))
	for i, id := range ids {
		out[i] = &models.TimerTask{ID: id, Name: id, Order: i * 10}
	}
	return out
}

func ids(tasks []*models.TimerTask) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestMove(t *testing.T) {
	is := is.New(t)
	in := siblings("a", "b", "c", "d")

	out, updates, err := Move(in, 2, 0)
	is.NoErr(err)
	is.Equal(ids(out), []string{"c", "a", "b", "d"})
	is.Equal(updates, []models.OrderUpdate{{ID: "c", Order: 0}, {ID: "a", Order: 1}, {ID: "b", Order: 2}, {ID: "d", Order: 3}})
	is.True(Contiguous(out))
	is.Equal(in[2].Order, 20) // input untouched

	// moving to the same slot again yields the same assignment
	again, updates2, err := Move(out, 0, 0)
	is.NoErr(err)
	is.Equal(ids(again), ids(out))
	is.Equal(updates2, updates)
}

func TestMoveDown(t *testing.T) {
	is := is.New(t)
	out, _, err := Move(siblings("a", "b", "c"), 0, 2)
	is.NoErr(err)
	is.Equal(ids(out), []string{"b", "c", "a"})
}

func TestMoveOutOfRange(t *testing.T) {
	is := is.New(t)
	_, _, err := Move(siblings("a"), 0, 1)
	is.True(errors.Is(err, ErrIndex))
	_, _, err = Move(nil, 0, 0)
	is.True(errors.Is(err, ErrIndex))
}

func TestAssign(t *testing.T) {
	is := is.New(t)
	is.Equal(Assign([]string{"x", "y"}), []models.OrderUpdate{{ID: "x", Order: 0}, {ID: "y", Order: 1}})
	is.Equal(len(Assign(nil)), 0)
}

// fakeReorderer records batches; release gates the first call
type fakeReorderer struct {
	mu      sync.Mutex
	batches [][]models.OrderUpdate
	err     error
	release chan struct{}
}

func (f *fakeReorderer) BatchReorder(ctx context.Context, updates []models.OrderUpdate) error {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, updates)
	return f.err
}

func (f *fakeReorderer) sent() [][]models.OrderUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]models.OrderUpdate(nil), f.batches...)
}

func TestCoordinatorSendsAndSkipsRepeats(t *testing.T) {
	is := is.New(t)
	f := &fakeReorderer{}
	var saved atomic.Int32
	c := NewCoordinator(f, Options{OnSaved: func(string, []models.OrderUpdate) { saved.Add(1) }})
	defer c.Close()

	batch := Assign([]string{"a", "b"})
	is.True(c.Submit("root", batch))
	is.NoErr(c.Flush(context.Background()))
	is.Equal(len(f.sent()), 1)
	is.Equal(saved.Load(), int32(1))

	is.True(!c.Submit("root", batch)) // identical to the last saved batch
	is.NoErr(c.Flush(context.Background()))
	is.Equal(len(f.sent()), 1)

	c.Forget("root")
	is.True(c.Submit("root", batch))
	is.NoErr(c.Flush(context.Background()))
	is.Equal(len(f.sent()), 2)

	// forgetting with no group clears every group
	is.True(!c.Submit("root", batch))
	c.Forget()
	is.True(c.Submit("root", batch))
	is.NoErr(c.Flush(context.Background()))
	is.Equal(len(f.sent()), 3)
}

func TestCoordinatorCoalescesPendingBatches(t *testing.T) {
	is := is.New(t)
	f := &fakeReorderer{release: make(chan struct{})}
	c := NewCoordinator(f, Options{})

	is.True(c.Submit("g1", Assign([]string{"a", "b"})))
	// let the worker pick up g1 and block inside BatchReorder
	time.Sleep(20 * time.Millisecond)
	is.True(c.Submit("g2", Assign([]string{"x", "y"})))
	is.True(c.Submit("g2", Assign([]string{"y", "x"})))
	close(f.release)

	is.NoErr(c.Flush(context.Background()))
	c.Close()

	sent := f.sent()
	is.Equal(len(sent), 2)
	is.Equal(sent[0][0].ID, "a")
	is.Equal(sent[1][0].ID, "y") // only the latest g2 batch
}

func TestCoordinatorReportsErrors(t *testing.T) {
	is := is.New(t)
	boom := errors.New("offline")
	f := &fakeReorderer{err: boom}

	var mu sync.Mutex
	var failed []string
	var errs []error
	c := NewCoordinator(f, Options{OnError: func(group string, _ []models.OrderUpdate, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, group)
		errs = append(errs, err)
	}})

	batch := Assign([]string{"a"})
	c.Submit("root", batch)
	is.NoErr(c.Flush(context.Background()))

	// a failed batch is not remembered, so resubmitting sends it again
	is.True(c.Submit("root", batch))
	c.Close()

	mu.Lock()
	defer mu.Unlock()
	is.Equal(failed, []string{"root", "root"})
	is.Equal(errs[0], boom)
}

func TestCoordinatorClose(t *testing.T) {
	is := is.New(t)
	f := &fakeReorderer{}
	c := NewCoordinator(f, Options{})
	c.Submit("root", Assign([]string{"a"}))
	c.Close()
	c.Close()

	is.Equal(len(f.sent()), 1) // queued work drains on close
	is.True(!c.Submit("root", Assign([]string{"b"})))
}

func TestFlushHonoursContext(t *testing.T) {
	is := is.New(t)
	f := &fakeReorderer{release: make(chan struct{})}
	c := NewCoordinator(f, Options{})
	c.Submit("root", Assign([]string{"a"}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	is.True(errors.Is(c.Flush(ctx), context.DeadlineExceeded))

	close(f.release)
	c.Close()
}
