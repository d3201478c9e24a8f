package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/balkashynov/tock/internal/api"
	"github.com/balkashynov/tock/internal/guard"
	"github.com/balkashynov/tock/internal/models"
	"github.com/balkashynov/tock/internal/timer"
)

const t0 = 1_700_000_000

// fakeStore mimics the backing store: version compare-and-swap on update,
// 404 for missing tasks
type fakeStore struct {
	mu        sync.Mutex
	tasks     map[string]*models.TimerTask
	seq       int
	now       *int64
	calls     []string
	updateErr map[string]error

	// when set, Create signals createStarted and waits for createGate
	createStarted chan struct{}
	createGate    chan struct{}
}

func newFakeStore(now *int64, tasks ...*models.TimerTask) *fakeStore {
	s := &fakeStore{tasks: map[string]*models.TimerTask{}, now: now, updateErr: map[string]error{}}
	for _, t := range tasks {
		c := t.Clone()
		if c.Version == 0 {
			c.Version = 1
		}
		s.tasks[c.ID] = c
	}
	return s
}

func (s *fakeStore) List(ctx context.Context, ownerID, date string) ([]models.TimerTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.TimerTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t.Clone())
	}
	return out, nil
}

func (s *fakeStore) Create(ctx context.Context, req models.CreateTaskRequest) (*models.TimerTask, error) {
	if s.createGate != nil {
		s.createStarted <- struct{}{}
		<-s.createGate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &models.TimerTask{
		ID:           fmt.Sprintf("t%d", s.seq),
		OwnerID:      req.OwnerID,
		Date:         req.Date,
		Name:         req.Name,
		CategoryPath: req.CategoryPath,
		InstanceTag:  req.InstanceTag,
		ElapsedTime:  req.InitialTime,
		InitialTime:  req.InitialTime,
		ParentID:     req.ParentID,
		Version:      1,
	}
	if req.Order != nil {
		t.Order = *req.Order
	}
	if req.AutoStart {
		t.IsRunning = true
		t.StartTime = models.Int64(*s.now)
	}
	s.tasks[t.ID] = t
	s.calls = append(s.calls, "create:"+t.Name)
	return t.Clone(), nil
}

func (s *fakeStore) Update(ctx context.Context, patch models.TaskPatch) (*models.TimerTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "update:"+patch.ID)
	if err := s.updateErr[patch.ID]; err != nil {
		return nil, err
	}
	t, ok := s.tasks[patch.ID]
	if !ok {
		return nil, &api.StatusError{Op: "update", Code: http.StatusNotFound}
	}
	if patch.Version != nil && *patch.Version != t.Version {
		body, _ := json.Marshal(models.ConflictBody{TaskName: t.Name, CurrentVersion: t.Version})
		return nil, &api.StatusError{Op: "update", Code: http.StatusConflict, Body: body}
	}
	patch.Apply(t)
	t.Version++
	return t.Clone(), nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "delete:"+id)
	if _, ok := s.tasks[id]; !ok {
		return &api.StatusError{Op: "delete", Code: http.StatusNotFound}
	}
	delete(s.tasks, id)
	return nil
}

func (s *fakeStore) BatchReorder(ctx context.Context, updates []models.OrderUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "reorder")
	for _, u := range updates {
		if t, ok := s.tasks[u.ID]; ok {
			t.Order = u.Order
		}
	}
	return nil
}

func (s *fakeStore) get(id string) *models.TimerTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		return t.Clone()
	}
	return nil
}

func (s *fakeStore) history() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func newController(t *testing.T, store *fakeStore, opts Options) *Controller {
	t.Helper()
	now := store.now
	opts.OwnerID = "user-1"
	opts.Date = "2026-10-17"
	opts.Client = store
	opts.Clock = func() time.Time { return time.Unix(*now, 0) }
	c, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestStartPausesTheRunningTask(t *testing.T) {
	is := is.New(t)
	now := int64(t0 + 30)
	store := newFakeStore(&now,
		&models.TimerTask{ID: "A", Name: "A", CategoryPath: "Work", ElapsedTime: 120},
		&models.TimerTask{ID: "B", Name: "B", CategoryPath: "Work", IsRunning: true, StartTime: models.Int64(t0)},
	)
	var paused []models.PausedTask
	c := newController(t, store, Options{OnTasksPaused: func(p []models.PausedTask) { paused = p }})

	is.NoErr(c.Start(context.Background(), "A"))

	is.Equal(store.history(), []string{"update:B", "update:A"})
	b := store.get("B")
	is.Equal(b.ElapsedTime, int64(30))
	is.True(!b.IsRunning)
	is.True(b.IsPaused)
	a := store.get("A")
	is.Equal(a.ElapsedTime, int64(120))
	is.True(a.IsRunning)
	is.Equal(*a.StartTime, int64(t0+30))

	is.Equal(paused, []models.PausedTask{{ID: "B", Name: "B", ElapsedTime: 30}})

	// local tree carries the store's versions
	local, _ := c.Get("A")
	is.Equal(local.Version, a.Version)
	is.Equal(local.State(), models.StateRunning)
}

func TestCreateAutoStart(t *testing.T) {
	is := is.New(t)
	now := int64(t0)
	store := newFakeStore(&now)
	c := newController(t, store, Options{})

	task, err := c.Create(context.Background(), models.CreateTaskRequest{
		Name:         "Write docs",
		CategoryPath: "Work/Docs",
		AutoStart:    true,
	})
	is.NoErr(err)
	is.True(task.IsRunning)
	is.True(!task.IsPaused)
	is.Equal(task.ElapsedTime, int64(0))
	is.Equal(*task.StartTime, int64(t0))

	// the local placeholder was replaced by the stored task
	tree := c.Tree()
	is.Equal(tree.Len(), 1)
	local, ok := tree.Get(task.ID)
	is.True(ok)
	is.True(!IsLocal(local.ID))

	now += 90
	is.Equal(timer.DisplayTime(local, now), int64(90))
}

func TestCreateAutoStartPausesRunningTask(t *testing.T) {
	is := is.New(t)
	now := int64(t0 + 30)
	store := newFakeStore(&now,
		&models.TimerTask{ID: "B", Name: "B", CategoryPath: "Work", IsRunning: true, StartTime: models.Int64(t0)},
	)
	var paused []models.PausedTask
	c := newController(t, store, Options{OnTasksPaused: func(p []models.PausedTask) { paused = p }})

	task, err := c.Create(context.Background(), models.CreateTaskRequest{Name: "A", CategoryPath: "Work", AutoStart: true})
	is.NoErr(err)

	is.Equal(store.history(), []string{"update:B", "create:A"})
	b := store.get("B")
	is.Equal(b.ElapsedTime, int64(30))
	is.True(!b.IsRunning)
	is.True(b.IsPaused)
	is.Equal(paused, []models.PausedTask{{ID: "B", Name: "B", ElapsedTime: 30}})

	is.True(store.get(task.ID).IsRunning)
	local, _ := c.Get("B")
	is.Equal(local.State(), models.StatePaused)
	is.Equal(len(c.Tree().Running()), 1)
}

// startCreate runs Create in the background and returns once the store
// has received it
func startCreate(c *Controller, store *fakeStore, req models.CreateTaskRequest) (<-chan error, func()) {
	store.createStarted = make(chan struct{})
	store.createGate = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := c.Create(context.Background(), req)
		done <- err
	}()
	<-store.createStarted
	return done, func() { close(store.createGate) }
}

func TestCreateDeletedWhileSaving(t *testing.T) {
	is := is.New(t)
	now := int64(t0)
	store := newFakeStore(&now)
	c := newController(t, store, Options{})

	done, release := startCreate(c, store, models.CreateTaskRequest{Name: "Write docs", CategoryPath: "Work"})
	is.Equal(c.Tree().Roots(), []string{"local-1"})
	is.NoErr(c.Delete(context.Background(), "local-1"))
	release()

	is.True(errors.Is(<-done, ErrUnknownTask))
	is.Equal(c.Tree().Len(), 0)
	is.Equal(store.history(), []string{"create:Write docs", "delete:t1"})
	left, err := store.List(context.Background(), "user-1", "2026-10-17")
	is.NoErr(err)
	is.Equal(len(left), 0)
}

func TestCreateKeepsEditsMadeWhileSaving(t *testing.T) {
	is := is.New(t)
	now := int64(t0)
	store := newFakeStore(&now)
	c := newController(t, store, Options{})

	done, release := startCreate(c, store, models.CreateTaskRequest{Name: "Write docs", CategoryPath: "Work"})
	is.NoErr(c.Rename(context.Background(), "local-1", "Write release notes"))
	is.Equal(len(store.history()), 0) // nothing sent for the placeholder
	release()
	is.NoErr(<-done)

	is.Equal(store.history(), []string{"create:Write docs", "update:t1"})
	is.Equal(store.get("t1").Name, "Write release notes")
	local, ok := c.Get("t1")
	is.True(ok)
	is.Equal(local.Name, "Write release notes")
	is.Equal(local.Version, 2)
	_, ok = c.Get("local-1")
	is.True(!ok)
}

func TestCreateValidatesLocally(t *testing.T) {
	is := is.New(t)
	now := int64(t0)
	store := newFakeStore(&now)
	c := newController(t, store, Options{})

	_, err := c.Create(context.Background(), models.CreateTaskRequest{Name: "  ", CategoryPath: "Work"})
	is.True(errors.Is(err, models.ErrValidation))
	is.Equal(len(store.history()), 0)
	is.Equal(c.Tree().Len(), 0)
}

func TestAddSubtaskInheritsCategory(t *testing.T) {
	is := is.New(t)
	now := int64(t0)
	store := newFakeStore(&now,
		&models.TimerTask{ID: "p", Name: "parent", CategoryPath: "Work/Dev"},
		&models.TimerTask{ID: "c1", Name: "first", CategoryPath: "Work/Dev", ParentID: models.String("p")},
	)
	c := newController(t, store, Options{})

	child, err := c.AddSubtask(context.Background(), "p", "second", 60)
	is.NoErr(err)
	is.Equal(child.CategoryPath, "Work/Dev")
	is.Equal(*child.ParentID, "p")
	is.Equal(child.Order, 1)
	is.Equal(child.ElapsedTime, int64(60))
	is.Equal(len(c.Tree().Children("p")), 2)

	_, err = c.AddSubtask(context.Background(), "missing", "x", 0)
	is.True(errors.Is(err, ErrUnknownTask))
}

func TestDeleteRemovesChildren(t *testing.T) {
	is := is.New(t)
	now := int64(t0)
	store := newFakeStore(&now,
		&models.TimerTask{ID: "p", Name: "parent", CategoryPath: "Work"},
		&models.TimerTask{ID: "c1", Name: "one", CategoryPath: "Work", ParentID: models.String("p"), Order: 0},
		&models.TimerTask{ID: "c2", Name: "two", CategoryPath: "Work", ParentID: models.String("p"), Order: 1},
	)
	c := newController(t, store, Options{})

	is.NoErr(c.Delete(context.Background(), "p"))
	is.Equal(store.history(), []string{"delete:c1", "delete:c2", "delete:p"})
	is.Equal(c.Tree().Len(), 0)

	left, err := store.List(context.Background(), "user-1", "2026-10-17")
	is.NoErr(err)
	is.Equal(len(left), 0)
}

func TestConflictRefreshesByDefault(t *testing.T) {
	is := is.New(t)
	now := int64(t0)
	store := newFakeStore(&now, &models.TimerTask{ID: "a", Name: "mine", CategoryPath: "Work", Version: 5})
	var seen *guard.ConflictError
	c := newController(t, store, Options{OnConflict: func(ce *guard.ConflictError) Resolution {
		seen = ce
		return Refresh
	}})

	// another client edits the task
	store.tasks["a"].Name = "theirs"
	store.tasks["a"].Version = 6

	err := c.Rename(context.Background(), "a", "renamed")
	is.True(guard.IsConflict(err))
	is.Equal(seen.CurrentVersion, 6)
	is.Equal(seen.RequestVersion, 5)
	is.Equal(seen.TaskName, "theirs")

	is.Equal(store.get("a").Name, "theirs") // store untouched
	local, _ := c.Get("a")
	is.Equal(local.Name, "theirs") // local change discarded
	is.Equal(local.Version, 6)
}

func TestConflictRetryReapplies(t *testing.T) {
	is := is.New(t)
	now := int64(t0)
	store := newFakeStore(&now, &models.TimerTask{ID: "a", Name: "mine", CategoryPath: "Work", Version: 5})
	c := newController(t, store, Options{OnConflict: func(*guard.ConflictError) Resolution { return Retry }})
	store.tasks["a"].Version = 6

	is.NoErr(c.Rename(context.Background(), "a", "renamed"))
	is.Equal(store.get("a").Name, "renamed")
	is.Equal(store.get("a").Version, 7)
}

func TestConflictKeepLocal(t *testing.T) {
	is := is.New(t)
	now := int64(t0)
	store := newFakeStore(&now, &models.TimerTask{ID: "a", Name: "mine", CategoryPath: "Work", Version: 5})
	c := newController(t, store, Options{OnConflict: func(*guard.ConflictError) Resolution { return KeepLocal }})
	store.tasks["a"].Version = 6

	is.True(guard.IsConflict(c.Rename(context.Background(), "a", "renamed")))
	local, _ := c.Get("a")
	is.Equal(local.Name, "renamed")
}

func TestNotFoundDropsTask(t *testing.T) {
	is := is.New(t)
	now := int64(t0)
	store := newFakeStore(&now,
		&models.TimerTask{ID: "gone", Name: "gone", CategoryPath: "Work", IsRunning: true, StartTime: models.Int64(t0)},
		&models.TimerTask{ID: "kid", Name: "kid", CategoryPath: "Work", ParentID: models.String("gone")},
	)
	c := newController(t, store, Options{})
	delete(store.tasks, "gone")

	is.NoErr(c.Pause(context.Background(), "gone"))
	_, ok := c.Get("gone")
	is.True(!ok)
	_, ok = c.Get("kid")
	is.True(!ok)
}

func TestTransientFailureKeepsOptimisticState(t *testing.T) {
	is := is.New(t)
	now := int64(t0 + 10)
	store := newFakeStore(&now, &models.TimerTask{ID: "a", Name: "a", CategoryPath: "Work", IsRunning: true, StartTime: models.Int64(t0)})
	c := newController(t, store, Options{})
	offline := &api.RetryError{Op: "update", Attempts: 1, Err: errors.New("connection refused")}
	store.updateErr["a"] = offline

	err := c.Pause(context.Background(), "a")
	is.True(errors.Is(err, offline))

	local, _ := c.Get("a")
	is.Equal(local.State(), models.StatePaused)
	is.Equal(local.ElapsedTime, int64(10))
	is.True(store.get("a").IsRunning)
}

func TestPauseAndStopRejectInvalidTransitions(t *testing.T) {
	is := is.New(t)
	now := int64(t0)
	store := newFakeStore(&now, &models.TimerTask{ID: "a", Name: "a", CategoryPath: "Work"})
	c := newController(t, store, Options{})

	is.True(errors.Is(c.Pause(context.Background(), "a"), timer.ErrNotRunning))
	is.True(errors.Is(c.Stop(context.Background(), "a"), timer.ErrAlreadyStopped))
	is.True(errors.Is(c.Start(context.Background(), "nope"), ErrUnknownTask))
	is.Equal(len(store.history()), 0)
}

func TestStopAfterPause(t *testing.T) {
	is := is.New(t)
	now := int64(t0)
	store := newFakeStore(&now, &models.TimerTask{ID: "a", Name: "a", CategoryPath: "Work"})
	c := newController(t, store, Options{})
	ctx := context.Background()

	is.NoErr(c.Start(ctx, "a"))
	now += 45
	is.NoErr(c.Pause(ctx, "a"))
	now += 100
	is.NoErr(c.Stop(ctx, "a"))

	a := store.get("a")
	is.Equal(a.ElapsedTime, int64(45))
	is.True(!a.IsRunning)
	is.True(!a.IsPaused)
	is.Equal(a.Version, 4)
}

func TestEdits(t *testing.T) {
	is := is.New(t)
	now := int64(t0)
	store := newFakeStore(&now, &models.TimerTask{ID: "a", Name: "a", CategoryPath: "Work", ElapsedTime: 100, InitialTime: 60})
	c := newController(t, store, Options{})
	ctx := context.Background()

	is.NoErr(c.Recategorize(ctx, "a", " /Life/Sport/ "))
	is.NoErr(c.SetInstanceTag(ctx, "a", "nexus,alpha"))
	is.NoErr(c.SetInitialTime(ctx, "a", 0))

	a := store.get("a")
	is.Equal(a.CategoryPath, "Life/Sport")
	is.Equal(*a.InstanceTag, "nexus,alpha")
	is.Equal(a.InitialTime, int64(0))
	is.Equal(a.ElapsedTime, int64(40))

	is.NoErr(c.SetInstanceTag(ctx, "a", ""))
	is.True(store.get("a").InstanceTag == nil)

	is.True(errors.Is(c.Rename(ctx, "a", ""), models.ErrValidation))
	is.True(errors.Is(c.SetInitialTime(ctx, "a", -1), models.ErrValidation))
}

func TestReparent(t *testing.T) {
	is := is.New(t)
	now := int64(t0)
	store := newFakeStore(&now,
		&models.TimerTask{ID: "p", Name: "p", CategoryPath: "Work"},
		&models.TimerTask{ID: "c", Name: "c", CategoryPath: "Work", ParentID: models.String("p")},
		&models.TimerTask{ID: "x", Name: "x", CategoryPath: "Work"},
	)
	c := newController(t, store, Options{})
	ctx := context.Background()

	is.True(errors.Is(c.Reparent(ctx, "p", "c"), timer.ErrCycle))

	is.NoErr(c.Reparent(ctx, "x", "c"))
	is.Equal(*store.get("x").ParentID, "c")
	is.Equal(c.Tree().PostOrder("p"), []string{"x", "c", "p"})

	is.NoErr(c.Reparent(ctx, "x", ""))
	is.True(store.get("x").ParentID == nil)
}

func TestReorderIsOptimisticAndSynced(t *testing.T) {
	is := is.New(t)
	now := int64(t0)
	store := newFakeStore(&now,
		&models.TimerTask{ID: "a", Name: "a", CategoryPath: "Work", Order: 0},
		&models.TimerTask{ID: "b", Name: "b", CategoryPath: "Work", Order: 1},
		&models.TimerTask{ID: "c", Name: "c", CategoryPath: "Work", Order: 2},
	)
	c := newController(t, store, Options{})

	is.NoErr(c.Reorder("", 2, 0))
	is.Equal(c.Tree().Roots(), []string{"c", "a", "b"})

	is.NoErr(c.Flush(context.Background()))
	is.Equal(store.get("c").Order, 0)
	is.Equal(store.get("a").Order, 1)
	is.Equal(store.get("b").Order, 2)

	// dropping a task on its own position sends nothing
	is.NoErr(c.MoveTo("c", 0))
	is.NoErr(c.Flush(context.Background()))
	is.Equal(store.history(), []string{"reorder"})
}

func TestReorderAfterReloadIsSent(t *testing.T) {
	is := is.New(t)
	now := int64(t0)
	store := newFakeStore(&now,
		&models.TimerTask{ID: "a", Name: "a", CategoryPath: "Work", Order: 0},
		&models.TimerTask{ID: "b", Name: "b", CategoryPath: "Work", Order: 1},
		&models.TimerTask{ID: "c", Name: "c", CategoryPath: "Work", Order: 2},
	)
	c := newController(t, store, Options{})
	ctx := context.Background()

	is.NoErr(c.Reorder("", 2, 0))
	is.NoErr(c.Flush(ctx))

	// another client puts c back in the middle
	store.mu.Lock()
	store.tasks["a"].Order, store.tasks["c"].Order, store.tasks["b"].Order = 0, 1, 2
	store.mu.Unlock()
	is.NoErr(c.Load(ctx))
	is.Equal(c.Tree().Roots(), []string{"a", "c", "b"})

	// the same order as the first batch is wanted again
	is.NoErr(c.Reorder("", 1, 0))
	is.NoErr(c.Flush(ctx))
	is.Equal(store.history(), []string{"reorder", "reorder"})
	is.Equal(store.get("c").Order, 0)
	is.Equal(store.get("a").Order, 1)

	is.NoErr(c.Load(ctx))
	is.Equal(c.Tree().Roots(), []string{"c", "a", "b"})
}

func TestSubscribe(t *testing.T) {
	is := is.New(t)
	now := int64(t0)
	store := newFakeStore(&now, &models.TimerTask{ID: "a", Name: "a", CategoryPath: "Work"})
	c := newController(t, store, Options{})

	var mu sync.Mutex
	var names []string
	cancel := c.Subscribe(func(tasks []*models.TimerTask) {
		mu.Lock()
		defer mu.Unlock()
		names = append(names, tasks[0].Name)
	})
	is.NoErr(c.Rename(context.Background(), "a", "b"))
	cancel()
	is.NoErr(c.Rename(context.Background(), "a", "c"))

	mu.Lock()
	defer mu.Unlock()
	is.True(len(names) >= 1)
	is.Equal(names[len(names)-1], "b")
}

func TestRecords(t *testing.T) {
	is := is.New(t)
	now := int64(t0)
	store := newFakeStore(&now,
		&models.TimerTask{ID: "a", Name: "a", CategoryPath: "Work"},
		&models.TimerTask{ID: "b", Name: "b", CategoryPath: "Work"},
	)
	var actions []string
	c := newController(t, store, Options{OnRecord: func(r models.OperationRecord) { actions = append(actions, r.Action) }})
	ctx := context.Background()

	is.NoErr(c.Start(ctx, "a"))
	// rejected transitions are not recorded
	is.True(errors.Is(c.Start(ctx, "a"), timer.ErrAlreadyRunning))
	is.True(errors.Is(c.Pause(ctx, "b"), timer.ErrNotRunning))
	is.NoErr(c.Delete(ctx, "a"))
	is.Equal(actions, []string{"start", "delete"})
}
