package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/balkashynov/tock/internal/models"
)

func newTestClient(srv *httptest.Server, onRetry RetryFunc) *Client {
	return NewClient(Options{
		BaseURL:     srv.URL,
		RetryDelays: []time.Duration{time.Millisecond},
		OnRetry:     onRetry,
	})
}

func validCreate() models.CreateTaskRequest {
	return models.CreateTaskRequest{Name: "Write docs", CategoryPath: "Work/Docs", OwnerID: "user-1", Date: "2025-11-02"}
}

func TestClient_List(t *testing.T) {
	is := is.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is.Equal(r.Method, http.MethodGet)
		is.Equal(r.URL.Path, "/timer-tasks")
		is.Equal(r.URL.Query().Get("ownerId"), "user-1")
		is.Equal(r.URL.Query().Get("date"), "2025-11-02")
		json.NewEncoder(w).Encode([]models.TimerTask{{ID: "a", Name: "A", Version: 3}})
	}))
	defer srv.Close()

	tasks, err := newTestClient(srv, nil).List(context.Background(), "user-1", "2025-11-02")
	is.NoErr(err)
	is.Equal(len(tasks), 1)
	is.Equal(tasks[0].Version, 3)
}

func TestClient_Queries(t *testing.T) {
	is := is.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/timer-tasks":
			is.Equal(q.Get("startDate"), "2025-10-27")
			is.Equal(q.Get("endDate"), "2025-11-02")
			json.NewEncoder(w).Encode([]models.TimerTask{{ID: "a"}, {ID: "b"}})
		case "/timer-tasks/running":
			json.NewEncoder(w).Encode([]models.TimerTask{{ID: "r", IsRunning: true}})
		case "/timer-tasks/dates":
			json.NewEncoder(w).Encode([]string{"2025-11-02", "2025-11-01"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := newTestClient(srv, nil)
	ctx := context.Background()

	tasks, err := c.ListRange(ctx, "user-1", "2025-10-27", "2025-11-02")
	is.NoErr(err)
	is.Equal(len(tasks), 2)

	running, err := c.Running(ctx, "user-1")
	is.NoErr(err)
	is.Equal(running[0].ID, "r")

	dates, err := c.Dates(ctx, "user-1")
	is.NoErr(err)
	is.Equal(dates, []string{"2025-11-02", "2025-11-01"})
}

func TestClient_Create(t *testing.T) {
	t.Run("validation happens before any request", func(t *testing.T) {
		is := is.New(t)
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
		}))
		defer srv.Close()

		req := validCreate()
		req.Name = "   "
		_, err := newTestClient(srv, nil).Create(context.Background(), req)
		is.True(errors.Is(err, ErrValidation))

		req = validCreate()
		req.InitialTime = -1
		_, err = newTestClient(srv, nil).Create(context.Background(), req)
		is.True(errors.Is(err, ErrValidation))
		is.Equal(atomic.LoadInt32(&calls), int32(0))
	})

	t.Run("retries server errors and reports each retry", func(t *testing.T) {
		is := is.New(t)
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			var body models.CreateTaskRequest
			json.NewDecoder(r.Body).Decode(&body)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(models.TimerTask{ID: "new", Name: body.Name, CategoryPath: body.CategoryPath, Version: 1})
		}))
		defer srv.Close()

		var retries []int
		task, err := newTestClient(srv, func(op string, attempt int, err error) {
			is.Equal(op, "create")
			retries = append(retries, attempt)
		}).Create(context.Background(), validCreate())
		is.NoErr(err)
		is.Equal(task.ID, "new")
		is.Equal(task.Name, "Write docs")
		is.Equal(retries, []int{1, 2})
	})

	t.Run("gives up after the bound", func(t *testing.T) {
		is := is.New(t)
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newTestClient(srv, nil).Create(context.Background(), validCreate())
		var re *RetryError
		is.True(errors.As(err, &re))
		is.Equal(re.Attempts, 4)
		is.Equal(atomic.LoadInt32(&calls), int32(4))
		is.True(IsStatus(err, http.StatusBadGateway))
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		is := is.New(t)
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		_, err := newTestClient(srv, nil).Create(context.Background(), validCreate())
		is.True(IsStatus(err, http.StatusBadRequest))
		is.Equal(atomic.LoadInt32(&calls), int32(1))
	})
}

func TestClient_Update(t *testing.T) {
	t.Run("sends only the set fields", func(t *testing.T) {
		is := is.New(t)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			is.Equal(r.Method, http.MethodPut)
			data, _ := io.ReadAll(r.Body)
			var raw map[string]any
			is.NoErr(json.Unmarshal(data, &raw))
			is.Equal(raw["id"], "a")
			is.Equal(raw["version"], float64(5))
			is.Equal(raw["isPaused"], true)
			v, ok := raw["startTime"]
			is.True(ok)
			is.Equal(v, nil)
			_, ok = raw["name"]
			is.True(!ok)
			json.NewEncoder(w).Encode(models.TimerTask{ID: "a", Version: 6})
		}))
		defer srv.Close()

		task, err := newTestClient(srv, nil).Update(context.Background(), models.TaskPatch{
			ID: "a", Version: models.Int(5), IsPaused: models.Bool(true), ClearStartTime: true,
		})
		is.NoErr(err)
		is.Equal(task.Version, 6)
	})

	t.Run("is never retried", func(t *testing.T) {
		is := is.New(t)
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := newTestClient(srv, nil).Update(context.Background(), models.TaskPatch{ID: "a", Name: models.String("x")})
		is.True(IsStatus(err, http.StatusServiceUnavailable))
		is.Equal(atomic.LoadInt32(&calls), int32(1))
	})

	t.Run("404 matches ErrNotFound", func(t *testing.T) {
		is := is.New(t)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := newTestClient(srv, nil).Update(context.Background(), models.TaskPatch{ID: "gone", Name: models.String("x")})
		is.True(errors.Is(err, ErrNotFound))
	})
}

func TestClient_DeleteAndReorder(t *testing.T) {
	is := is.New(t)
	var gotOrder models.BatchOrderRequest
	var deleted string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && r.URL.Path == "/timer-tasks":
			deleted = r.URL.Query().Get("id")
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPut && r.URL.Path == "/timer-tasks/batch-order":
			json.NewDecoder(r.Body).Decode(&gotOrder)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv, nil)
	is.NoErr(c.Delete(context.Background(), "a"))
	is.Equal(deleted, "a")

	updates := []models.OrderUpdate{{ID: "x", Order: 0}, {ID: "y", Order: 1}}
	is.NoErr(c.BatchReorder(context.Background(), updates))
	is.Equal(gotOrder.Updates, updates)

	is.NoErr(c.BatchReorder(context.Background(), nil)) // nothing to send
	is.True(errors.Is(c.Delete(context.Background(), ""), ErrValidation))
}

func TestClient_RetryStopsOnCancel(t *testing.T) {
	is := is.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, RetryDelays: []time.Duration{time.Hour}})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := c.Delete(ctx, "a")
	is.True(errors.Is(err, context.Canceled))
}
