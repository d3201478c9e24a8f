// Package server exposes the task store over the REST contract the API
// client speaks.
package server

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/tock/internal/models"
)

// Store is the persistence the handlers need
type Store interface {
	List(ctx context.Context, owner, date string) ([]models.TimerTask, error)
	ListRange(ctx context.Context, owner, from, to string) ([]models.TimerTask, error)
	Dates(ctx context.Context, owner string) ([]string, error)
	Running(ctx context.Context, owner string) ([]models.TimerTask, error)
	Create(ctx context.Context, req models.CreateTaskRequest) (*models.TimerTask, error)
	Update(ctx context.Context, patch models.TaskPatch) (*models.TimerTask, error)
	Delete(ctx context.Context, id string) error
	BatchOrder(ctx context.Context, updates []models.OrderUpdate) error
}

// Server is the tock backing store server
type Server struct {
	store  Store
	router *gin.Engine
	logger *log.Logger
}

// NewServer creates a server over store. A nil logger discards request logs.
func NewServer(store Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		store:  store,
		router: router,
		logger: logger,
	}

	router.GET("/healthz", s.handleHealth)

	tasks := router.Group("/timer-tasks")
	{
		tasks.GET("", s.handleList)
		tasks.POST("", s.handleCreate)
		tasks.PUT("", s.handleUpdate)
		tasks.DELETE("", s.handleDelete)
		tasks.PUT("/batch-order", s.handleBatchOrder)
		tasks.GET("/dates", s.handleDates)
		tasks.GET("/running", s.handleRunning)
	}

	return s
}

// Handler returns the HTTP handler, for tests and custom listeners
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Printf("[server] listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Printf("[server] shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Printf("[server] %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}
