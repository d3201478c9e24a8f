package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/tock/internal/db"
	"github.com/balkashynov/tock/internal/models"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleList(c *gin.Context) {
	owner := c.Query("ownerId")
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ownerId parameter required"})
		return
	}

	var (
		tasks []models.TimerTask
		err   error
	)
	from, to := c.Query("startDate"), c.Query("endDate")
	switch {
	case from != "" && to != "":
		tasks, err = s.store.ListRange(c.Request.Context(), owner, from, to)
	case c.Query("date") != "":
		tasks, err = s.store.List(c.Request.Context(), owner, c.Query("date"))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "date or startDate and endDate required"})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	if tasks == nil {
		tasks = []models.TimerTask{}
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleDates(c *gin.Context) {
	owner := c.Query("ownerId")
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ownerId parameter required"})
		return
	}
	dates, err := s.store.Dates(c.Request.Context(), owner)
	if err != nil {
		s.fail(c, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	c.JSON(http.StatusOK, dates)
}

func (s *Server) handleRunning(c *gin.Context) {
	owner := c.Query("ownerId")
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ownerId parameter required"})
		return
	}
	tasks, err := s.store.Running(c.Request.Context(), owner)
	if err != nil {
		s.fail(c, err)
		return
	}
	if tasks == nil {
		tasks = []models.TimerTask{}
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleCreate(c *gin.Context) {
	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := s.store.Create(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) handleUpdate(c *gin.Context) {
	var patch models.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := s.store.Update(c.Request.Context(), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleDelete(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id parameter required"})
		return
	}
	if err := s.store.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleBatchOrder(c *gin.Context) {
	var req models.BatchOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.BatchOrder(c.Request.Context(), req.Updates); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// fail maps store errors onto status codes
func (s *Server) fail(c *gin.Context, err error) {
	var ce *db.ConflictError
	switch {
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, models.ConflictBody{
			Error:          "version conflict",
			TaskName:       ce.TaskName,
			CurrentVersion: ce.CurrentVersion,
		})
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.logger.Printf("[server] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
