package db

import (
	"context"

	"github.com/balkashynov/tock/internal/models"
)

const taskOrder = "sort_order ASC, created_at DESC"

// List returns an owner's tasks for one date
func (s *Store) List(ctx context.Context, owner, date string) ([]models.TimerTask, error) {
	var tasks []models.TimerTask
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND date = ?", owner, date).
		Order(taskOrder).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListRange returns an owner's tasks with from <= date <= to
func (s *Store) ListRange(ctx context.Context, owner, from, to string) ([]models.TimerTask, error) {
	var tasks []models.TimerTask
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND date >= ? AND date <= ?", owner, from, to).
		Order("date ASC, " + taskOrder).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Get retrieves a task by id
func (s *Store) Get(ctx context.Context, id string) (*models.TimerTask, error) {
	var task models.TimerTask
	if err := s.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, notFound(id, err)
	}
	return &task, nil
}

// Running returns every task of owner flagged as running, on any date
func (s *Store) Running(ctx context.Context, owner string) ([]models.TimerTask, error) {
	var tasks []models.TimerTask
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND is_running = ?", owner, true).
		Order("start_time ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Dates returns the distinct dates that have tasks, newest first
func (s *Store) Dates(ctx context.Context, owner string) ([]string, error) {
	var dates []string
	err := s.db.WithContext(ctx).
		Model(&models.TimerTask{}).
		Where("owner_id = ?", owner).
		Distinct("date").
		Order("date DESC").
		Pluck("date", &dates).Error
	if err != nil {
		return nil, err
	}
	return dates, nil
}
