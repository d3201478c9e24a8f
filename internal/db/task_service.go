package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/balkashynov/tock/internal/models"
)

// Create stores a new task. Elapsed time starts at the initial time; with
// AutoStart the task is created running. Without an explicit order the
// task goes after its siblings.
func (s *Store) Create(ctx context.Context, req models.CreateTaskRequest) (*models.TimerTask, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	task := models.TimerTask{
		ID:           uuid.NewString(),
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
	if task.ParentID != nil && *task.ParentID == "" {
		task.ParentID = nil
	}
	if req.AutoStart {
		task.IsRunning = true
		task.StartTime = models.Int64(s.now().Unix())
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if task.ParentID != nil {
			var parent models.TimerTask
			if err := tx.First(&parent, "id = ?", *task.ParentID).Error; err != nil {
				return fmt.Errorf("%w: parent: %w", models.ErrValidation, notFound(*task.ParentID, err))
			}
		}
		if req.Order != nil {
			task.Order = *req.Order
		} else {
			var count int64
			if err := siblings(tx, task.OwnerID, task.Date, task.ParentID).Count(&count).Error; err != nil {
				return err
			}
			task.Order = int(count)
		}
		return tx.Create(&task).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func siblings(tx *gorm.DB, owner, date string, parentID *string) *gorm.DB {
	q := tx.Model(&models.TimerTask{}).Where("owner_id = ? AND date = ?", owner, date)
	if parentID == nil {
		return q.Where("parent_id IS NULL")
	}
	return q.Where("parent_id = ?", *parentID)
}

// Update applies patch. When the patch carries a version it must match the
// stored one; the version is bumped on every successful update.
func (s *Store) Update(ctx context.Context, patch models.TaskPatch) (*models.TimerTask, error) {
	if patch.ID == "" {
		return nil, fmt.Errorf("%w: id is required", models.ErrValidation)
	}
	if patch.Name != nil && *patch.Name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", models.ErrValidation)
	}
	if patch.ParentID != nil && *patch.ParentID == patch.ID {
		return nil, fmt.Errorf("%w: task cannot be its own parent", models.ErrValidation)
	}

	var task models.TimerTask
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, "id = ?", patch.ID).Error; err != nil {
			return notFound(patch.ID, err)
		}
		if patch.Version != nil && *patch.Version != task.Version {
			return &ConflictError{TaskID: task.ID, TaskName: task.Name, CurrentVersion: task.Version, RequestVersion: *patch.Version}
		}

		current := task.Version
		patch.Apply(&task)
		task.Version = current + 1

		// compare-and-swap: the row must still hold the version read above
		res := tx.Model(&task).Where("version = ?", current).Select("*").Omit("created_at").Updates(&task)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var latest models.TimerTask
			if err := tx.First(&latest, "id = ?", patch.ID).Error; err != nil {
				return notFound(patch.ID, err)
			}
			return &ConflictError{TaskID: latest.ID, TaskName: latest.Name, CurrentVersion: latest.Version, RequestVersion: current}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete removes a single task
func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.TimerTask{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// BatchOrder assigns sibling positions in one transaction. Unknown ids are
// skipped and versions are left alone, so resending a batch is harmless.
func (s *Store) BatchOrder(ctx context.Context, updates []models.OrderUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			if u.ID == "" {
				return fmt.Errorf("%w: order update without id", models.ErrValidation)
			}
			err := tx.Model(&models.TimerTask{}).Where("id = ?", u.ID).UpdateColumn("sort_order", u.Order).Error
			if err != nil {
				return fmt.Errorf("failed to order task %s: %w", u.ID, err)
			}
		}
		return nil
	})
}
