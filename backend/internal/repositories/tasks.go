package repositories

import (
	"context"
	"fmt"
	"time"

	"patas-conectadas/backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewTaskRepository(db *gorm.DB, log *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, log: log}
}

func (r *TaskRepository) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Status").Preload("Volunteer")
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Omit("Status", "Volunteer", "Animal").Create(task).Error; err != nil {
		r.log.Error("Failed to save task", zap.Error(err))
		return translateError(err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id uint) (models.Task, error) {
	var task models.Task
	err := r.query(ctx).Where("tasks.id = ?", id).First(&task).Error
	return task, translateError(err)
}

// Find returns the tasks matching every non-nil predicate of the filter,
// most recently created first.
func (r *TaskRepository) Find(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	q := r.query(ctx)
	if filter.StatusID != nil {
		q = q.Where("status_id = ?", *filter.StatusID)
	}
	if filter.VolunteerID != nil {
		q = q.Where("volunteer_id = ?", *filter.VolunteerID)
	}

	tasks := make([]models.Task, 0)
	if err := q.Order("created_at DESC").Order("id DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// TransitionStatus moves a task from one status row to another in a single
// conditional UPDATE. When volunteerID is non-nil the assignment is written in
// the same statement. If no row matched, the task is re-read: a missing task
// yields ErrNotFound, otherwise the current task is returned with
// ErrStatusMismatch.
func (r *TaskRepository) TransitionStatus(ctx context.Context, id, fromStatusID, toStatusID uint, volunteerID *uint) (models.Task, error) {
	updates := map[string]interface{}{
		"status_id":  toStatusID,
		"updated_at": time.Now(),
	}
	if volunteerID != nil {
		updates["volunteer_id"] = *volunteerID
	}

	res := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ? AND status_id = ?", id, fromStatusID).
		Updates(updates)
	if res.Error != nil {
		r.log.Error("Failed to update task status", zap.Uint("task_id", id), zap.Error(res.Error))
		return models.Task{}, translateError(res.Error)
	}

	task, err := r.GetByID(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if res.RowsAffected == 0 {
		return task, ErrStatusMismatch
	}
	return task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Task{}, id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
