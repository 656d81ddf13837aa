package repositories

import (
	"context"
	"fmt"

	"patas-conectadas/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// getOrCreateNamed upserts a row keyed by its unique name column and loads it
// back, so concurrent callers converge on the same row.
func getOrCreateNamed(ctx context.Context, db *gorm.DB, row interface{}, name string) error {
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(row).Error
	if err != nil {
		return translateError(err)
	}
	return translateError(db.WithContext(ctx).Where("name = ?", name).First(row).Error)
}

type TaskStatusRepository struct {
	db *gorm.DB
}

func NewTaskStatusRepository(db *gorm.DB) *TaskStatusRepository {
	return &TaskStatusRepository{db: db}
}

func (r *TaskStatusRepository) GetOrCreate(ctx context.Context, name string) (models.TaskStatus, error) {
	status := models.TaskStatus{Name: name}
	if err := getOrCreateNamed(ctx, r.db, &status, name); err != nil {
		return models.TaskStatus{}, fmt.Errorf("failed to resolve task status %q: %w", name, err)
	}
	return status, nil
}

// FindByName returns ErrNotFound when the status row has never been created.
func (r *TaskStatusRepository) FindByName(ctx context.Context, name string) (models.TaskStatus, error) {
	var status models.TaskStatus
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&status).Error
	return status, translateError(err)
}

type AnimalStatusRepository struct {
	db *gorm.DB
}

func NewAnimalStatusRepository(db *gorm.DB) *AnimalStatusRepository {
	return &AnimalStatusRepository{db: db}
}

func (r *AnimalStatusRepository) GetOrCreate(ctx context.Context, name string) (models.AnimalStatus, error) {
	status := models.AnimalStatus{Name: name}
	if err := getOrCreateNamed(ctx, r.db, &status, name); err != nil {
		return models.AnimalStatus{}, fmt.Errorf("failed to resolve animal status %q: %w", name, err)
	}
	return status, nil
}
