package repositories

import (
	"context"
	"fmt"
	"time"

	"patas-conectadas/backend/internal/models"

	"gorm.io/gorm"
)

type AnimalRepository struct {
	db *gorm.DB
}

func NewAnimalRepository(db *gorm.DB) *AnimalRepository {
	return &AnimalRepository{db: db}
}

func (r *AnimalRepository) Create(ctx context.Context, a *models.Animal) error {
	if err := r.db.WithContext(ctx).Omit("Status").Create(a).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (r *AnimalRepository) GetByID(ctx context.Context, id uint) (models.Animal, error) {
	var a models.Animal
	err := r.db.WithContext(ctx).Preload("Status").First(&a, id).Error
	return a, translateError(err)
}

func (r *AnimalRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Animal{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check animal: %w", err)
	}
	return count > 0, nil
}

func (r *AnimalRepository) List(ctx context.Context) ([]models.Animal, error) {
	animals := make([]models.Animal, 0)
	if err := r.db.WithContext(ctx).Preload("Status").Order("id ASC").Find(&animals).Error; err != nil {
		return nil, fmt.Errorf("failed to list animals: %w", err)
	}
	return animals, nil
}

func (r *AnimalRepository) Update(ctx context.Context, id uint, patch models.AnimalPatch) (models.Animal, error) {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return models.Animal{}, err
	}

	cols := patch.Apply(&a)
	if len(cols) == 0 {
		return a, nil
	}
	a.UpdatedAt = time.Now()
	cols = append(cols, "updated_at")

	if err := r.db.WithContext(ctx).Model(&a).Select(cols).Updates(&a).Error; err != nil {
		return models.Animal{}, translateError(err)
	}
	return r.GetByID(ctx, id)
}

func (r *AnimalRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Animal{}, id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
