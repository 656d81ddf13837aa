package repositories

import (
	"context"
	"fmt"
	"time"

	"patas-conectadas/backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Columns that carry a uniqueness constraint on volunteers.
var volunteerUniqueColumns = map[string]bool{"cpf": true, "email": true}

type VolunteerRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewVolunteerRepository(db *gorm.DB, log *zap.Logger) *VolunteerRepository {
	return &VolunteerRepository{db: db, log: log}
}

func (r *VolunteerRepository) Create(ctx context.Context, v *models.Volunteer) error {
	if err := r.db.WithContext(ctx).Omit("Preferences").Create(v).Error; err != nil {
		r.log.Warn("Failed to save volunteer", zap.Error(err))
		return translateError(err)
	}
	return nil
}

func (r *VolunteerRepository) GetByID(ctx context.Context, id uint) (models.Volunteer, error) {
	var v models.Volunteer
	err := r.db.WithContext(ctx).First(&v, id).Error
	return v, translateError(err)
}

func (r *VolunteerRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Volunteer{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check volunteer: %w", err)
	}
	return count > 0, nil
}

func (r *VolunteerRepository) List(ctx context.Context) ([]models.Volunteer, error) {
	volunteers := make([]models.Volunteer, 0)
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&volunteers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list volunteers: %w", err)
	}
	return volunteers, nil
}

// TakenBy reports whether another volunteer (id != excludeID) already holds
// value in one of the unique columns.
func (r *VolunteerRepository) TakenBy(ctx context.Context, column, value string, excludeID uint) (bool, error) {
	if !volunteerUniqueColumns[column] {
		return false, fmt.Errorf("column %q is not unique on volunteers", column)
	}
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Volunteer{}).Where(column+" = ?", value)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check volunteer %s: %w", column, err)
	}
	return count > 0, nil
}

func (r *VolunteerRepository) Update(ctx context.Context, id uint, patch models.VolunteerPatch) (models.Volunteer, error) {
	v, err := r.GetByID(ctx, id)
	if err != nil {
		return models.Volunteer{}, err
	}

	cols := patch.Apply(&v)
	if len(cols) == 0 {
		return v, nil
	}
	v.UpdatedAt = time.Now()
	cols = append(cols, "updated_at")

	if err := r.db.WithContext(ctx).Model(&v).Select(cols).Updates(&v).Error; err != nil {
		return models.Volunteer{}, translateError(err)
	}
	return r.GetByID(ctx, id)
}

func (r *VolunteerRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Volunteer{}, id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
