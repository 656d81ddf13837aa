package repositories

import (
	"context"
	"fmt"

	"patas-conectadas/backend/internal/models"

	"gorm.io/gorm"
)

type PreferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// CreateBatch inserts all preferences in one transaction.
func (r *PreferenceRepository) CreateBatch(ctx context.Context, prefs []models.Preference) error {
	if len(prefs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return translateError(tx.Create(&prefs).Error)
	})
}

func (r *PreferenceRepository) ListByVolunteer(ctx context.Context, volunteerID uint) ([]models.Preference, error) {
	prefs := make([]models.Preference, 0)
	err := r.db.WithContext(ctx).Where("volunteer_id = ?", volunteerID).Order("id ASC").Find(&prefs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	return prefs, nil
}

// GetForVolunteer only matches a preference owned by volunteerID.
func (r *PreferenceRepository) GetForVolunteer(ctx context.Context, volunteerID, id uint) (models.Preference, error) {
	var pref models.Preference
	err := r.db.WithContext(ctx).Where("id = ? AND volunteer_id = ?", id, volunteerID).First(&pref).Error
	return pref, translateError(err)
}

func (r *PreferenceRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Preference{}, id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
