package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"patas-conectadas/backend/internal/models"
	"patas-conectadas/backend/internal/repositories"
)

type PreferenceStore interface {
	CreateBatch(ctx context.Context, prefs []models.Preference) error
	ListByVolunteer(ctx context.Context, volunteerID uint) ([]models.Preference, error)
	GetForVolunteer(ctx context.Context, volunteerID, id uint) (models.Preference, error)
	Delete(ctx context.Context, id uint) error
}

type PreferenceService interface {
	AddPreferences(ctx context.Context, volunteerID uint, values []string) ([]models.Preference, error)
	ListPreferences(ctx context.Context, volunteerID uint) ([]models.Preference, error)
	DeletePreference(ctx context.Context, volunteerID, preferenceID uint) error
}

// PreferenceServiceImpl manages the free-text preferences of a volunteer.
// Every operation first requires the owning volunteer to exist.
type PreferenceServiceImpl struct {
	store      PreferenceStore
	volunteers ExistenceChecker
}

func NewPreferenceService(store PreferenceStore, volunteers ExistenceChecker) *PreferenceServiceImpl {
	return &PreferenceServiceImpl{store: store, volunteers: volunteers}
}

func (s *PreferenceServiceImpl) AddPreferences(ctx context.Context, volunteerID uint, values []string) ([]models.Preference, error) {
	if err := s.requireVolunteer(ctx, volunteerID); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, validationf("preferences", "preferences must not be empty")
	}

	now := time.Now()
	prefs := make([]models.Preference, 0, len(values))
	for _, raw := range values {
		value := strings.TrimSpace(raw)
		if value == "" {
			return nil, validationf("preferences", "preferences must not contain blank entries")
		}
		prefs = append(prefs, models.Preference{VolunteerID: volunteerID, Preference: value, CreatedAt: now})
	}

	if err := s.store.CreateBatch(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

func (s *PreferenceServiceImpl) ListPreferences(ctx context.Context, volunteerID uint) ([]models.Preference, error) {
	if err := s.requireVolunteer(ctx, volunteerID); err != nil {
		return nil, err
	}
	return s.store.ListByVolunteer(ctx, volunteerID)
}

func (s *PreferenceServiceImpl) DeletePreference(ctx context.Context, volunteerID, preferenceID uint) error {
	if err := s.requireVolunteer(ctx, volunteerID); err != nil {
		return err
	}
	if _, err := s.store.GetForVolunteer(ctx, volunteerID, preferenceID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("preference")
		}
		return err
	}

	err := s.store.Delete(ctx, preferenceID)
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound("preference")
	}
	return err
}

func (s *PreferenceServiceImpl) requireVolunteer(ctx context.Context, id uint) error {
	ok, err := s.volunteers.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("volunteer")
	}
	return nil
}
