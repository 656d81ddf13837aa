package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"patas-conectadas/backend/internal/models"
	"patas-conectadas/backend/internal/repositories"
)

type AnimalStore interface {
	Create(ctx context.Context, a *models.Animal) error
	GetByID(ctx context.Context, id uint) (models.Animal, error)
	List(ctx context.Context) ([]models.Animal, error)
	Update(ctx context.Context, id uint, patch models.AnimalPatch) (models.Animal, error)
	Delete(ctx context.Context, id uint) error
}

type AnimalStatusStore interface {
	GetOrCreate(ctx context.Context, name string) (models.AnimalStatus, error)
}

// AnimalInput is used for both registration and partial updates. On create
// Name and Species are required; on update nil fields are left untouched.
type AnimalInput struct {
	Name           *string
	Species        *string
	Breed          *string
	Sex            *string
	RescueDate     *time.Time
	RescueLocation *string
	Notes          *string
	Status         *string
}

type AnimalService interface {
	CreateAnimal(ctx context.Context, input AnimalInput) (models.Animal, error)
	GetAnimal(ctx context.Context, id uint) (models.Animal, error)
	ListAnimals(ctx context.Context) ([]models.Animal, error)
	UpdateAnimal(ctx context.Context, id uint, input AnimalInput) (models.Animal, error)
	DeleteAnimal(ctx context.Context, id uint) error
}

type AnimalServiceImpl struct {
	store    AnimalStore
	statuses AnimalStatusStore
}

func NewAnimalService(store AnimalStore, statuses AnimalStatusStore) *AnimalServiceImpl {
	return &AnimalServiceImpl{store: store, statuses: statuses}
}

func (s *AnimalServiceImpl) CreateAnimal(ctx context.Context, input AnimalInput) (models.Animal, error) {
	name := trimmed(input.Name)
	species := trimmed(input.Species)
	if name == "" {
		return models.Animal{}, validationf("name", "name must not be empty")
	}
	if species == "" {
		return models.Animal{}, validationf("species", "species must not be empty")
	}
	if err := validateSex(input.Sex); err != nil {
		return models.Animal{}, err
	}

	now := time.Now()
	animal := models.Animal{
		Name:           name,
		Species:        species,
		Breed:          input.Breed,
		Sex:            input.Sex,
		RescueDate:     input.RescueDate,
		RescueLocation: input.RescueLocation,
		Notes:          input.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if input.Status != nil {
		status, err := s.resolveStatus(ctx, *input.Status)
		if err != nil {
			return models.Animal{}, err
		}
		animal.StatusID = &status.ID
		animal.Status = &status
	}

	if err := s.store.Create(ctx, &animal); err != nil {
		return models.Animal{}, err
	}
	return animal, nil
}

func (s *AnimalServiceImpl) GetAnimal(ctx context.Context, id uint) (models.Animal, error) {
	a, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Animal{}, notFound("animal")
	}
	return a, err
}

func (s *AnimalServiceImpl) ListAnimals(ctx context.Context) ([]models.Animal, error) {
	return s.store.List(ctx)
}

func (s *AnimalServiceImpl) UpdateAnimal(ctx context.Context, id uint, input AnimalInput) (models.Animal, error) {
	if _, err := s.GetAnimal(ctx, id); err != nil {
		return models.Animal{}, err
	}

	patch := models.AnimalPatch{
		Breed:          input.Breed,
		Sex:            input.Sex,
		RescueDate:     input.RescueDate,
		RescueLocation: input.RescueLocation,
		Notes:          input.Notes,
	}
	if input.Name != nil {
		name := trimmed(input.Name)
		if name == "" {
			return models.Animal{}, validationf("name", "name must not be empty")
		}
		patch.Name = &name
	}
	if input.Species != nil {
		species := trimmed(input.Species)
		if species == "" {
			return models.Animal{}, validationf("species", "species must not be empty")
		}
		patch.Species = &species
	}
	if err := validateSex(input.Sex); err != nil {
		return models.Animal{}, err
	}
	if input.Status != nil {
		status, err := s.resolveStatus(ctx, *input.Status)
		if err != nil {
			return models.Animal{}, err
		}
		patch.StatusID = &status.ID
	}

	updated, err := s.store.Update(ctx, id, patch)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Animal{}, notFound("animal")
	}
	return updated, err
}

func (s *AnimalServiceImpl) DeleteAnimal(ctx context.Context, id uint) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound("animal")
	}
	return err
}

func (s *AnimalServiceImpl) resolveStatus(ctx context.Context, name string) (models.AnimalStatus, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.AnimalStatus{}, validationf("status", "status must not be empty")
	}
	return s.statuses.GetOrCreate(ctx, name)
}

// Sex is a single letter: M, F or U (unknown).
func validateSex(sex *string) error {
	if sex == nil {
		return nil
	}
	switch *sex {
	case "M", "F", "U":
		return nil
	}
	return validationf("sex", "sex must be one of M, F, U")
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
