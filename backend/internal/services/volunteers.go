package services

import (
	"context"
	"errors"
	"strings"

	"patas-conectadas/backend/internal/models"
	"patas-conectadas/backend/internal/repositories"
	"patas-conectadas/backend/internal/utils"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New()

type VolunteerStore interface {
	Create(ctx context.Context, v *models.Volunteer) error
	GetByID(ctx context.Context, id uint) (models.Volunteer, error)
	List(ctx context.Context) ([]models.Volunteer, error)
	TakenBy(ctx context.Context, column, value string, excludeID uint) (bool, error)
	Update(ctx context.Context, id uint, patch models.VolunteerPatch) (models.Volunteer, error)
	Delete(ctx context.Context, id uint) error
}

type CreateVolunteerInput struct {
	Name   string
	CPF    string
	Email  string
	Phone  string
	Skills []string
}

type VolunteerService interface {
	CreateVolunteer(ctx context.Context, input CreateVolunteerInput) (models.Volunteer, error)
	GetVolunteer(ctx context.Context, id uint) (models.Volunteer, error)
	ListVolunteers(ctx context.Context) ([]models.Volunteer, error)
	UpdateVolunteer(ctx context.Context, id uint, patch models.VolunteerPatch) (models.Volunteer, error)
	DeleteVolunteer(ctx context.Context, id uint) error
}

type VolunteerServiceImpl struct {
	store VolunteerStore
	log   *zap.Logger
}

func NewVolunteerService(store VolunteerStore, log *zap.Logger) *VolunteerServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &VolunteerServiceImpl{store: store, log: log}
}

func (s *VolunteerServiceImpl) CreateVolunteer(ctx context.Context, input CreateVolunteerInput) (models.Volunteer, error) {
	v := models.Volunteer{
		Name:   strings.TrimSpace(input.Name),
		CPF:    strings.TrimSpace(input.CPF),
		Email:  strings.TrimSpace(input.Email),
		Phone:  strings.TrimSpace(input.Phone),
		Skills: input.Skills,
	}
	if v.Skills == nil {
		v.Skills = []string{}
	}

	if err := validateVolunteer(v); err != nil {
		return models.Volunteer{}, err
	}
	if err := s.checkUnique(ctx, v.CPF, v.Email, 0); err != nil {
		return models.Volunteer{}, err
	}

	if err := s.store.Create(ctx, &v); err != nil {
		return models.Volunteer{}, storeConflict(err)
	}

	s.log.Info("Volunteer registered", zap.Uint("volunteer_id", v.ID))
	return v, nil
}

func (s *VolunteerServiceImpl) GetVolunteer(ctx context.Context, id uint) (models.Volunteer, error) {
	v, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Volunteer{}, notFound("volunteer")
	}
	return v, err
}

func (s *VolunteerServiceImpl) ListVolunteers(ctx context.Context) ([]models.Volunteer, error) {
	return s.store.List(ctx)
}

// UpdateVolunteer applies a partial update. Supplied fields are validated with
// the same rules as registration and uniqueness ignores the volunteer itself.
func (s *VolunteerServiceImpl) UpdateVolunteer(ctx context.Context, id uint, patch models.VolunteerPatch) (models.Volunteer, error) {
	current, err := s.GetVolunteer(ctx, id)
	if err != nil {
		return models.Volunteer{}, err
	}
	if patch.Empty() {
		return current, nil
	}

	patch = trimPatch(patch)
	merged := current
	patch.Apply(&merged)
	if err := validateVolunteer(merged); err != nil {
		return models.Volunteer{}, err
	}

	var cpf, email string
	if patch.CPF != nil {
		cpf = *patch.CPF
	}
	if patch.Email != nil {
		email = *patch.Email
	}
	if err := s.checkUnique(ctx, cpf, email, id); err != nil {
		return models.Volunteer{}, err
	}

	updated, err := s.store.Update(ctx, id, patch)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Volunteer{}, notFound("volunteer")
	}
	if err != nil {
		return models.Volunteer{}, storeConflict(err)
	}
	return updated, nil
}

func (s *VolunteerServiceImpl) DeleteVolunteer(ctx context.Context, id uint) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound("volunteer")
	}
	if err != nil {
		return err
	}
	s.log.Info("Volunteer removed", zap.Uint("volunteer_id", id))
	return nil
}

// checkUnique skips empty values.
func (s *VolunteerServiceImpl) checkUnique(ctx context.Context, cpf, email string, excludeID uint) error {
	for _, c := range []struct{ column, value string }{{"cpf", cpf}, {"email", email}} {
		if c.value == "" {
			continue
		}
		taken, err := s.store.TakenBy(ctx, c.column, c.value, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return conflict("volunteer", c.column)
		}
	}
	return nil
}

func validateVolunteer(v models.Volunteer) error {
	if v.Name == "" {
		return validationf("name", "name must not be empty")
	}
	if !utils.IsValidCPF(v.CPF) {
		return validationf("cpf", "cpf must be exactly 11 digits")
	}
	if err := validate.Var(v.Email, "required,email"); err != nil {
		return validationf("email", "email is not a valid address")
	}
	if v.Phone == "" {
		return validationf("phone", "phone must not be empty")
	}
	return nil
}

func trimPatch(p models.VolunteerPatch) models.VolunteerPatch {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		t := strings.TrimSpace(*s)
		return &t
	}
	p.Name = trim(p.Name)
	p.CPF = trim(p.CPF)
	p.Email = trim(p.Email)
	p.Phone = trim(p.Phone)
	return p
}

// storeConflict converts a unique violation that slipped past the pre-check
// (a concurrent registration) into a Conflict.
func storeConflict(err error) error {
	var uv *repositories.UniqueViolationError
	if !errors.As(err, &uv) {
		return err
	}
	field := uv.Field
	if field == "" {
		field = "cpf or email"
	}
	return conflict("volunteer", field)
}
