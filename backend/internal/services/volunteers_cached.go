package services

import (
	"context"
	"fmt"
	"time"

	"patas-conectadas/backend/internal/cache"
	"patas-conectadas/backend/internal/models"

	"go.uber.org/zap"
)

const (
	volunteerListKey = "volunteers:all"
	volunteerKeyFmt  = "volunteer:%d"
)

// CachedVolunteerService serves volunteer reads from the cache and drops the
// affected keys on every write. Cache failures only cost a store round trip.
type CachedVolunteerService struct {
	next  VolunteerService
	cache cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedVolunteerService(next VolunteerService, c cache.Cache, ttl time.Duration, log *zap.Logger) *CachedVolunteerService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedVolunteerService{next: next, cache: c, ttl: ttl, log: log}
}

func (s *CachedVolunteerService) CreateVolunteer(ctx context.Context, input CreateVolunteerInput) (models.Volunteer, error) {
	v, err := s.next.CreateVolunteer(ctx, input)
	if err == nil {
		s.invalidate(volunteerListKey)
	}
	return v, err
}

func (s *CachedVolunteerService) GetVolunteer(ctx context.Context, id uint) (models.Volunteer, error) {
	key := fmt.Sprintf(volunteerKeyFmt, id)

	var v models.Volunteer
	if err := s.cache.Get(key, &v); err == nil {
		return v, nil
	}

	v, err := s.next.GetVolunteer(ctx, id)
	if err != nil {
		return models.Volunteer{}, err
	}
	s.store(key, v)
	return v, nil
}

func (s *CachedVolunteerService) ListVolunteers(ctx context.Context) ([]models.Volunteer, error) {
	var list []models.Volunteer
	if err := s.cache.Get(volunteerListKey, &list); err == nil && list != nil {
		return list, nil
	}

	list, err := s.next.ListVolunteers(ctx)
	if err != nil {
		return nil, err
	}
	s.store(volunteerListKey, list)
	return list, nil
}

func (s *CachedVolunteerService) UpdateVolunteer(ctx context.Context, id uint, patch models.VolunteerPatch) (models.Volunteer, error) {
	v, err := s.next.UpdateVolunteer(ctx, id, patch)
	if err == nil {
		s.invalidate(fmt.Sprintf(volunteerKeyFmt, id), volunteerListKey)
	}
	return v, err
}

func (s *CachedVolunteerService) DeleteVolunteer(ctx context.Context, id uint) error {
	err := s.next.DeleteVolunteer(ctx, id)
	if err == nil {
		s.invalidate(fmt.Sprintf(volunteerKeyFmt, id), volunteerListKey)
	}
	return err
}

func (s *CachedVolunteerService) store(key string, value interface{}) {
	if err := s.cache.Set(key, value, s.ttl); err != nil {
		s.log.Warn("Failed to cache value", zap.String("key", key), zap.Error(err))
	}
}

func (s *CachedVolunteerService) invalidate(keys ...string) {
	for _, key := range keys {
		if err := s.cache.Delete(key); err != nil {
			s.log.Warn("Failed to invalidate cache key", zap.String("key", key), zap.Error(err))
		}
	}
}
