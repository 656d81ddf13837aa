package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"patas-conectadas/backend/internal/models"
	"patas-conectadas/backend/internal/repositories"
)

// memoryTaskStore keeps tasks and statuses in maps and performs the status
// transition as a compare-and-set under its mutex.
type memoryTaskStore struct {
	mu         sync.Mutex
	nextID     uint
	tasks      map[uint]models.Task
	statuses   map[string]models.TaskStatus
	volunteers map[uint]string

	// beforeTransition runs inside TransitionStatus before the CAS, with
	// the lock released.
	beforeTransition func()
}

func newMemoryTaskStore() *memoryTaskStore {
	return &memoryTaskStore{
		tasks:      map[uint]models.Task{},
		statuses:   map[string]models.TaskStatus{},
		volunteers: map[uint]string{},
	}
}

func (m *memoryTaskStore) addVolunteer(id uint, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volunteers[id] = name
}

func (m *memoryTaskStore) GetOrCreate(_ context.Context, name string) (models.TaskStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.statuses[name]; ok {
		return s, nil
	}
	s := models.TaskStatus{ID: uint(len(m.statuses) + 1), Name: name}
	m.statuses[name] = s
	return s, nil
}

func (m *memoryTaskStore) FindByName(_ context.Context, name string) (models.TaskStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.statuses[name]; ok {
		return s, nil
	}
	return models.TaskStatus{}, repositories.ErrNotFound
}

func (m *memoryTaskStore) statusByID(id uint) models.TaskStatus {
	for _, s := range m.statuses {
		if s.ID == id {
			return s
		}
	}
	return models.TaskStatus{}
}

func (m *memoryTaskStore) load(t models.Task) models.Task {
	t.Status = m.statusByID(t.StatusID)
	if t.VolunteerID != nil {
		t.Volunteer = &models.Volunteer{ID: *t.VolunteerID, Name: m.volunteers[*t.VolunteerID]}
	}
	return t
}

func (m *memoryTaskStore) Create(_ context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	task.ID = m.nextID
	m.tasks[task.ID] = *task
	return nil
}

func (m *memoryTaskStore) GetByID(_ context.Context, id uint) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return models.Task{}, repositories.ErrNotFound
	}
	return m.load(t), nil
}

func (m *memoryTaskStore) Find(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Task, 0)
	for _, t := range m.tasks {
		if filter.StatusID != nil && t.StatusID != *filter.StatusID {
			continue
		}
		if filter.VolunteerID != nil && (t.VolunteerID == nil || *t.VolunteerID != *filter.VolunteerID) {
			continue
		}
		out = append(out, m.load(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memoryTaskStore) TransitionStatus(_ context.Context, id, from, to uint, volunteerID *uint) (models.Task, error) {
	if m.beforeTransition != nil {
		m.beforeTransition()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return models.Task{}, repositories.ErrNotFound
	}
	if t.StatusID != from {
		return m.load(t), repositories.ErrStatusMismatch
	}
	t.StatusID = to
	if volunteerID != nil {
		v := *volunteerID
		t.VolunteerID = &v
	}
	t.UpdatedAt = time.Now()
	m.tasks[id] = t
	return m.load(t), nil
}

func (m *memoryTaskStore) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memoryTaskStore) Exists(_ context.Context, id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.volunteers[id]
	return ok, nil
}

// existsFunc adapts a function to ExistenceChecker.
type existsFunc func(ctx context.Context, id uint) (bool, error)

func (f existsFunc) Exists(ctx context.Context, id uint) (bool, error) { return f(ctx, id) }

func existing(ids ...uint) existsFunc {
	set := map[uint]bool{}
	for _, id := range ids {
		set[id] = true
	}
	return func(_ context.Context, id uint) (bool, error) { return set[id], nil }
}

// fakeVolunteerStore lets each test override only the calls it cares about.
type fakeVolunteerStore struct {
	createFn  func(ctx context.Context, v *models.Volunteer) error
	getFn     func(ctx context.Context, id uint) (models.Volunteer, error)
	listFn    func(ctx context.Context) ([]models.Volunteer, error)
	takenByFn func(ctx context.Context, column, value string, excludeID uint) (bool, error)
	updateFn  func(ctx context.Context, id uint, patch models.VolunteerPatch) (models.Volunteer, error)
	deleteFn  func(ctx context.Context, id uint) error
}

func (f *fakeVolunteerStore) Create(ctx context.Context, v *models.Volunteer) error {
	if f.createFn == nil {
		v.ID = 1
		return nil
	}
	return f.createFn(ctx, v)
}

func (f *fakeVolunteerStore) GetByID(ctx context.Context, id uint) (models.Volunteer, error) {
	if f.getFn == nil {
		return models.Volunteer{}, repositories.ErrNotFound
	}
	return f.getFn(ctx, id)
}

func (f *fakeVolunteerStore) List(ctx context.Context) ([]models.Volunteer, error) {
	if f.listFn == nil {
		return []models.Volunteer{}, nil
	}
	return f.listFn(ctx)
}

func (f *fakeVolunteerStore) TakenBy(ctx context.Context, column, value string, excludeID uint) (bool, error) {
	if f.takenByFn == nil {
		return false, nil
	}
	return f.takenByFn(ctx, column, value, excludeID)
}

func (f *fakeVolunteerStore) Update(ctx context.Context, id uint, patch models.VolunteerPatch) (models.Volunteer, error) {
	if f.updateFn == nil {
		return models.Volunteer{}, repositories.ErrNotFound
	}
	return f.updateFn(ctx, id, patch)
}

func (f *fakeVolunteerStore) Delete(ctx context.Context, id uint) error {
	if f.deleteFn == nil {
		return repositories.ErrNotFound
	}
	return f.deleteFn(ctx, id)
}
