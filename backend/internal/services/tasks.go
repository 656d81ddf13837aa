package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"patas-conectadas/backend/internal/models"
	"patas-conectadas/backend/internal/repositories"

	"go.uber.org/zap"
)

type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uint) (models.Task, error)
	Find(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	TransitionStatus(ctx context.Context, id, fromStatusID, toStatusID uint, volunteerID *uint) (models.Task, error)
	Delete(ctx context.Context, id uint) error
}

type TaskStatusStore interface {
	GetOrCreate(ctx context.Context, name string) (models.TaskStatus, error)
	FindByName(ctx context.Context, name string) (models.TaskStatus, error)
}

// ExistenceChecker answers whether a row with the given id exists.
type ExistenceChecker interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

type CreateTaskInput struct {
	Title        string
	Description  string
	TargetEntity *string
	DueDate      *time.Time
	AnimalID     *uint
}

type TaskService interface {
	CreateTask(ctx context.Context, input CreateTaskInput) (models.Task, error)
	GetTaskByID(ctx context.Context, id uint) (models.Task, error)
	ListTasks(ctx context.Context, status *string, assignedTo *uint) ([]models.Task, error)
	ListTasksForVolunteer(ctx context.Context, volunteerID uint) ([]models.Task, error)
	AssignTask(ctx context.Context, taskID, volunteerID uint) (models.Task, error)
	CompleteTask(ctx context.Context, taskID uint) (models.Task, error)
	DeleteTask(ctx context.Context, taskID uint) error
}

type TaskServiceImpl struct {
	tasks      TaskStore
	statuses   TaskStatusStore
	volunteers ExistenceChecker
	animals    ExistenceChecker
	log        *zap.Logger
	now        func() time.Time
}

func NewTaskService(tasks TaskStore, statuses TaskStatusStore, volunteers, animals ExistenceChecker, log *zap.Logger) *TaskServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskServiceImpl{
		tasks:      tasks,
		statuses:   statuses,
		volunteers: volunteers,
		animals:    animals,
		log:        log,
		now:        time.Now,
	}
}

func (s *TaskServiceImpl) CreateTask(ctx context.Context, input CreateTaskInput) (models.Task, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" {
		return models.Task{}, validationf("title", "title must not be empty")
	}
	if description == "" {
		return models.Task{}, validationf("description", "description must not be empty")
	}

	if input.AnimalID != nil {
		if err := s.requireExists(ctx, s.animals, *input.AnimalID, "animal"); err != nil {
			return models.Task{}, err
		}
	}

	pending, err := s.statuses.GetOrCreate(ctx, models.TaskStatusPending)
	if err != nil {
		return models.Task{}, err
	}

	now := s.now()
	task := models.Task{
		Title:        title,
		Description:  description,
		TargetEntity: input.TargetEntity,
		DueDate:      input.DueDate,
		StatusID:     pending.ID,
		AnimalID:     input.AnimalID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.tasks.Create(ctx, &task); err != nil {
		return models.Task{}, err
	}
	task.Status = pending

	s.log.Info("Task created", zap.Uint("task_id", task.ID), zap.String("title", task.Title))
	return task, nil
}

func (s *TaskServiceImpl) GetTaskByID(ctx context.Context, id uint) (models.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Task{}, notFound("task")
	}
	return task, err
}

// ListTasks filters by status name and assigned volunteer. An unknown status
// name matches nothing.
func (s *TaskServiceImpl) ListTasks(ctx context.Context, status *string, assignedTo *uint) ([]models.Task, error) {
	var filter models.TaskFilter
	if status != nil {
		row, err := s.statuses.FindByName(ctx, *status)
		if errors.Is(err, repositories.ErrNotFound) {
			return []models.Task{}, nil
		}
		if err != nil {
			return nil, err
		}
		filter.StatusID = &row.ID
	}
	filter.VolunteerID = assignedTo
	return s.tasks.Find(ctx, filter)
}

func (s *TaskServiceImpl) ListTasksForVolunteer(ctx context.Context, volunteerID uint) ([]models.Task, error) {
	if err := s.requireExists(ctx, s.volunteers, volunteerID, "volunteer"); err != nil {
		return nil, err
	}
	return s.tasks.Find(ctx, models.TaskFilter{VolunteerID: &volunteerID})
}

func (s *TaskServiceImpl) AssignTask(ctx context.Context, taskID, volunteerID uint) (models.Task, error) {
	task, err := s.GetTaskByID(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if err := s.requireExists(ctx, s.volunteers, volunteerID, "volunteer"); err != nil {
		return models.Task{}, err
	}
	updated, err := s.transition(ctx, task, assignTransition, &volunteerID)
	if err != nil {
		return models.Task{}, err
	}

	s.log.Info("Task assigned", zap.Uint("task_id", taskID), zap.Uint("volunteer_id", volunteerID))
	return updated, nil
}

func (s *TaskServiceImpl) CompleteTask(ctx context.Context, taskID uint) (models.Task, error) {
	task, err := s.GetTaskByID(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	updated, err := s.transition(ctx, task, completeTransition, nil)
	if err != nil {
		return models.Task{}, err
	}

	s.log.Info("Task completed", zap.Uint("task_id", taskID))
	return updated, nil
}

// DeleteTask removes the task whatever its status.
func (s *TaskServiceImpl) DeleteTask(ctx context.Context, taskID uint) error {
	err := s.tasks.Delete(ctx, taskID)
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound("task")
	}
	if err != nil {
		return err
	}

	s.log.Info("Task deleted", zap.Uint("task_id", taskID))
	return nil
}

// transition guards on the status read with task and then writes the new
// status conditionally on that same status row, so a concurrent transition
// that wins the race turns this one into an InvalidTransition.
func (s *TaskServiceImpl) transition(ctx context.Context, task models.Task, tr lifecycleTransition, volunteerID *uint) (models.Task, error) {
	if !tr.allowedFrom(task.StatusName()) {
		return models.Task{}, invalidTransition(tr.rejection)
	}

	target, err := s.statuses.GetOrCreate(ctx, tr.to)
	if err != nil {
		return models.Task{}, err
	}

	updated, err := s.tasks.TransitionStatus(ctx, task.ID, task.StatusID, target.ID, volunteerID)
	switch {
	case errors.Is(err, repositories.ErrStatusMismatch):
		s.log.Warn("Task status changed concurrently", zap.Uint("task_id", task.ID), zap.String("wanted", tr.to))
		return models.Task{}, invalidTransition(tr.rejection)
	case errors.Is(err, repositories.ErrNotFound):
		return models.Task{}, notFound("task")
	case err != nil:
		return models.Task{}, err
	}
	return updated, nil
}

func (s *TaskServiceImpl) requireExists(ctx context.Context, store ExistenceChecker, id uint, entity string) error {
	ok, err := store.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(entity)
	}
	return nil
}
