package models

import (
	"time"
)

// Names of the task status rows used by the lifecycle engine. The status
// table itself is an open vocabulary; these are the names the engine knows.
const (
	TaskStatusPending   = "pending"
	TaskStatusAssigned  = "assigned"
	TaskStatusCompleted = "completed"
)

type TaskStatus struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:50;not null;uniqueIndex:idx_task_statuses_name"`
}

type Task struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Title        string     `json:"title" gorm:"not null"`
	Description  string     `json:"description" gorm:"type:text;not null"`
	TargetEntity *string    `json:"target_entity"`
	DueDate      *time.Time `json:"due_date"`
	StatusID     uint       `json:"-" gorm:"not null;index"`
	Status       TaskStatus `json:"-" gorm:"foreignKey:StatusID"`
	VolunteerID  *uint      `json:"-" gorm:"index"`
	Volunteer    *Volunteer `json:"-" gorm:"foreignKey:VolunteerID;constraint:OnDelete:SET NULL"`
	AnimalID     *uint      `json:"animal_id" gorm:"index"`
	Animal       *Animal    `json:"-" gorm:"foreignKey:AnimalID;constraint:OnDelete:SET NULL"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// StatusName returns the name of the loaded status row.
func (t Task) StatusName() string {
	return t.Status.Name
}

// TaskFilter is a conjunction of equality predicates over tasks. Nil fields
// are not applied.
type TaskFilter struct {
	StatusID    *uint
	VolunteerID *uint
}

type Assignee struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// TaskResponse is the wire shape of a task.
type TaskResponse struct {
	ID           uint       `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	TargetEntity *string    `json:"target_entity"`
	DueDate      *time.Time `json:"due_date"`
	AnimalID     *uint      `json:"animal_id"`
	AssignedTo   *Assignee  `json:"assigned_to"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func NewTaskResponse(t Task) TaskResponse {
	resp := TaskResponse{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       t.StatusName(),
		TargetEntity: t.TargetEntity,
		DueDate:      t.DueDate,
		AnimalID:     t.AnimalID,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	if t.VolunteerID != nil {
		resp.AssignedTo = &Assignee{ID: *t.VolunteerID}
		if t.Volunteer != nil {
			resp.AssignedTo.Name = t.Volunteer.Name
		}
	}
	return resp
}

func NewTaskResponses(tasks []Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, NewTaskResponse(t))
	}
	return out
}
