package models

import "time"

type AnimalStatus struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:50;not null;uniqueIndex:idx_animal_statuses_name"`
}

type Animal struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	Name           string        `json:"name" gorm:"not null"`
	Species        string        `json:"species" gorm:"not null"`
	Breed          *string       `json:"breed"`
	Sex            *string       `json:"sex" gorm:"size:1"`
	RescueDate     *time.Time    `json:"rescue_date"`
	RescueLocation *string       `json:"rescue_location"`
	Notes          *string       `json:"notes" gorm:"type:text"`
	StatusID       *uint         `json:"-" gorm:"index"`
	Status         *AnimalStatus `json:"status,omitempty" gorm:"foreignKey:StatusID;constraint:OnDelete:SET NULL"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type AnimalPatch struct {
	Name           *string
	Species        *string
	Breed          *string
	Sex            *string
	RescueDate     *time.Time
	RescueLocation *string
	Notes          *string
	StatusID       *uint
}

func (p AnimalPatch) Apply(a *Animal) []string {
	var cols []string
	if p.Name != nil {
		a.Name = *p.Name
		cols = append(cols, "name")
	}
	if p.Species != nil {
		a.Species = *p.Species
		cols = append(cols, "species")
	}
	if p.Breed != nil {
		a.Breed = p.Breed
		cols = append(cols, "breed")
	}
	if p.Sex != nil {
		a.Sex = p.Sex
		cols = append(cols, "sex")
	}
	if p.RescueDate != nil {
		a.RescueDate = p.RescueDate
		cols = append(cols, "rescue_date")
	}
	if p.RescueLocation != nil {
		a.RescueLocation = p.RescueLocation
		cols = append(cols, "rescue_location")
	}
	if p.Notes != nil {
		a.Notes = p.Notes
		cols = append(cols, "notes")
	}
	if p.StatusID != nil {
		a.StatusID = p.StatusID
		a.Status = nil
		cols = append(cols, "status_id")
	}
	return cols
}
