package models

import (
	"time"

	"gorm.io/gorm"
)

type Volunteer struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	CPF       string    `json:"cpf" gorm:"size:11;not null;uniqueIndex:idx_volunteers_cpf"`
	Email     string    `json:"email" gorm:"not null;uniqueIndex:idx_volunteers_email"`
	Phone     string    `json:"phone" gorm:"not null"`
	Skills    []string  `json:"skills" gorm:"type:text;serializer:json"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Preferences []Preference `json:"-" gorm:"foreignKey:VolunteerID;constraint:OnDelete:CASCADE"`
}

// AfterFind turns a NULL skills column into an empty list.
func (v *Volunteer) AfterFind(*gorm.DB) error {
	if v.Skills == nil {
		v.Skills = []string{}
	}
	return nil
}

// VolunteerPatch carries the fields of a partial update. A nil field is
// left untouched.
type VolunteerPatch struct {
	Name   *string
	CPF    *string
	Email  *string
	Phone  *string
	Skills *[]string
}

func (p VolunteerPatch) Empty() bool {
	return p.Name == nil && p.CPF == nil && p.Email == nil && p.Phone == nil && p.Skills == nil
}

// Apply copies the present fields onto v and returns the column names that
// changed, in a stable order.
func (p VolunteerPatch) Apply(v *Volunteer) []string {
	var cols []string
	if p.Name != nil {
		v.Name = *p.Name
		cols = append(cols, "name")
	}
	if p.CPF != nil {
		v.CPF = *p.CPF
		cols = append(cols, "cpf")
	}
	if p.Email != nil {
		v.Email = *p.Email
		cols = append(cols, "email")
	}
	if p.Phone != nil {
		v.Phone = *p.Phone
		cols = append(cols, "phone")
	}
	if p.Skills != nil {
		v.Skills = *p.Skills
		if v.Skills == nil {
			v.Skills = []string{}
		}
		cols = append(cols, "skills")
	}
	return cols
}
