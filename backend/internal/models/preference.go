package models

import "time"

type Preference struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	VolunteerID uint      `json:"volunteer_id" gorm:"not null;index"`
	Preference  string    `json:"preference" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}
