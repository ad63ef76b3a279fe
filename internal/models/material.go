package models

import (
	"time"

	"gorm.io/datatypes"
)

// Material visibility values.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Material is a study resource uploaded by a student or faculty member.
type Material struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	FileURL     string         `gorm:"size:512;not null" json:"file_url"`
	UploadedBy  uint           `gorm:"not null;index" json:"uploaded_by"`
	Subject     string         `gorm:"size:200;index" json:"subject"`
	CourseID    *uint          `gorm:"index" json:"course_id,omitempty"`
	Tags        datatypes.JSON `gorm:"type:jsonb" json:"tags,omitempty"`
	Visibility  string         `gorm:"size:10;not null;default:public" json:"visibility"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
