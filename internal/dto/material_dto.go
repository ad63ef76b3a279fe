package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// MaterialCreateRequest registers an uploaded study resource.
type MaterialCreateRequest struct {
	Title       string   `json:"title" validate:"required,min=2,max=255"`
	Description string   `json:"description" validate:"max=2000"`
	FileURL     string   `json:"file_url" validate:"required,url"`
	Subject     string   `json:"subject" validate:"max=200"`
	CourseID    *uint    `json:"course_id,omitempty"`
	Tags        []string `json:"tags" validate:"max=10,dive,max=50"`
	Visibility  string   `json:"visibility" validate:"omitempty,oneof=public private"`
}

// MaterialUpdateRequest patches a material.
type MaterialUpdateRequest struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,min=2,max=255"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=2000"`
	Subject     *string   `json:"subject,omitempty" validate:"omitempty,max=200"`
	Tags        *[]string `json:"tags,omitempty" validate:"omitempty,max=10,dive,max=50"`
	Visibility  *string   `json:"visibility,omitempty" validate:"omitempty,oneof=public private"`
}

// MaterialResponse is the public view of a material.
type MaterialResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	FileURL     string    `json:"file_url"`
	UploadedBy  uint      `json:"uploaded_by"`
	Subject     string    `json:"subject,omitempty"`
	CourseID    *uint     `json:"course_id,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Visibility  string    `json:"visibility"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewMaterialResponse converts a material model.
func NewMaterialResponse(material models.Material) MaterialResponse {
	var tags []string
	if len(material.Tags) > 0 {
		_ = json.Unmarshal(material.Tags, &tags)
	}

	return MaterialResponse{
		ID:          material.ID,
		Title:       material.Title,
		Description: material.Description,
		FileURL:     material.FileURL,
		UploadedBy:  material.UploadedBy,
		Subject:     material.Subject,
		CourseID:    material.CourseID,
		Tags:        tags,
		Visibility:  material.Visibility,
		CreatedAt:   material.CreatedAt,
	}
}

// NewMaterialResponseSlice converts a list of materials.
func NewMaterialResponseSlice(materials []models.Material) []MaterialResponse {
	out := make([]MaterialResponse, 0, len(materials))
	for _, material := range materials {
		out = append(out, NewMaterialResponse(material))
	}
	return out
}
