package dto

import (
	"time"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// SessionBookRequest books a tutoring session. The amount is debited from
// the student's wallet immediately.
type SessionBookRequest struct {
	FacultyID       uint    `json:"faculty_id" validate:"required"`
	Subject         string  `json:"subject" validate:"max=200"`
	Topic           string  `json:"topic" validate:"required,min=2,max=255"`
	ScheduledAt     string  `json:"scheduled_at" validate:"required"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gte=15,lte=240"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
}

// SessionDecisionRequest accepts or rejects a pending session.
type SessionDecisionRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}

// SessionResponse is the public view of a session.
type SessionResponse struct {
	ID              uint      `json:"id"`
	SessionID       string    `json:"session_id"`
	StudentID       uint      `json:"student_id"`
	FacultyID       uint      `json:"faculty_id"`
	Subject         string    `json:"subject,omitempty"`
	Topic           string    `json:"topic"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Amount          float64   `json:"amount"`
	Status          string    `json:"status"`
	PaymentStatus   string    `json:"payment_status"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewSessionResponse converts a session model.
func NewSessionResponse(session models.Session) SessionResponse {
	return SessionResponse{
		ID:              session.ID,
		SessionID:       session.SessionID,
		StudentID:       session.StudentID,
		FacultyID:       session.FacultyID,
		Subject:         session.Subject,
		Topic:           session.Topic,
		ScheduledAt:     session.ScheduledAt,
		DurationMinutes: session.DurationMins,
		Amount:          session.Amount,
		Status:          session.Status,
		PaymentStatus:   session.PaymentStatus,
		Notes:           session.Notes,
		CreatedAt:       session.CreatedAt,
	}
}

// NewSessionResponseSlice converts a list of sessions.
func NewSessionResponseSlice(sessions []models.Session) []SessionResponse {
	out := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, NewSessionResponse(session))
	}
	return out
}
