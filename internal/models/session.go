package models

import "time"

// Session lifecycle states.
const (
	SessionPending   = "pending"
	SessionAccepted  = "accepted"
	SessionRejected  = "rejected"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

// Session payment states.
const (
	SessionPaymentPending   = "pending"
	SessionPaymentCompleted = "completed"
	SessionPaymentRefunded  = "refunded"
)

// Session is a one-on-one tutoring booking between a student and a faculty
// member, paid from the student's wallet at booking time.
type Session struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SessionID     string    `gorm:"size:32;uniqueIndex;not null" json:"session_id"`
	StudentID     uint      `gorm:"not null;index" json:"student_id"`
	FacultyID     uint      `gorm:"not null;index" json:"faculty_id"`
	Subject       string    `gorm:"size:200" json:"subject"`
	Topic         string    `gorm:"size:255" json:"topic"`
	ScheduledAt   time.Time `gorm:"not null" json:"scheduled_at"`
	DurationMins  int       `gorm:"not null" json:"duration_minutes"`
	Amount        float64   `gorm:"not null" json:"amount"`
	Status        string    `gorm:"size:12;not null;default:pending;index" json:"status"`
	PaymentStatus string    `gorm:"size:12;not null;default:pending" json:"payment_status"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Terminal reports whether the session can no longer change state.
func (s *Session) Terminal() bool {
	return s.Status == SessionCompleted || s.Status == SessionRejected || s.Status == SessionCancelled
}
