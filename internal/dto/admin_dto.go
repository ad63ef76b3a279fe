package dto

import (
	"time"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// OverviewReport summarises platform-wide counts for the admin dashboard.
type OverviewReport struct {
	TotalStudents    int64 `json:"total_students"`
	TotalFaculty     int64 `json:"total_faculty"`
	VerifiedFaculty  int64 `json:"verified_faculty"`
	PendingFaculty   int64 `json:"pending_faculty"`
	TotalColleges    int64 `json:"total_colleges"`
	TotalCourses     int64 `json:"total_courses"`
	TotalEnrollments int64 `json:"total_enrollments"`
	TotalMaterials   int64 `json:"total_materials"`
	TotalQueries     int64 `json:"total_queries"`
	TotalTests       int64 `json:"total_tests"`

	TotalSessions         int64   `json:"total_sessions"`
	CompletedSessions     int64   `json:"completed_sessions"`
	PendingSessions       int64   `json:"pending_sessions"`
	SessionCompletionRate float64 `json:"session_completion_rate"`

	TotalRevenue   float64        `json:"total_revenue"`
	RecentActivity RecentActivity `json:"recent_activity"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// RecentActivity covers the trailing thirty days.
type RecentActivity struct {
	NewSignups   int64 `json:"new_signups"`
	NewMaterials int64 `json:"new_materials"`
	NewQueries   int64 `json:"new_queries"`
}

// PendingFacultyPage is one page of faculty accounts awaiting verification.
type PendingFacultyPage struct {
	Faculty []UserResponse `json:"faculty"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

// TestAnalyticsReport describes one test's attempts, or when TestID is zero,
// platform-wide totals.
type TestAnalyticsReport struct {
	TestID            uint    `json:"test_id,omitempty"`
	TestTitle         string  `json:"test_title,omitempty"`
	TotalTests        int64   `json:"total_tests,omitempty"`
	TotalAttempts     int64   `json:"total_attempts"`
	AverageScore      float64 `json:"average_score"`
	AveragePercentage float64 `json:"average_percentage"`
	HighestScore      float64 `json:"highest_score,omitempty"`
	LowestScore       float64 `json:"lowest_score,omitempty"`
}

// TransactionReport aggregates the wallet ledger over an optional window.
type TransactionReport struct {
	Transactions      []TransactionResponse `json:"transactions"`
	TotalTransactions int                   `json:"total_transactions"`
	TotalCredits      float64               `json:"total_credits"`
	TotalDebits       float64               `json:"total_debits"`
	NetAmount         float64               `json:"net_amount"`
	From              *time.Time            `json:"from,omitempty"`
	To                *time.Time            `json:"to,omitempty"`
}

// UserActivityReport summarises one user's footprint for the admin console.
type UserActivityReport struct {
	User            UserResponse `json:"user"`
	Enrollments     int          `json:"enrollments"`
	MaterialsShared int          `json:"materials_shared"`
	QueriesAsked    int          `json:"queries_asked"`
	TestsAttempted  int          `json:"tests_attempted"`
	SessionsBooked  int          `json:"sessions_booked"`
	GeneratedAt     time.Time    `json:"generated_at"`
}

// FacultyVerifyRequest approves or declines a faculty account.
type FacultyVerifyRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason" validate:"max=500"`
}

// NotificationResponse is the public view of a notification.
type NotificationResponse struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNotificationResponse converts a notification model.
func NewNotificationResponse(notification models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        notification.ID,
		Title:     notification.Title,
		Message:   notification.Message,
		Type:      notification.Type,
		Read:      notification.Read,
		CreatedAt: notification.CreatedAt,
	}
}

// NewNotificationResponseSlice converts a list of notifications.
func NewNotificationResponseSlice(notifications []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		out = append(out, NewNotificationResponse(notification))
	}
	return out
}
