package models

import "time"

// Roles recognised by the platform.
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleAdmin   = "admin"
)

// User represents a platform account: student, faculty or admin.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"size:100;not null" json:"name"`
	Email          string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role           string     `gorm:"size:20;not null" json:"role"`
	Institution    string     `gorm:"size:200" json:"institution,omitempty"`
	CollegeID      *uint      `json:"college_id,omitempty"`
	HashedPassword string     `gorm:"size:255;not null" json:"-"`
	Verified       bool       `gorm:"not null;default:false" json:"verified"`
	EmailVerified  bool       `gorm:"not null;default:false" json:"email_verified"`
	WalletBalance  float64    `gorm:"not null;default:0" json:"wallet_balance"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
	VerifiedBy     *uint      `json:"verified_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsFaculty reports whether the user holds the faculty role.
func (u User) IsFaculty() bool {
	return u.Role == RoleFaculty
}
