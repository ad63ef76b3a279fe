package models

import (
	"time"

	"gorm.io/datatypes"
)

// OTP purposes.
const (
	OTPPurposeRegistration  = "registration"
	OTPPurposeLogin         = "login"
	OTPPurposePasswordReset = "password_reset"
)

// OTP is a single-use six digit code emailed to the user. Issuing a new code
// for the same email and purpose invalidates the previous one.
type OTP struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;not null;index:idx_otp_email_purpose" json:"email"`
	Code      string    `gorm:"size:6;not null" json:"-"`
	Purpose   string    `gorm:"size:20;not null;index:idx_otp_email_purpose" json:"purpose"`
	Used      bool      `gorm:"not null;default:false" json:"used"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Usable reports whether the code can still be verified.
func (o *OTP) Usable(now time.Time) bool {
	return !o.Used && o.Attempts < 5 && now.Before(o.ExpiresAt)
}

// PendingRegistration parks the submitted registration payload until the
// email OTP is verified. Rows expire together with their OTP.
type PendingRegistration struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null" json:"-"`
	ExpiresAt time.Time      `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
}

// PasswordResetAttempt records a forgot-password request for rate capping.
type PasswordResetAttempt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;not null;index" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
