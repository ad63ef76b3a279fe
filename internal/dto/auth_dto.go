package dto

import (
	"time"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// RegisterRequest starts a registration. The account is only created after
// the emailed OTP is verified.
type RegisterRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Role        string `json:"role" validate:"required,oneof=student faculty"`
	Institution string `json:"institution" validate:"max=200"`
	CollegeID   *uint  `json:"college_id,omitempty"`
}

// VerifyOTPRequest completes registration or a login challenge. Password
// reset codes are consumed by the reset endpoint instead.
type VerifyOTPRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Code    string `json:"code" validate:"required,len=6,numeric"`
	Purpose string `json:"purpose" validate:"required,oneof=registration login"`
}

// LoginRequest checks the password and triggers a login OTP.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResendOTPRequest requests a fresh code, invalidating earlier ones.
type ResendOTPRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Purpose string `json:"purpose" validate:"required,oneof=registration login password_reset"`
}

// ProfileUpdateRequest changes the editable fields of an account. Nil fields
// are left untouched.
type ProfileUpdateRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Institution *string `json:"institution,omitempty" validate:"omitempty,max=200"`
	CollegeID   *uint   `json:"college_id,omitempty"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes a password reset with the emailed OTP.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ChangePasswordRequest rotates the password of a logged-in user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// TokenResponse is issued after a successful OTP verification.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID            uint       `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	Institution   string     `json:"institution,omitempty"`
	CollegeID     *uint      `json:"college_id,omitempty"`
	Verified      bool       `json:"verified"`
	EmailVerified bool       `json:"email_verified"`
	WalletBalance float64    `json:"wallet_balance"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NewUserResponse converts a user model into its API representation.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Role:          user.Role,
		Institution:   user.Institution,
		CollegeID:     user.CollegeID,
		Verified:      user.Verified,
		EmailVerified: user.EmailVerified,
		WalletBalance: user.WalletBalance,
		LastLogin:     user.LastLogin,
		CreatedAt:     user.CreatedAt,
	}
}

// NewUserResponseSlice converts a list of users.
func NewUserResponseSlice(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, NewUserResponse(user))
	}
	return out
}
