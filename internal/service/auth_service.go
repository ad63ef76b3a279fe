package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
	"github.com/noah-isme/studyfriend-api/pkg/mailer"
)

// Authentication failures.
var (
	ErrEmailTaken          = errors.New("email is already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrWeakPassword        = errors.New("password must be at least 8 characters with upper case, lower case and a digit")
	ErrUserNotFound        = errors.New("user not found")
	ErrPendingNotFound     = errors.New("no pending registration for this email")
	ErrFacultyNotVerified  = errors.New("faculty account is awaiting admin verification")
	ErrResetAttemptsCapped = errors.New("too many password reset requests, try again later")
)

const passwordResetHourlyCap = 3

// AuthService covers registration, the two-step OTP login flow and password
// lifecycle operations.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) error
	VerifyRegistration(ctx context.Context, payload dto.VerifyOTPRequest) (dto.TokenResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) error
	VerifyLogin(ctx context.Context, payload dto.VerifyOTPRequest) (dto.TokenResponse, error)
	ResendOTP(ctx context.Context, payload dto.ResendOTPRequest) error
	ForgotPassword(ctx context.Context, payload dto.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, payload dto.ResetPasswordRequest) error
	ChangePassword(ctx context.Context, userID uint, payload dto.ChangePasswordRequest) error
	Me(ctx context.Context, userID uint) (dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uint, payload dto.ProfileUpdateRequest) (dto.UserResponse, error)
	VerifyUser(ctx context.Context, userID uint) (dto.UserResponse, error)
}

type authService struct {
	users     repository.UserRepository
	otps      repository.OTPRepository
	otp       OTPService
	mail      mailer.Mailer
	validator *validator.Validate
	jwtSecret string
	tokenTTL  time.Duration
	otpTTL    time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService builds a new auth service.
func NewAuthService(
	users repository.UserRepository,
	otps repository.OTPRepository,
	otp OTPService,
	mail mailer.Mailer,
	validate *validator.Validate,
	jwtSecret string,
	tokenTTL, otpTTL time.Duration,
	logger zerolog.Logger,
) AuthService {
	return &authService{
		users:     users,
		otps:      otps,
		otp:       otp,
		mail:      mail,
		validator: validate,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		otpTTL:    otpTTL,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

// Register parks the payload as a pending registration and emails an OTP. The
// account is only created once the code is verified.
func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}
	if !passwordStrong(payload.Password) {
		return ErrWeakPassword
	}

	if _, err := s.users.GetByEmail(ctx, payload.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	payload.Password = string(hashed)

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	pending := models.PendingRegistration{
		Email:     payload.Email,
		Payload:   raw,
		ExpiresAt: s.now().Add(s.otpTTL),
	}
	if err := s.otps.SavePending(ctx, &pending); err != nil {
		return err
	}

	return s.otp.Issue(ctx, payload.Email, payload.Name, models.OTPPurposeRegistration)
}

// VerifyRegistration turns a pending registration into an account. Students
// are active immediately, faculty wait for admin verification.
func (s *authService) VerifyRegistration(ctx context.Context, payload dto.VerifyOTPRequest) (dto.TokenResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TokenResponse{}, err
	}

	pending, err := s.otps.GetPending(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TokenResponse{}, ErrPendingNotFound
		}
		return dto.TokenResponse{}, err
	}
	if s.now().After(pending.ExpiresAt) {
		return dto.TokenResponse{}, ErrPendingNotFound
	}

	if err := s.otp.Verify(ctx, payload.Email, models.OTPPurposeRegistration, payload.Code); err != nil {
		return dto.TokenResponse{}, err
	}

	var request dto.RegisterRequest
	if err := json.Unmarshal(pending.Payload, &request); err != nil {
		return dto.TokenResponse{}, err
	}

	user := models.User{
		Name:           request.Name,
		Email:          request.Email,
		Role:           request.Role,
		Institution:    request.Institution,
		CollegeID:      request.CollegeID,
		HashedPassword: request.Password,
		EmailVerified:  true,
		Verified:       request.Role == models.RoleStudent,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return dto.TokenResponse{}, err
	}

	if err := s.otps.DeletePending(ctx, payload.Email); err != nil {
		s.logger.Warn().Err(err).Str("email", payload.Email).Msg("failed to clear pending registration")
	}

	subject, plain, html := mailer.WelcomeEmail(user.Name)
	if err := s.mail.Send(ctx, user.Email, subject, plain, html); err != nil {
		s.logger.Warn().Err(err).Str("email", user.Email).Msg("failed to send welcome email")
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user registered")
	return s.issueToken(user)
}

// Login checks the password and, when correct, emails a login OTP. The token
// is only issued by VerifyLogin.
func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(payload.Password)); err != nil {
		return ErrInvalidCredentials
	}

	if user.IsFaculty() && !user.Verified {
		return ErrFacultyNotVerified
	}

	return s.otp.Issue(ctx, user.Email, user.Name, models.OTPPurposeLogin)
}

func (s *authService) VerifyLogin(ctx context.Context, payload dto.VerifyOTPRequest) (dto.TokenResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TokenResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TokenResponse{}, ErrInvalidCredentials
		}
		return dto.TokenResponse{}, err
	}

	if err := s.otp.Verify(ctx, payload.Email, models.OTPPurposeLogin, payload.Code); err != nil {
		return dto.TokenResponse{}, err
	}

	login := s.now()
	user.LastLogin = &login
	if err := s.users.Update(ctx, &user); err != nil {
		return dto.TokenResponse{}, err
	}

	return s.issueToken(user)
}

func (s *authService) ResendOTP(ctx context.Context, payload dto.ResendOTPRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	// Registration codes go to pending signups, every other purpose needs
	// an existing account.
	if payload.Purpose == models.OTPPurposeRegistration {
		if _, err := s.otps.GetPending(ctx, payload.Email); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPendingNotFound
			}
			return err
		}
		return s.otp.Issue(ctx, payload.Email, "", payload.Purpose)
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	return s.otp.Issue(ctx, user.Email, user.Name, payload.Purpose)
}

// ForgotPassword never reveals whether the account exists. Requests are
// capped per email per hour.
func (s *authService) ForgotPassword(ctx context.Context, payload dto.ForgotPasswordRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	attempts, err := s.otps.CountResetAttempts(ctx, payload.Email, s.now().Add(-time.Hour))
	if err != nil {
		return err
	}
	if attempts >= passwordResetHourlyCap {
		return ErrResetAttemptsCapped
	}
	if err := s.otps.RecordResetAttempt(ctx, payload.Email); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same outward behaviour whether or not the email is registered.
			return nil
		}
		return err
	}

	return s.otp.Issue(ctx, user.Email, user.Name, models.OTPPurposePasswordReset)
}

func (s *authService) ResetPassword(ctx context.Context, payload dto.ResetPasswordRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}
	if !passwordStrong(payload.NewPassword) {
		return ErrWeakPassword
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOTPInvalid
		}
		return err
	}

	if err := s.otp.Verify(ctx, payload.Email, models.OTPPurposePasswordReset, payload.Code); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.HashedPassword = string(hashed)
	if err := s.users.Update(ctx, &user); err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("password reset")
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uint, payload dto.ChangePasswordRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}
	if !passwordStrong(payload.NewPassword) {
		return ErrWeakPassword
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(payload.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.HashedPassword = string(hashed)
	if err := s.users.Update(ctx, &user); err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("password changed")
	return nil
}

func (s *authService) Me(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

// UpdateProfile changes the caller's editable account fields.
func (s *authService) UpdateProfile(ctx context.Context, userID uint, payload dto.ProfileUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	if payload.Name != nil {
		user.Name = *payload.Name
	}
	if payload.Institution != nil {
		user.Institution = *payload.Institution
	}
	if payload.CollegeID != nil {
		user.CollegeID = payload.CollegeID
	}
	if err := s.users.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("profile updated")
	return dto.NewUserResponse(user), nil
}

// VerifyUser is the admin override that marks an account verified without an
// OTP round-trip. Already verified accounts read as not found.
func (s *authService) VerifyUser(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}
	if user.Verified {
		return dto.UserResponse{}, ErrUserNotFound
	}

	user.Verified = true
	user.EmailVerified = true
	if err := s.users.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user verified by admin")
	return dto.NewUserResponse(user), nil
}

func (s *authService) issueToken(user models.User) (dto.TokenResponse, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":     user.ID,
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"iat":     now.Unix(),
		"exp":     now.Add(s.tokenTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return dto.TokenResponse{}, err
	}

	return dto.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
		User:        dto.NewUserResponse(user),
	}, nil
}

func passwordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	return upper && lower && digit
}
