package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
	"github.com/noah-isme/studyfriend-api/pkg/mailer"
)

// OTP verification failures.
var (
	ErrOTPNotFound    = errors.New("no verification code outstanding")
	ErrOTPExpired     = errors.New("verification code has expired")
	ErrOTPInvalid     = errors.New("invalid verification code")
	ErrOTPMaxAttempts = errors.New("too many failed verification attempts")
)

const otpMaxAttempts = 5

// OTPService issues and verifies emailed one-time codes. A fresh code
// invalidates earlier ones for the same email and purpose, and each code is
// single use.
type OTPService interface {
	Issue(ctx context.Context, email, name, purpose string) error
	Verify(ctx context.Context, email, purpose, code string) error
}

type otpService struct {
	repo   repository.OTPRepository
	mailer mailer.Mailer
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

// NewOTPService builds a new OTP service.
func NewOTPService(repo repository.OTPRepository, m mailer.Mailer, ttl time.Duration, logger zerolog.Logger) OTPService {
	return &otpService{
		repo:   repo,
		mailer: m,
		ttl:    ttl,
		logger: logger.With().Str("component", "otp_service").Logger(),
		now:    time.Now,
	}
}

func (s *otpService) Issue(ctx context.Context, email, name, purpose string) error {
	if err := s.repo.InvalidateAll(ctx, email, purpose); err != nil {
		return err
	}

	code, err := generateOTPCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	otp := models.OTP{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.repo.Create(ctx, &otp); err != nil {
		return err
	}

	subject, plain, html := mailer.OTPEmail(name, code, int(s.ttl.Minutes()))
	if err := s.mailer.Send(ctx, email, subject, plain, html); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}

	s.logger.Info().Str("email", email).Str("purpose", purpose).Msg("otp issued")
	return nil
}

func (s *otpService) Verify(ctx context.Context, email, purpose, code string) error {
	otp, err := s.repo.Latest(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOTPNotFound
		}
		return err
	}

	if otp.Used {
		return ErrOTPNotFound
	}
	if otp.Attempts >= otpMaxAttempts {
		return ErrOTPMaxAttempts
	}
	if s.now().After(otp.ExpiresAt) {
		return ErrOTPExpired
	}

	if otp.Code != code {
		otp.Attempts++
		if err := s.repo.Update(ctx, &otp); err != nil {
			return err
		}
		if otp.Attempts >= otpMaxAttempts {
			return ErrOTPMaxAttempts
		}
		return ErrOTPInvalid
	}

	otp.Used = true
	if err := s.repo.Update(ctx, &otp); err != nil {
		return err
	}

	s.logger.Info().Str("email", email).Str("purpose", purpose).Msg("otp verified")
	return nil
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
