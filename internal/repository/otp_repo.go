package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// OTPRepository defines persistence for email OTPs, pending registrations and
// password reset attempt tracking.
type OTPRepository interface {
	Create(ctx context.Context, otp *models.OTP) error
	Latest(ctx context.Context, email, purpose string) (models.OTP, error)
	Update(ctx context.Context, otp *models.OTP) error
	InvalidateAll(ctx context.Context, email, purpose string) error

	SavePending(ctx context.Context, pending *models.PendingRegistration) error
	GetPending(ctx context.Context, email string) (models.PendingRegistration, error)
	DeletePending(ctx context.Context, email string) error

	RecordResetAttempt(ctx context.Context, email string) error
	CountResetAttempts(ctx context.Context, email string, since time.Time) (int64, error)
}

type otpRepository struct {
	db *gorm.DB
}

// NewOTPRepository instantiates a GORM-backed repository.
func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Create(ctx context.Context, otp *models.OTP) error {
	return r.db.WithContext(ctx).Create(otp).Error
}

func (r *otpRepository) Latest(ctx context.Context, email, purpose string) (models.OTP, error) {
	var otp models.OTP
	err := r.db.WithContext(ctx).
		Where("email = ? AND purpose = ?", email, purpose).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		return models.OTP{}, err
	}

	return otp, nil
}

func (r *otpRepository) Update(ctx context.Context, otp *models.OTP) error {
	return r.db.WithContext(ctx).Save(otp).Error
}

// InvalidateAll marks every outstanding code for the email/purpose pair as
// used, so a resend leaves exactly one live code.
func (r *otpRepository) InvalidateAll(ctx context.Context, email, purpose string) error {
	return r.db.WithContext(ctx).
		Model(&models.OTP{}).
		Where("email = ? AND purpose = ? AND used = ?", email, purpose, false).
		Update("used", true).Error
}

func (r *otpRepository) SavePending(ctx context.Context, pending *models.PendingRegistration) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", pending.Email).Delete(&models.PendingRegistration{}).Error; err != nil {
			return err
		}
		return tx.Create(pending).Error
	})
}

func (r *otpRepository) GetPending(ctx context.Context, email string) (models.PendingRegistration, error) {
	var pending models.PendingRegistration
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&pending).Error; err != nil {
		return models.PendingRegistration{}, err
	}

	return pending, nil
}

func (r *otpRepository) DeletePending(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Where("email = ?", email).Delete(&models.PendingRegistration{}).Error
}

func (r *otpRepository) RecordResetAttempt(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Create(&models.PasswordResetAttempt{Email: email}).Error
}

func (r *otpRepository) CountResetAttempts(ctx context.Context, email string, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.PasswordResetAttempt{}).
		Where("email = ? AND created_at >= ?", email, since).
		Count(&total).Error
	return total, err
}
