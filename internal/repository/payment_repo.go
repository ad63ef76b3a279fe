package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// PaymentRepository defines persistence for payment intents, refunds and the
// wallet transaction ledger.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	GetByPaymentID(ctx context.Context, paymentID string) (models.Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (models.Payment, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Payment, error)
	SumCompleted(ctx context.Context) (float64, error)

	CreateRefund(ctx context.Context, refund *models.Refund) error
	SumRefunds(ctx context.Context, paymentID string) (float64, error)

	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	ListTransactions(ctx context.Context, userID uint, limit int) ([]models.Transaction, error)
	ListTransactionsBetween(ctx context.Context, from, to *time.Time) ([]models.Transaction, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository instantiates a GORM-backed repository.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *paymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&payment).Error; err != nil {
		return models.Payment{}, err
	}

	return payment, nil
}

func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID string) (models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		return models.Payment{}, err
	}

	return payment, nil
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) SumCompleted(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("status = ?", models.PaymentCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *paymentRepository) CreateRefund(ctx context.Context, refund *models.Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

func (r *paymentRepository) SumRefunds(ctx context.Context, paymentID string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.Refund{}).
		Where("payment_id = ?", paymentID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *paymentRepository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *paymentRepository) ListTransactions(ctx context.Context, userID uint, limit int) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var txns []models.Transaction
	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}

	return txns, nil
}

// ListTransactionsBetween returns every ledger entry across all users inside
// an optional date window.
func (r *paymentRepository) ListTransactionsBetween(ctx context.Context, from, to *time.Time) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at <= ?", *to)
	}

	var txns []models.Transaction
	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}

	return txns, nil
}
