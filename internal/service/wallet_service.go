package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
)

// ErrInsufficientFunds indicates a debit would overdraw the wallet.
var ErrInsufficientFunds = errors.New("insufficient wallet balance")

// WalletService moves money in and out of user wallets. Every movement
// writes one ledger transaction.
type WalletService interface {
	Balance(ctx context.Context, userID uint) (dto.WalletResponse, error)
	Transactions(ctx context.Context, userID uint, limit int) ([]dto.TransactionResponse, error)
	Credit(ctx context.Context, userID uint, amount float64, description, reference string) error
	Debit(ctx context.Context, userID uint, amount float64, description, reference string) error
}

type walletService struct {
	users    repository.UserRepository
	payments repository.PaymentRepository
	logger   zerolog.Logger
}

// NewWalletService builds a new wallet service.
func NewWalletService(users repository.UserRepository, payments repository.PaymentRepository, logger zerolog.Logger) WalletService {
	return &walletService{
		users:    users,
		payments: payments,
		logger:   logger.With().Str("component", "wallet_service").Logger(),
	}
}

func (s *walletService) Balance(ctx context.Context, userID uint) (dto.WalletResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.WalletResponse{}, ErrUserNotFound
		}
		return dto.WalletResponse{}, err
	}

	return dto.WalletResponse{Balance: user.WalletBalance, Currency: "INR"}, nil
}

func (s *walletService) Transactions(ctx context.Context, userID uint, limit int) ([]dto.TransactionResponse, error) {
	txns, err := s.payments.ListTransactions(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	return dto.NewTransactionResponseSlice(txns), nil
}

func (s *walletService) Credit(ctx context.Context, userID uint, amount float64, description, reference string) error {
	balance, err := s.users.AdjustWallet(ctx, userID, amount)
	if err != nil {
		return err
	}

	txn := models.Transaction{
		UserID:       userID,
		Type:         models.TransactionCredit,
		Amount:       amount,
		BalanceAfter: balance,
		Description:  description,
		Reference:    reference,
	}
	if err := s.payments.CreateTransaction(ctx, &txn); err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", userID).Float64("amount", amount).Msg("wallet credited")
	return nil
}

func (s *walletService) Debit(ctx context.Context, userID uint, amount float64, description, reference string) error {
	balance, err := s.users.AdjustWallet(ctx, userID, -amount)
	if err != nil {
		if errors.Is(err, gorm.ErrInvalidValue) {
			return ErrInsufficientFunds
		}
		return err
	}

	txn := models.Transaction{
		UserID:       userID,
		Type:         models.TransactionDebit,
		Amount:       amount,
		BalanceAfter: balance,
		Description:  description,
		Reference:    reference,
	}
	if err := s.payments.CreateTransaction(ctx, &txn); err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", userID).Float64("amount", amount).Msg("wallet debited")
	return nil
}
