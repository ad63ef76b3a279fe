package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
)

// Payment failures.
var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrPaymentExpired      = errors.New("payment intent has expired")
	ErrPaymentNotCompleted = errors.New("payment is not completed")
	ErrPaymentAlreadyDone  = errors.New("payment is already completed")
	ErrBadGatewaySignature = errors.New("gateway signature verification failed")
	ErrRefundExceedsAmount = errors.New("refund exceeds the remaining refundable amount")
	ErrNotPaymentOwner     = errors.New("payment belongs to another user")
	ErrBadWebhookSignature = errors.New("webhook signature verification failed")
	ErrUnknownWebhookEvent = errors.New("unsupported webhook event")
)

// PaymentService manages gateway payment intents, verification, webhooks and
// refunds. A completed wallet_recharge credits the user's wallet.
type PaymentService interface {
	Create(ctx context.Context, userID uint, payload dto.PaymentCreateRequest) (dto.PaymentResponse, error)
	Verify(ctx context.Context, userID uint, payload dto.PaymentVerifyRequest) (dto.PaymentResponse, error)
	Get(ctx context.Context, userID uint, paymentID string) (dto.PaymentResponse, error)
	History(ctx context.Context, userID uint) ([]dto.PaymentResponse, error)
	Refund(ctx context.Context, payload dto.RefundRequest) (dto.RefundResponse, error)
	HandleWebhook(ctx context.Context, gateway string, body []byte, signature string) error
	Gateways() dto.GatewayCatalog
}

type paymentService struct {
	repo        repository.PaymentRepository
	wallet      WalletService
	credentials GatewayCredentials
	intentTTL   time.Duration
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewPaymentService builds a new payment service.
func NewPaymentService(
	repo repository.PaymentRepository,
	wallet WalletService,
	credentials GatewayCredentials,
	intentTTL time.Duration,
	validate *validator.Validate,
	logger zerolog.Logger,
) PaymentService {
	return &paymentService{
		repo:        repo,
		wallet:      wallet,
		credentials: credentials,
		intentTTL:   intentTTL,
		validator:   validate,
		logger:      logger.With().Str("component", "payment_service").Logger(),
		now:         time.Now,
	}
}

func (s *paymentService) Create(ctx context.Context, userID uint, payload dto.PaymentCreateRequest) (dto.PaymentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PaymentResponse{}, err
	}

	paymentID, err := newGatewayID("pay_")
	if err != nil {
		return dto.PaymentResponse{}, err
	}
	orderID, err := newGatewayID("order_")
	if err != nil {
		return dto.PaymentResponse{}, err
	}

	currency := payload.Currency
	if currency == "" {
		currency = "INR"
	}

	fee := CalculateFee(payload.Gateway, payload.Method, payload.Amount)
	payment := models.Payment{
		PaymentID:   paymentID,
		OrderID:     orderID,
		UserID:      userID,
		Gateway:     payload.Gateway,
		Method:      payload.Method,
		Purpose:     payload.Purpose,
		Amount:      payload.Amount,
		Fee:         fee,
		TotalAmount: roundTwo(payload.Amount + fee),
		Currency:    currency,
		Status:      models.PaymentCreated,
		ExpiresAt:   s.now().Add(s.intentTTL),
	}
	if err := s.repo.Create(ctx, &payment); err != nil {
		return dto.PaymentResponse{}, err
	}

	checkout, err := gatewayCheckoutData(s.credentials, payment)
	if err != nil {
		return dto.PaymentResponse{}, err
	}

	s.logger.Info().
		Str("payment_id", paymentID).
		Str("gateway", payload.Gateway).
		Float64("amount", payload.Amount).
		Msg("payment intent created")

	resp := dto.NewPaymentResponse(payment)
	resp.GatewayData = checkout
	return resp, nil
}

// Gateways describes the supported providers, currencies and methods.
func (s *paymentService) Gateways() dto.GatewayCatalog {
	return dto.GatewayCatalog{
		Gateways:       []string{models.GatewayRazorpay, models.GatewayStripe, models.GatewayPayPal},
		Currencies:     []string{"INR", "USD", "EUR"},
		Methods:        []string{"card", "upi", "wallet", "netbanking", "bank_transfer"},
		DefaultGateway: models.GatewayRazorpay,
	}
}

// Verify confirms a payment with provider-specific proof and completes it.
func (s *paymentService) Verify(ctx context.Context, userID uint, payload dto.PaymentVerifyRequest) (dto.PaymentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PaymentResponse{}, err
	}

	payment, err := s.repo.GetByPaymentID(ctx, payload.PaymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PaymentResponse{}, ErrPaymentNotFound
		}
		return dto.PaymentResponse{}, err
	}
	if payment.UserID != userID {
		return dto.PaymentResponse{}, ErrNotPaymentOwner
	}
	if payment.Status == models.PaymentCompleted {
		return dto.PaymentResponse{}, ErrPaymentAlreadyDone
	}

	if payment.Expired(s.now()) {
		payment.Status = models.PaymentExpired
		if err := s.repo.Update(ctx, &payment); err != nil {
			return dto.PaymentResponse{}, err
		}
		return dto.PaymentResponse{}, ErrPaymentExpired
	}

	if !s.verifyGatewayData(payment, payload.GatewayData) {
		return dto.PaymentResponse{}, ErrBadGatewaySignature
	}

	return s.complete(ctx, payment, payload.GatewayData)
}

func (s *paymentService) verifyGatewayData(payment models.Payment, data map[string]string) bool {
	switch payment.Gateway {
	case models.GatewayRazorpay:
		return verifyRazorpaySignature(
			s.credentials.RazorpayKeySecret,
			payment.OrderID,
			data["razorpay_payment_id"],
			data["razorpay_signature"],
		)
	case models.GatewayStripe:
		return verifyStripeData(s.credentials.StripeWebhookSecret, data)
	case models.GatewayPayPal:
		return verifyPayPalData(data)
	default:
		return false
	}
}

func (s *paymentService) complete(ctx context.Context, payment models.Payment, data map[string]string) (dto.PaymentResponse, error) {
	completed := s.now()
	payment.Status = models.PaymentCompleted
	payment.CompletedAt = &completed
	if len(data) > 0 {
		if raw, err := json.Marshal(data); err == nil {
			payment.Metadata = raw
		}
	}
	// Credit before the completed status is persisted. If the credit
	// fails the payment stays in its prior state and a webhook retry can
	// complete it later.
	if payment.Purpose == models.PurposeWalletRecharge {
		err := s.wallet.Credit(ctx, payment.UserID, payment.Amount,
			"Wallet recharge", gatewayReference(payment.Gateway, payment.PaymentID))
		if err != nil {
			return dto.PaymentResponse{}, err
		}
	}

	if err := s.repo.Update(ctx, &payment); err != nil {
		if payment.Purpose == models.PurposeWalletRecharge {
			debitErr := s.wallet.Debit(ctx, payment.UserID, payment.Amount,
				"Reversal: wallet recharge could not be recorded",
				gatewayReference(payment.Gateway, payment.PaymentID))
			if debitErr != nil {
				s.logger.Error().Err(debitErr).Str("payment_id", payment.PaymentID).
					Msg("failed to reverse wallet credit after update error")
			}
		}
		return dto.PaymentResponse{}, err
	}

	s.logger.Info().Str("payment_id", payment.PaymentID).Msg("payment completed")
	return dto.NewPaymentResponse(payment), nil
}

func (s *paymentService) Get(ctx context.Context, userID uint, paymentID string) (dto.PaymentResponse, error) {
	payment, err := s.repo.GetByPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PaymentResponse{}, ErrPaymentNotFound
		}
		return dto.PaymentResponse{}, err
	}
	if payment.UserID != userID {
		return dto.PaymentResponse{}, ErrNotPaymentOwner
	}

	// Reflect expiry on read so stale intents don't look open forever.
	if payment.Status == models.PaymentCreated && payment.Expired(s.now()) {
		payment.Status = models.PaymentExpired
		if err := s.repo.Update(ctx, &payment); err != nil {
			return dto.PaymentResponse{}, err
		}
	}

	return dto.NewPaymentResponse(payment), nil
}

func (s *paymentService) History(ctx context.Context, userID uint) ([]dto.PaymentResponse, error) {
	payments, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return dto.NewPaymentResponseSlice(payments), nil
}

// Refund issues a refund for a completed payment. The sum of refunds can
// never exceed the original amount, and a wallet_recharge refund debits the
// wallet back.
func (s *paymentService) Refund(ctx context.Context, payload dto.RefundRequest) (dto.RefundResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RefundResponse{}, err
	}

	payment, err := s.repo.GetByPaymentID(ctx, payload.PaymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RefundResponse{}, ErrPaymentNotFound
		}
		return dto.RefundResponse{}, err
	}
	if payment.Status != models.PaymentCompleted && payment.Status != models.PaymentRefunded {
		return dto.RefundResponse{}, ErrPaymentNotCompleted
	}

	refunded, err := s.repo.SumRefunds(ctx, payment.PaymentID)
	if err != nil {
		return dto.RefundResponse{}, err
	}
	// A zero amount means "refund whatever is left".
	if payload.Amount == 0 {
		payload.Amount = roundTwo(payment.Amount - refunded)
	}
	if payload.Amount <= 0 || refunded+payload.Amount > payment.Amount {
		return dto.RefundResponse{}, ErrRefundExceedsAmount
	}

	refundID, err := newGatewayID("rfnd_")
	if err != nil {
		return dto.RefundResponse{}, err
	}

	refund := models.Refund{
		RefundID:  refundID,
		PaymentID: payment.PaymentID,
		UserID:    payment.UserID,
		Amount:    payload.Amount,
		Reason:    payload.Reason,
	}
	if err := s.repo.CreateRefund(ctx, &refund); err != nil {
		return dto.RefundResponse{}, err
	}

	if refunded+payload.Amount >= payment.Amount {
		payment.Status = models.PaymentRefunded
		if err := s.repo.Update(ctx, &payment); err != nil {
			return dto.RefundResponse{}, err
		}
	}

	if payment.Purpose == models.PurposeWalletRecharge {
		err := s.wallet.Debit(ctx, payment.UserID, payload.Amount,
			"Wallet recharge refund", gatewayReference(payment.Gateway, refundID))
		if err != nil && !errors.Is(err, ErrInsufficientFunds) {
			return dto.RefundResponse{}, err
		}
	}

	s.logger.Info().
		Str("payment_id", payment.PaymentID).
		Str("refund_id", refundID).
		Float64("amount", payload.Amount).
		Msg("payment refunded")
	return dto.NewRefundResponse(refund), nil
}

// HandleWebhook completes or expires payments from asynchronous gateway
// events. The body signature must match the gateway's webhook secret.
func (s *paymentService) HandleWebhook(ctx context.Context, gateway string, body []byte, signature string) error {
	var secret string
	switch gateway {
	case models.GatewayRazorpay:
		secret = s.credentials.RazorpayWebhookSecret
	case models.GatewayStripe:
		secret = s.credentials.StripeWebhookSecret
	case models.GatewayPayPal:
		secret = s.credentials.PayPalClientSecret
	default:
		return ErrPaymentNotFound
	}

	if !verifyWebhookSignature(secret, body, signature) {
		return ErrBadWebhookSignature
	}

	var event struct {
		Event   string `json:"event"`
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode webhook body: %w", err)
	}

	payment, err := s.repo.GetByOrderID(ctx, event.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}

	switch event.Event {
	case "payment.captured", "payment_intent.succeeded", "PAYMENT.CAPTURE.COMPLETED":
		if payment.Status == models.PaymentCompleted {
			return nil
		}
		if payment.Expired(s.now()) {
			return ErrPaymentExpired
		}
		_, err := s.complete(ctx, payment, nil)
		return err
	case "payment.failed", "payment_intent.payment_failed", "PAYMENT.CAPTURE.DENIED":
		if payment.Status != models.PaymentCreated {
			return nil
		}
		payment.Status = models.PaymentExpired
		return s.repo.Update(ctx, &payment)
	default:
		return ErrUnknownWebhookEvent
	}
}
