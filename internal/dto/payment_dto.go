package dto

import (
	"time"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// PaymentCreateRequest opens a payment intent against a gateway.
type PaymentCreateRequest struct {
	Gateway  string  `json:"gateway" validate:"required,oneof=razorpay stripe paypal"`
	Method   string  `json:"method" validate:"omitempty,oneof=card wallet netbanking upi bank_transfer"`
	Purpose  string  `json:"purpose" validate:"required,oneof=wallet_recharge course_purchase session_booking"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"omitempty,len=3"`
}

// PaymentVerifyRequest confirms a gateway payment. GatewayData carries the
// provider-specific proof, e.g. the razorpay signature fields.
type PaymentVerifyRequest struct {
	PaymentID   string            `json:"payment_id" validate:"required"`
	GatewayData map[string]string `json:"gateway_data" validate:"required"`
}

// RefundRequest refunds part or all of a completed payment. A zero amount
// refunds the remaining refundable balance.
type RefundRequest struct {
	PaymentID string  `json:"payment_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"omitempty,gt=0"`
	Reason    string  `json:"reason" validate:"max=255"`
}

// WalletRechargeRequest tops up the wallet through a gateway.
type WalletRechargeRequest struct {
	Gateway string  `json:"gateway" validate:"required,oneof=razorpay stripe paypal"`
	Method  string  `json:"method" validate:"omitempty,oneof=card wallet netbanking upi bank_transfer"`
	Amount  float64 `json:"amount" validate:"required,gt=0"`
}

// PaymentResponse is the public view of a payment intent.
type PaymentResponse struct {
	PaymentID   string     `json:"payment_id"`
	OrderID     string     `json:"order_id"`
	UserID      uint       `json:"user_id"`
	Gateway     string     `json:"gateway"`
	Method      string     `json:"method,omitempty"`
	Purpose     string     `json:"purpose"`
	Amount      float64    `json:"amount"`
	Fee         float64    `json:"fee"`
	TotalAmount float64    `json:"total_amount"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	// GatewayData carries the provider checkout block. It is only set on
	// the response of a freshly created intent.
	GatewayData map[string]any `json:"gateway_data,omitempty"`
}

// NewPaymentResponse converts a payment model.
func NewPaymentResponse(payment models.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:   payment.PaymentID,
		OrderID:     payment.OrderID,
		UserID:      payment.UserID,
		Gateway:     payment.Gateway,
		Method:      payment.Method,
		Purpose:     payment.Purpose,
		Amount:      payment.Amount,
		Fee:         payment.Fee,
		TotalAmount: payment.TotalAmount,
		Currency:    payment.Currency,
		Status:      payment.Status,
		ExpiresAt:   payment.ExpiresAt,
		CompletedAt: payment.CompletedAt,
		CreatedAt:   payment.CreatedAt,
	}
}

// NewPaymentResponseSlice converts a list of payments.
func NewPaymentResponseSlice(payments []models.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for _, payment := range payments {
		out = append(out, NewPaymentResponse(payment))
	}
	return out
}

// RefundResponse is the public view of a refund.
type RefundResponse struct {
	RefundID  string    `json:"refund_id"`
	PaymentID string    `json:"payment_id"`
	Amount    float64   `json:"amount"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRefundResponse converts a refund model.
func NewRefundResponse(refund models.Refund) RefundResponse {
	return RefundResponse{
		RefundID:  refund.RefundID,
		PaymentID: refund.PaymentID,
		Amount:    refund.Amount,
		Reason:    refund.Reason,
		CreatedAt: refund.CreatedAt,
	}
}

// TransactionResponse is one wallet ledger entry.
type TransactionResponse struct {
	ID           uint      `json:"id"`
	Type         string    `json:"type"`
	Amount       float64   `json:"amount"`
	BalanceAfter float64   `json:"balance_after"`
	Description  string    `json:"description"`
	Reference    string    `json:"reference,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewTransactionResponse converts a transaction model.
func NewTransactionResponse(txn models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           txn.ID,
		Type:         txn.Type,
		Amount:       txn.Amount,
		BalanceAfter: txn.BalanceAfter,
		Description:  txn.Description,
		Reference:    txn.Reference,
		CreatedAt:    txn.CreatedAt,
	}
}

// NewTransactionResponseSlice converts a list of transactions.
func NewTransactionResponseSlice(txns []models.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, NewTransactionResponse(txn))
	}
	return out
}

// GatewayCatalog lists the providers, currencies and payment methods the
// platform accepts.
type GatewayCatalog struct {
	Gateways       []string `json:"gateways"`
	Currencies     []string `json:"currencies"`
	Methods        []string `json:"methods"`
	DefaultGateway string   `json:"default_gateway"`
}

// WalletResponse reports the wallet balance.
type WalletResponse struct {
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}
