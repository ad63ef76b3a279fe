package models

import (
	"time"

	"gorm.io/datatypes"
)

// Payment gateways.
const (
	GatewayRazorpay = "razorpay"
	GatewayStripe   = "stripe"
	GatewayPayPal   = "paypal"
)

// Payment statuses.
const (
	PaymentCreated   = "created"
	PaymentCompleted = "completed"
	PaymentExpired   = "expired"
	PaymentRefunded  = "refunded"
)

// Payment purposes.
const (
	PurposeWalletRecharge = "wallet_recharge"
	PurposeCoursePurchase = "course_purchase"
	PurposeSessionBooking = "session_booking"
)

// Payment is a gateway payment intent and its lifecycle. PaymentID and
// OrderID carry the pay_/order_ prefixed identifiers handed to the gateway.
type Payment struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	PaymentID   string         `gorm:"size:32;uniqueIndex;not null" json:"payment_id"`
	OrderID     string         `gorm:"size:32;uniqueIndex;not null" json:"order_id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	Gateway     string         `gorm:"size:12;not null" json:"gateway"`
	Method      string         `gorm:"size:20" json:"method,omitempty"`
	Purpose     string         `gorm:"size:20;not null" json:"purpose"`
	Amount      float64        `gorm:"not null" json:"amount"`
	Fee         float64        `gorm:"not null" json:"fee"`
	TotalAmount float64        `gorm:"not null" json:"total_amount"`
	Currency    string         `gorm:"size:3;not null;default:INR" json:"currency"`
	Status      string         `gorm:"size:12;not null;default:created;index" json:"status"`
	Metadata    datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	ExpiresAt   time.Time      `gorm:"not null" json:"expires_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Expired reports whether the intent is past its completion window.
func (p *Payment) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Refund is issued against a completed payment, never for more than the
// original amount.
type Refund struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RefundID  string    `gorm:"size:32;uniqueIndex;not null" json:"refund_id"`
	PaymentID string    `gorm:"size:32;not null;index" json:"payment_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Amount    float64   `gorm:"not null" json:"amount"`
	Reason    string    `gorm:"size:255" json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Transaction directions for the wallet ledger.
const (
	TransactionCredit = "credit"
	TransactionDebit  = "debit"
)

// Transaction is one wallet ledger entry. BalanceAfter snapshots the wallet
// balance after the entry was applied.
type Transaction struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Type         string    `gorm:"size:6;not null" json:"type"`
	Amount       float64   `gorm:"not null" json:"amount"`
	BalanceAfter float64   `gorm:"not null" json:"balance_after"`
	Description  string    `gorm:"size:255" json:"description"`
	Reference    string    `gorm:"size:64;index" json:"reference,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
