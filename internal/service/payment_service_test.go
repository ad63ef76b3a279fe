package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
)

var testCredentials = GatewayCredentials{
	RazorpayKeyID:         "rzp_test_key",
	RazorpayKeySecret:     "rzp_secret",
	RazorpayWebhookSecret: "rzp_webhook",
	StripeSecretKey:       "sk_test_123",
	StripeWebhookSecret:   "whsec_stripe",
	PayPalClientID:        "pp_client",
	PayPalClientSecret:    "pp_secret",
}

type paymentFixture struct {
	users    *memoryUserRepo
	payments *memoryPaymentRepo
	wallet   WalletService
	service  *paymentService
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	users := newMemoryUserRepo()
	payments := newMemoryPaymentRepo()
	wallet := NewWalletService(users, payments, zerolog.Nop())
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewPaymentService(payments, wallet, testCredentials, 30*time.Minute, validate, zerolog.Nop())

	return &paymentFixture{
		users:    users,
		payments: payments,
		wallet:   wallet,
		service:  svc.(*paymentService),
	}
}

func (f *paymentFixture) seedUser(t *testing.T, balance float64) models.User {
	t.Helper()

	user := models.User{Name: "Asha", Email: "asha@example.com", Role: models.RoleStudent, WalletBalance: balance}
	require.NoError(t, f.users.Create(context.Background(), &user))
	return user
}

func razorpaySig(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testCredentials.RazorpayKeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCalculateFee(t *testing.T) {
	cases := []struct {
		gateway string
		method  string
		amount  float64
		want    float64
	}{
		{models.GatewayRazorpay, "card", 1000, 29.9},
		{models.GatewayRazorpay, "wallet", 1000, 19.9},
		{models.GatewayRazorpay, "netbanking", 1000, 19.9},
		{models.GatewayRazorpay, "upi", 1000, 0},
		{models.GatewayRazorpay, "bank_transfer", 1000, 0},
		{models.GatewayStripe, "card", 1000, 29.3},
		{models.GatewayPayPal, "", 1000, 29.3},
		{"other", "", 1000, 20},
	}

	for _, tc := range cases {
		got := CalculateFee(tc.gateway, tc.method, tc.amount)
		require.Equal(t, tc.want, got, "%s/%s", tc.gateway, tc.method)
	}
}

func TestPaymentCreate(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.seedUser(t, 0)

	payment, err := f.service.Create(context.Background(), user.ID, dto.PaymentCreateRequest{
		Gateway: models.GatewayRazorpay,
		Method:  "card",
		Purpose: models.PurposeWalletRecharge,
		Amount:  500,
	})
	require.NoError(t, err)
	require.Regexp(t, `^pay_[0-9a-f]{16}$`, payment.PaymentID)
	require.Regexp(t, `^order_[0-9a-f]{16}$`, payment.OrderID)
	require.Equal(t, models.PaymentCreated, payment.Status)
	require.Equal(t, 14.95, payment.Fee)
	require.Equal(t, 514.95, payment.TotalAmount)
	require.Equal(t, "INR", payment.Currency)

	// The response carries the checkout block the client opens the
	// gateway with, amounts in the smallest currency unit.
	require.Equal(t, "rzp_test_key", payment.GatewayData["key_id"])
	require.Equal(t, payment.OrderID, payment.GatewayData["order_id"])
	require.Equal(t, int64(51495), payment.GatewayData["amount"])
	require.Equal(t, "INR", payment.GatewayData["currency"])
}

func TestPaymentCreateCheckoutPerGateway(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.seedUser(t, 0)

	stripe, err := f.service.Create(context.Background(), user.ID, dto.PaymentCreateRequest{
		Gateway:  models.GatewayStripe,
		Purpose:  models.PurposeCoursePurchase,
		Amount:   100,
		Currency: "USD",
	})
	require.NoError(t, err)
	secret, ok := stripe.GatewayData["client_secret"].(string)
	require.True(t, ok)
	require.Regexp(t, `^cs_test_[0-9a-f]{24}$`, secret)
	require.Equal(t, "usd", stripe.GatewayData["currency"])

	paypal, err := f.service.Create(context.Background(), user.ID, dto.PaymentCreateRequest{
		Gateway: models.GatewayPayPal,
		Purpose: models.PurposeCoursePurchase,
		Amount:  100,
	})
	require.NoError(t, err)
	require.Equal(t, "PAYPAL_"+paypal.OrderID, paypal.GatewayData["order_id"])
	require.Equal(t, "CAPTURE", paypal.GatewayData["intent"])
}

func TestPaymentGateways(t *testing.T) {
	f := newPaymentFixture(t)

	catalog := f.service.Gateways()
	require.ElementsMatch(t, []string{models.GatewayRazorpay, models.GatewayStripe, models.GatewayPayPal}, catalog.Gateways)
	require.Contains(t, catalog.Currencies, "INR")
	require.Contains(t, catalog.Methods, "upi")
	require.Equal(t, models.GatewayRazorpay, catalog.DefaultGateway)
}

func TestPaymentVerifyRazorpay(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.seedUser(t, 0)

	created, err := f.service.Create(context.Background(), user.ID, dto.PaymentCreateRequest{
		Gateway: models.GatewayRazorpay,
		Method:  "upi",
		Purpose: models.PurposeWalletRecharge,
		Amount:  500,
	})
	require.NoError(t, err)

	_, err = f.service.Verify(context.Background(), user.ID, dto.PaymentVerifyRequest{
		PaymentID:   created.PaymentID,
		GatewayData: map[string]string{"razorpay_payment_id": "rzp_1", "razorpay_signature": "bogus"},
	})
	require.ErrorIs(t, err, ErrBadGatewaySignature)

	verified, err := f.service.Verify(context.Background(), user.ID, dto.PaymentVerifyRequest{
		PaymentID: created.PaymentID,
		GatewayData: map[string]string{
			"razorpay_payment_id": "rzp_1",
			"razorpay_signature":  razorpaySig(created.OrderID, "rzp_1"),
		},
	})
	require.NoError(t, err)
	require.Equal(t, models.PaymentCompleted, verified.Status)

	// A completed wallet recharge credits the wallet.
	balance, err := f.wallet.Balance(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, 500.0, balance.Balance)

	_, err = f.service.Verify(context.Background(), user.ID, dto.PaymentVerifyRequest{
		PaymentID:   created.PaymentID,
		GatewayData: map[string]string{"razorpay_payment_id": "rzp_1", "razorpay_signature": "x"},
	})
	require.ErrorIs(t, err, ErrPaymentAlreadyDone)
}

func TestPaymentVerifyOwnership(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.seedUser(t, 0)

	created, err := f.service.Create(context.Background(), user.ID, dto.PaymentCreateRequest{
		Gateway: models.GatewayPayPal,
		Purpose: models.PurposeCoursePurchase,
		Amount:  100,
	})
	require.NoError(t, err)

	_, err = f.service.Verify(context.Background(), user.ID+1, dto.PaymentVerifyRequest{
		PaymentID:   created.PaymentID,
		GatewayData: map[string]string{"status": "COMPLETED", "capture_id": "cap_1"},
	})
	require.ErrorIs(t, err, ErrNotPaymentOwner)
}

func TestPaymentVerifyExpired(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.seedUser(t, 0)

	created, err := f.service.Create(context.Background(), user.ID, dto.PaymentCreateRequest{
		Gateway: models.GatewayPayPal,
		Purpose: models.PurposeCoursePurchase,
		Amount:  100,
	})
	require.NoError(t, err)

	f.service.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	_, err = f.service.Verify(context.Background(), user.ID, dto.PaymentVerifyRequest{
		PaymentID:   created.PaymentID,
		GatewayData: map[string]string{"status": "COMPLETED", "capture_id": "cap_1"},
	})
	require.ErrorIs(t, err, ErrPaymentExpired)

	stored, err := f.payments.GetByPaymentID(context.Background(), created.PaymentID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentExpired, stored.Status)
}

func TestPaymentRefund(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.seedUser(t, 0)

	created, err := f.service.Create(context.Background(), user.ID, dto.PaymentCreateRequest{
		Gateway: models.GatewayPayPal,
		Purpose: models.PurposeWalletRecharge,
		Amount:  500,
	})
	require.NoError(t, err)

	// Refunds require a completed payment.
	_, err = f.service.Refund(context.Background(), dto.RefundRequest{PaymentID: created.PaymentID, Amount: 100})
	require.ErrorIs(t, err, ErrPaymentNotCompleted)

	_, err = f.service.Verify(context.Background(), user.ID, dto.PaymentVerifyRequest{
		PaymentID:   created.PaymentID,
		GatewayData: map[string]string{"status": "COMPLETED", "capture_id": "cap_1"},
	})
	require.NoError(t, err)

	refund, err := f.service.Refund(context.Background(), dto.RefundRequest{PaymentID: created.PaymentID, Amount: 200, Reason: "partial"})
	require.NoError(t, err)
	require.Regexp(t, `^rfnd_[0-9a-f]{16}$`, refund.RefundID)

	// 200 + 400 would exceed the original 500.
	_, err = f.service.Refund(context.Background(), dto.RefundRequest{PaymentID: created.PaymentID, Amount: 400})
	require.ErrorIs(t, err, ErrRefundExceedsAmount)

	_, err = f.service.Refund(context.Background(), dto.RefundRequest{PaymentID: created.PaymentID, Amount: 300})
	require.NoError(t, err)

	stored, err := f.payments.GetByPaymentID(context.Background(), created.PaymentID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentRefunded, stored.Status)

	// The wallet recharge was debited back.
	balance, err := f.wallet.Balance(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, 0.0, balance.Balance)
}

func TestPaymentRefundDefaultsToRemaining(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.seedUser(t, 0)

	created, err := f.service.Create(context.Background(), user.ID, dto.PaymentCreateRequest{
		Gateway: models.GatewayPayPal,
		Purpose: models.PurposeWalletRecharge,
		Amount:  500,
	})
	require.NoError(t, err)

	_, err = f.service.Verify(context.Background(), user.ID, dto.PaymentVerifyRequest{
		PaymentID:   created.PaymentID,
		GatewayData: map[string]string{"status": "COMPLETED", "capture_id": "cap_1"},
	})
	require.NoError(t, err)

	_, err = f.service.Refund(context.Background(), dto.RefundRequest{PaymentID: created.PaymentID, Amount: 150})
	require.NoError(t, err)

	// No amount means "refund whatever is left", here 350.
	refund, err := f.service.Refund(context.Background(), dto.RefundRequest{PaymentID: created.PaymentID, Reason: "order cancelled"})
	require.NoError(t, err)
	require.Equal(t, 350.0, refund.Amount)

	stored, err := f.payments.GetByPaymentID(context.Background(), created.PaymentID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentRefunded, stored.Status)

	// A fully refunded payment has nothing left to default to.
	_, err = f.service.Refund(context.Background(), dto.RefundRequest{PaymentID: created.PaymentID})
	require.ErrorIs(t, err, ErrRefundExceedsAmount)
}

func TestPaymentWebhook(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.seedUser(t, 0)

	created, err := f.service.Create(context.Background(), user.ID, dto.PaymentCreateRequest{
		Gateway: models.GatewayRazorpay,
		Method:  "upi",
		Purpose: models.PurposeWalletRecharge,
		Amount:  250,
	})
	require.NoError(t, err)

	body := []byte(fmt.Sprintf(`{"event":"payment.captured","order_id":%q}`, created.OrderID))

	err = f.service.HandleWebhook(context.Background(), models.GatewayRazorpay, body, "bogus")
	require.ErrorIs(t, err, ErrBadWebhookSignature)

	signature := webhookSignature(testCredentials.RazorpayWebhookSecret, body)
	require.NoError(t, f.service.HandleWebhook(context.Background(), models.GatewayRazorpay, body, signature))

	stored, err := f.payments.GetByPaymentID(context.Background(), created.PaymentID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentCompleted, stored.Status)

	// Replays of a completed capture are idempotent.
	require.NoError(t, f.service.HandleWebhook(context.Background(), models.GatewayRazorpay, body, signature))

	unknown := []byte(fmt.Sprintf(`{"event":"payment.whatever","order_id":%q}`, created.OrderID))
	err = f.service.HandleWebhook(context.Background(), models.GatewayRazorpay, unknown, webhookSignature(testCredentials.RazorpayWebhookSecret, unknown))
	require.ErrorIs(t, err, ErrUnknownWebhookEvent)
}

func TestPaymentWebhookFailureExpires(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.seedUser(t, 0)

	created, err := f.service.Create(context.Background(), user.ID, dto.PaymentCreateRequest{
		Gateway: models.GatewayStripe,
		Purpose: models.PurposeCoursePurchase,
		Amount:  100,
	})
	require.NoError(t, err)

	body := []byte(fmt.Sprintf(`{"event":"payment_intent.payment_failed","order_id":%q}`, created.OrderID))
	signature := webhookSignature(testCredentials.StripeWebhookSecret, body)
	require.NoError(t, f.service.HandleWebhook(context.Background(), models.GatewayStripe, body, signature))

	stored, err := f.payments.GetByPaymentID(context.Background(), created.PaymentID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentExpired, stored.Status)
}

func TestWalletDebitInsufficient(t *testing.T) {
	f := newPaymentFixture(t)
	user := f.seedUser(t, 50)

	err := f.wallet.Debit(context.Background(), user.ID, 100, "test", "")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	require.NoError(t, f.wallet.Debit(context.Background(), user.ID, 50, "test", ""))
	balance, err := f.wallet.Balance(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, 0.0, balance.Balance)

	transactions, err := f.wallet.Transactions(context.Background(), user.ID, 10)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	require.Equal(t, models.TransactionDebit, transactions[0].Type)
	require.Equal(t, 0.0, transactions[0].BalanceAfter)
}

// flakyPaymentRepo fails Update on demand so completion ordering can be
// exercised.
type flakyPaymentRepo struct {
	repository.PaymentRepository
	failUpdates bool
}

func (r *flakyPaymentRepo) Update(ctx context.Context, payment *models.Payment) error {
	if r.failUpdates {
		return errors.New("update lost")
	}
	return r.PaymentRepository.Update(ctx, payment)
}

func TestPaymentCompletePersistFailureReversesCredit(t *testing.T) {
	users := newMemoryUserRepo()
	flaky := &flakyPaymentRepo{PaymentRepository: newMemoryPaymentRepo()}
	wallet := NewWalletService(users, flaky, zerolog.Nop())
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewPaymentService(flaky, wallet, testCredentials, 30*time.Minute, validate, zerolog.Nop()).(*paymentService)

	user := models.User{Name: "Asha", Email: "asha@example.com", Role: models.RoleStudent}
	require.NoError(t, users.Create(context.Background(), &user))

	created, err := svc.Create(context.Background(), user.ID, dto.PaymentCreateRequest{
		Gateway: models.GatewayRazorpay,
		Method:  "upi",
		Purpose: models.PurposeWalletRecharge,
		Amount:  300,
	})
	require.NoError(t, err)

	flaky.failUpdates = true
	_, err = svc.Verify(context.Background(), user.ID, dto.PaymentVerifyRequest{
		PaymentID: created.PaymentID,
		GatewayData: map[string]string{
			"razorpay_payment_id": "rzp_1",
			"razorpay_signature":  razorpaySig(created.OrderID, "rzp_1"),
		},
	})
	require.Error(t, err)

	// The credit was reversed and the intent is still open.
	balance, err := wallet.Balance(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, 0.0, balance.Balance)

	stored, err := flaky.GetByPaymentID(context.Background(), created.PaymentID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentCreated, stored.Status)

	// A webhook retry can finish the payment once writes recover.
	flaky.failUpdates = false
	body := []byte(fmt.Sprintf(`{"event":"payment.captured","order_id":%q}`, created.OrderID))
	signature := webhookSignature(testCredentials.RazorpayWebhookSecret, body)
	require.NoError(t, svc.HandleWebhook(context.Background(), models.GatewayRazorpay, body, signature))

	balance, err = wallet.Balance(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, 300.0, balance.Balance)

	stored, err = flaky.GetByPaymentID(context.Background(), created.PaymentID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentCompleted, stored.Status)
}
