package service

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// GatewayCredentials holds the per-provider secrets used for signature
// verification.
type GatewayCredentials struct {
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	StripeSecretKey       string
	StripeWebhookSecret   string
	PayPalClientID        string
	PayPalClientSecret    string
}

// CalculateFee returns the processing fee for a gateway and method pair.
// Razorpay fees depend on the method, Stripe and PayPal charge a flat
// percentage plus a fixed component, unknown gateways fall back to 2 percent.
func CalculateFee(gateway, method string, amount float64) float64 {
	switch gateway {
	case models.GatewayRazorpay:
		switch method {
		case "card":
			return roundTwo(amount * 0.0299)
		case "wallet", "netbanking":
			return roundTwo(amount * 0.0199)
		case "upi", "bank_transfer":
			return 0
		default:
			return roundTwo(amount * 0.02)
		}
	case models.GatewayStripe, models.GatewayPayPal:
		return roundTwo(amount*0.029 + 0.30)
	default:
		return roundTwo(amount * 0.02)
	}
}

// newGatewayID produces an identifier like pay_3f2a... with 16 hex chars.
func newGatewayID(prefix string) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return prefix + hex.EncodeToString(buf), nil
}

// verifyRazorpaySignature checks the HMAC-SHA256 of "order_id|payment_id"
// against the signature supplied by the client.
func verifyRazorpaySignature(secret, orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// verifyStripeData checks the verification payload carries the configured
// webhook secret, which must use the whsec_ prefix.
func verifyStripeData(webhookSecret string, data map[string]string) bool {
	if !strings.HasPrefix(webhookSecret, "whsec_") {
		return false
	}
	return data["webhook_secret"] == webhookSecret && data["payment_intent"] != ""
}

// verifyPayPalData accepts completed captures only.
func verifyPayPalData(data map[string]string) bool {
	return strings.EqualFold(data["status"], "COMPLETED") && data["capture_id"] != ""
}

// webhookSignature computes the HMAC-SHA256 hex digest of a webhook body.
func webhookSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// verifyWebhookSignature compares a computed body digest with the header
// value in constant time.
func verifyWebhookSignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := webhookSignature(secret, body)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

func gatewayReference(gateway, id string) string {
	return fmt.Sprintf("%s:%s", gateway, id)
}

// gatewayCheckoutData builds the provider-specific block the client needs to
// open a checkout for a freshly created intent. Amounts are expressed in the
// smallest currency unit for Razorpay and Stripe.
func gatewayCheckoutData(creds GatewayCredentials, payment models.Payment) (map[string]any, error) {
	minor := int64(math.Round(payment.TotalAmount * 100))

	switch payment.Gateway {
	case models.GatewayRazorpay:
		return map[string]any{
			"key_id":      creds.RazorpayKeyID,
			"order_id":    payment.OrderID,
			"amount":      minor,
			"currency":    payment.Currency,
			"name":        "StudyFriend",
			"description": fmt.Sprintf("Payment for %s", payment.Purpose),
		}, nil
	case models.GatewayStripe:
		buf := make([]byte, 12)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		return map[string]any{
			"client_secret": "cs_test_" + hex.EncodeToString(buf),
			"amount":        minor,
			"currency":      strings.ToLower(payment.Currency),
			"metadata": map[string]any{
				"order_id": payment.OrderID,
				"purpose":  payment.Purpose,
			},
		}, nil
	case models.GatewayPayPal:
		return map[string]any{
			"order_id": "PAYPAL_" + payment.OrderID,
			"amount": map[string]any{
				"value":         fmt.Sprintf("%.2f", payment.TotalAmount),
				"currency_code": payment.Currency,
			},
			"intent": "CAPTURE",
		}, nil
	default:
		return nil, nil
	}
}
