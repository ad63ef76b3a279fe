package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/middleware"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/service"
	"github.com/noah-isme/studyfriend-api/internal/utils"
)

const webhookSignatureHeader = "X-Webhook-Signature"

// PaymentHandler wires payment, wallet and webhook HTTP routes.
type PaymentHandler struct {
	payments  service.PaymentService
	wallet    service.WalletService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(payments service.PaymentService, wallet service.WalletService, validator *validator.Validate, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments:  payments,
		wallet:    wallet,
		validator: validator,
		logger:    logger.With().Str("component", "payment_handler").Logger(),
	}
}

// Register attaches authenticated payment and wallet endpoints.
func (h *PaymentHandler) Register(router fiber.Router) {
	router.Post("/initiate", h.create)
	router.Post("/verify", h.verify)
	router.Get("/history", h.history)
	router.Get("/gateways", h.gateways)
	router.Get("/wallet", h.walletBalance)
	router.Get("/transactions", h.walletTransactions)
	router.Post("/wallet/recharge", h.walletRecharge)
	router.Get("/:paymentID", h.get)
}

// RegisterAdmin attaches the refund endpoint.
func (h *PaymentHandler) RegisterAdmin(router fiber.Router) {
	router.Post("/refund/:payment_id", h.refund)
}

// RegisterWebhooks attaches the unauthenticated gateway callback endpoint.
func (h *PaymentHandler) RegisterWebhooks(router fiber.Router) {
	router.Post("/webhook/:gateway", h.webhook)
}

func (h *PaymentHandler) create(c *fiber.Ctx) error {
	var payload dto.PaymentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payment, err := h.payments.Create(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "payment created", payment)
}

func (h *PaymentHandler) verify(c *fiber.Ctx) error {
	var payload dto.PaymentVerifyRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payment, err := h.payments.Verify(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "payment verified", payment)
}

func (h *PaymentHandler) get(c *fiber.Ctx) error {
	payment, err := h.payments.Get(c.Context(), middleware.UserID(c), c.Params("paymentID"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "payment retrieved", payment)
}

func (h *PaymentHandler) history(c *fiber.Ctx) error {
	payments, err := h.payments.History(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "payments retrieved", payments)
}

func (h *PaymentHandler) refund(c *fiber.Ctx) error {
	var payload dto.RefundRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	payload.PaymentID = c.Params("payment_id")
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	refund, err := h.payments.Refund(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "refund issued", refund)
}

func (h *PaymentHandler) gateways(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "gateways retrieved", h.payments.Gateways())
}

func (h *PaymentHandler) walletBalance(c *fiber.Ctx) error {
	wallet, err := h.wallet.Balance(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "wallet retrieved", wallet)
}

func (h *PaymentHandler) walletTransactions(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	transactions, err := h.wallet.Transactions(c.Context(), middleware.UserID(c), limit)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "transactions retrieved", transactions)
}

func (h *PaymentHandler) walletRecharge(c *fiber.Ctx) error {
	var payload dto.WalletRechargeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payment, err := h.payments.Create(c.Context(), middleware.UserID(c), dto.PaymentCreateRequest{
		Gateway: payload.Gateway,
		Method:  payload.Method,
		Purpose: models.PurposeWalletRecharge,
		Amount:  payload.Amount,
	})
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "recharge initiated", payment)
}

func (h *PaymentHandler) webhook(c *fiber.Ctx) error {
	gateway := c.Params("gateway")
	signature := c.Get(webhookSignatureHeader)
	if signature == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "missing webhook signature")
	}

	// The raw body is needed verbatim for signature verification.
	body := c.Body()

	if err := h.payments.HandleWebhook(c.Context(), gateway, body, signature); err != nil {
		switch {
		case errors.Is(err, service.ErrBadWebhookSignature):
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrUnknownWebhookEvent):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPaymentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		default:
			return h.internalError(c, err)
		}
	}

	return utils.SendSuccess(c, "webhook processed", nil)
}

func (h *PaymentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrPaymentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotPaymentOwner):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrPaymentExpired),
		errors.Is(err, service.ErrPaymentAlreadyDone),
		errors.Is(err, service.ErrPaymentNotCompleted):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrBadGatewaySignature):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrRefundExceedsAmount):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInsufficientFunds):
		return utils.SendError(c, fiber.StatusPaymentRequired, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *PaymentHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Str("correlation_id", middleware.GetCorrelationID(c)).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
