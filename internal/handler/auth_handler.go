package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/middleware"
	"github.com/noah-isme/studyfriend-api/internal/service"
	"github.com/noah-isme/studyfriend-api/internal/utils"
)

// AuthHandler wires registration, login and password HTTP routes.
type AuthHandler struct {
	service   service.AuthService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, validator *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches public auth endpoints to the router group.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/register", h.register)
	router.Post("/login", h.login)
	router.Post("/verify-otp", h.verifyOTP)
	router.Post("/resend-otp", h.resendOTP)
	router.Post("/forgot-password", h.forgotPassword)
	router.Post("/reset-password", h.resetPassword)
}

// RegisterProtected attaches endpoints that require a valid token.
func (h *AuthHandler) RegisterProtected(router fiber.Router) {
	router.Get("/me", h.me)
	router.Post("/change-password", h.changePassword)
}

// RegisterAdmin attaches the admin-only verification override.
func (h *AuthHandler) RegisterAdmin(router fiber.Router) {
	router.Get("/verify/:id", h.verifyUser)
}

// RegisterProfile attaches the profile update route shared by the student and
// faculty groups.
func (h *AuthHandler) RegisterProfile(router fiber.Router) {
	router.Patch("/update-profile", h.updateProfile)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Register(c.Context(), payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "verification code sent", fiber.Map{"email": payload.Email})
}

// verifyOTP completes either flow depending on the purpose in the body.
func (h *AuthHandler) verifyOTP(c *fiber.Ctx) error {
	var payload dto.VerifyOTPRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if payload.Purpose == "registration" {
		token, err := h.service.VerifyRegistration(c.Context(), payload)
		if err != nil {
			return h.handleError(c, err)
		}
		return utils.SendSuccess(c, "registration complete", token)
	}

	token, err := h.service.VerifyLogin(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "login successful", token)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Login(c.Context(), payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "verification code sent", fiber.Map{"email": payload.Email})
}

func (h *AuthHandler) resendOTP(c *fiber.Ctx) error {
	var payload dto.ResendOTPRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.ResendOTP(c.Context(), payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "verification code resent", fiber.Map{"email": payload.Email})
}

func (h *AuthHandler) forgotPassword(c *fiber.Ctx) error {
	var payload dto.ForgotPasswordRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.ForgotPassword(c.Context(), payload); err != nil {
		if errors.Is(err, service.ErrResetAttemptsCapped) {
			return utils.SendError(c, fiber.StatusTooManyRequests, err.Error())
		}
		return h.internalError(c, err)
	}

	// The response is identical whether or not the account exists.
	return utils.SendSuccess(c, "if the account exists, a reset code has been sent", nil)
}

func (h *AuthHandler) resetPassword(c *fiber.Ctx) error {
	var payload dto.ResetPasswordRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.ResetPassword(c.Context(), payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "password reset", nil)
}

func (h *AuthHandler) changePassword(c *fiber.Ctx) error {
	var payload dto.ChangePasswordRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.ChangePassword(c.Context(), middleware.UserID(c), payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "password changed", nil)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	user, err := h.service.Me(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "profile retrieved", user)
}

func (h *AuthHandler) updateProfile(c *fiber.Ctx) error {
	var payload dto.ProfileUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.UpdateProfile(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "profile updated", user)
}

func (h *AuthHandler) verifyUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	user, err := h.service.VerifyUser(c.Context(), uint(id))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "user verified", user)
}

func (h *AuthHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrWeakPassword):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrFacultyNotVerified):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrPendingNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrOTPNotFound),
		errors.Is(err, service.ErrOTPExpired),
		errors.Is(err, service.ErrOTPInvalid):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrOTPMaxAttempts):
		return utils.SendError(c, fiber.StatusTooManyRequests, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *AuthHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Str("correlation_id", middleware.GetCorrelationID(c)).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
