package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/middleware"
	"github.com/noah-isme/studyfriend-api/internal/service"
	"github.com/noah-isme/studyfriend-api/internal/utils"
)

// AdminHandler wires administration HTTP routes.
type AdminHandler struct {
	service   service.AdminService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(service service.AdminService, validator *validator.Validate, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "admin_handler").Logger(),
	}
}

// Register attaches admin endpoints to the router group.
func (h *AdminHandler) Register(router fiber.Router) {
	router.Get("/pending-faculties", h.pendingFaculty)
	router.Post("/verify-faculty/:id", h.verifyFaculty)
	router.Get("/reports/overview", h.overview)
	router.Get("/reports/user-activity/:id", h.userActivity)
	router.Get("/reports/test-analytics", h.testAnalytics)
	router.Get("/reports/transactions", h.transactions)
	router.Get("/users", h.listUsers)
	router.Delete("/users/:id", h.deleteUser)
}

func (h *AdminHandler) pendingFaculty(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	page, err := h.service.PendingFaculty(c.Context(), limit, offset)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "pending faculty retrieved", page)
}

func (h *AdminHandler) verifyFaculty(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.FacultyVerifyRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := h.service.VerifyFaculty(c.Context(), middleware.UserID(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "faculty verification updated", user)
}

func (h *AdminHandler) overview(c *fiber.Ctx) error {
	report, err := h.service.Overview(c.Context())
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "overview retrieved", report)
}

func (h *AdminHandler) userActivity(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.service.UserActivity(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activity retrieved", report)
}

func (h *AdminHandler) testAnalytics(c *fiber.Ctx) error {
	testID, err := parseQueryUint(c, "test_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.service.TestAnalytics(c.Context(), testID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "test analytics retrieved", report)
}

func (h *AdminHandler) transactions(c *fiber.Ctx) error {
	from, err := parseQueryDate(c, "start_date")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	to, err := parseQueryDate(c, "end_date")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.service.TransactionReport(c.Context(), from, to)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "transactions retrieved", report)
}

func (h *AdminHandler) listUsers(c *fiber.Ctx) error {
	role := strings.TrimSpace(c.Query("role"))
	users, err := h.service.ListUsers(c.Context(), role)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "users retrieved", users)
}

func (h *AdminHandler) deleteUser(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteUser(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "user deleted", fiber.Map{"id": id})
}

func (h *AdminHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrTestNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCannotDeleteAdmin):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *AdminHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Str("correlation_id", middleware.GetCorrelationID(c)).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
