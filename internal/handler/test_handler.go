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

// TestHandler wires mock test HTTP routes.
type TestHandler struct {
	service   service.TestService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewTestHandler constructs the handler.
func NewTestHandler(service service.TestService, validator *validator.Validate, logger zerolog.Logger) *TestHandler {
	return &TestHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "test_handler").Logger(),
	}
}

// RegisterStudent attaches test taking endpoints.
func (h *TestHandler) RegisterStudent(router fiber.Router) {
	router.Get("/tests", h.list)
	router.Get("/tests/attempts", h.myAttempts)
	router.Get("/tests/:id", h.get)
	router.Post("/tests/:id/attempt", h.attempt)
}

// RegisterFaculty attaches test management endpoints.
func (h *TestHandler) RegisterFaculty(router fiber.Router) {
	router.Get("/tests", h.listMine)
	router.Get("/tests/:id", h.get)
	router.Post("/tests", h.create)
	router.Patch("/tests/:id", h.update)
	router.Delete("/tests/:id", h.delete)
	router.Get("/tests/:id/analytics", h.analytics)
}

func (h *TestHandler) list(c *fiber.Ctx) error {
	tests, err := h.service.List(c.Context(), strings.TrimSpace(c.Query("subject")))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "tests retrieved", tests)
}

func (h *TestHandler) listMine(c *fiber.Ctx) error {
	tests, err := h.service.ListMine(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "tests retrieved", tests)
}

func (h *TestHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	test, err := h.service.Get(c.Context(), middleware.UserID(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "test retrieved", test)
}

func (h *TestHandler) create(c *fiber.Ctx) error {
	var payload dto.TestCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	test, err := h.service.Create(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "test created", test)
}

func (h *TestHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.TestUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	test, err := h.service.Update(c.Context(), middleware.UserID(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "test updated", test)
}

func (h *TestHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), middleware.UserID(c), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "test deleted", fiber.Map{"id": id})
}

func (h *TestHandler) attempt(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.TestAttemptRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.Attempt(c.Context(), middleware.UserID(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attempt recorded", result)
}

func (h *TestHandler) myAttempts(c *fiber.Ctx) error {
	attempts, err := h.service.MyAttempts(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "attempts retrieved", attempts)
}

func (h *TestHandler) analytics(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.service.Analytics(c.Context(), middleware.UserID(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "analytics retrieved", report)
}

func (h *TestHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrTestNotFound),
		errors.Is(err, service.ErrAttemptNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotTestOwner):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAlreadyAttempted):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAnswerCountMismatch),
		errors.Is(err, service.ErrBadCorrectAnswer):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *TestHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Str("correlation_id", middleware.GetCorrelationID(c)).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
