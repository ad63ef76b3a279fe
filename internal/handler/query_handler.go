package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/middleware"
	"github.com/noah-isme/studyfriend-api/internal/repository"
	"github.com/noah-isme/studyfriend-api/internal/service"
	"github.com/noah-isme/studyfriend-api/internal/utils"
)

// QueryHandler wires student doubt HTTP routes.
type QueryHandler struct {
	service   service.QueryService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewQueryHandler constructs the handler.
func NewQueryHandler(service service.QueryService, validator *validator.Validate, logger zerolog.Logger) *QueryHandler {
	return &QueryHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "query_handler").Logger(),
	}
}

// RegisterStudent attaches student doubt endpoints.
func (h *QueryHandler) RegisterStudent(router fiber.Router) {
	router.Get("/queries", h.list)
	router.Get("/queries/:id", h.get)
	router.Post("/queries", h.create)
	router.Post("/queries/:id/ai-answer", h.answerWithAI)
	router.Delete("/queries/:id", h.delete)
}

// RegisterFaculty attaches the faculty answer endpoints.
func (h *QueryHandler) RegisterFaculty(router fiber.Router) {
	router.Get("/queries", h.list)
	router.Get("/queries/:id", h.get)
	router.Post("/queries/:id/answer", h.answer)
}

func (h *QueryHandler) list(c *fiber.Ctx) error {
	filter := repository.QueryFilter{
		Subject:    strings.TrimSpace(c.Query("subject")),
		Unanswered: c.QueryBool("unanswered"),
	}
	if c.QueryBool("mine") {
		filter.AskedBy = middleware.UserID(c)
	}

	queries, err := h.service.List(c.Context(), filter)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "queries retrieved", queries)
}

func (h *QueryHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	query, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "query retrieved", query)
}

func (h *QueryHandler) create(c *fiber.Ctx) error {
	var payload dto.QueryCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	query, err := h.service.Create(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "query posted", query)
}

func (h *QueryHandler) answer(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.QueryAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	query, err := h.service.Answer(c.Context(), middleware.UserID(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "query answered", query)
}

func (h *QueryHandler) answerWithAI(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	query, err := h.service.AnswerWithAI(c.Context(), middleware.UserID(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "query answered", query)
}

func (h *QueryHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), middleware.UserID(c), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "query deleted", fiber.Map{"id": id})
}

func (h *QueryHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrQueryNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrQueryAlreadyAnswered):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotQueryOwner):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *QueryHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Str("correlation_id", middleware.GetCorrelationID(c)).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
