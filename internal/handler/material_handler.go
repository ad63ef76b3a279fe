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

// MaterialHandler wires study material HTTP routes.
type MaterialHandler struct {
	service   service.MaterialService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewMaterialHandler constructs the handler.
func NewMaterialHandler(service service.MaterialService, validator *validator.Validate, logger zerolog.Logger) *MaterialHandler {
	return &MaterialHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "material_handler").Logger(),
	}
}

// Register attaches material endpoints to the router group.
func (h *MaterialHandler) Register(router fiber.Router) {
	router.Get("/materials", h.list)
	router.Get("/materials/mine", h.listMine)
	router.Get("/materials/:id", h.get)
	router.Post("/materials", h.create)
	router.Patch("/materials/:id", h.update)
	router.Delete("/materials/:id", h.delete)
}

func (h *MaterialHandler) list(c *fiber.Ctx) error {
	filter := repository.MaterialFilter{
		Subject: strings.TrimSpace(c.Query("subject")),
		Search:  strings.TrimSpace(c.Query("search")),
		OwnerID: middleware.UserID(c),
	}
	var err error
	if filter.CourseID, err = parseQueryUint(c, "course_id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	materials, err := h.service.List(c.Context(), filter)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "materials retrieved", materials)
}

func (h *MaterialHandler) listMine(c *fiber.Ctx) error {
	materials, err := h.service.ListMine(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "materials retrieved", materials)
}

func (h *MaterialHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	material, err := h.service.Get(c.Context(), middleware.UserID(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "material retrieved", material)
}

func (h *MaterialHandler) create(c *fiber.Ctx) error {
	var payload dto.MaterialCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	material, err := h.service.Create(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "material created", material)
}

func (h *MaterialHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.MaterialUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	material, err := h.service.Update(c.Context(), middleware.UserID(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "material updated", material)
}

func (h *MaterialHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), middleware.UserID(c), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "material deleted", fiber.Map{"id": id})
}

func (h *MaterialHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrMaterialNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotMaterialOwner):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *MaterialHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Str("correlation_id", middleware.GetCorrelationID(c)).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
