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

// EnrollmentHandler wires course enrollment HTTP routes.
type EnrollmentHandler struct {
	service   service.EnrollmentService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(service service.EnrollmentService, validator *validator.Validate, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// RegisterStudent attaches student enrollment endpoints.
func (h *EnrollmentHandler) RegisterStudent(router fiber.Router) {
	router.Get("/enrollments", h.listMine)
	router.Get("/courses/available", h.availableCourses)
	router.Post("/enrollments", h.enroll)
	router.Patch("/enrollments/:courseID/progress", h.updateProgress)
	router.Delete("/enrollments/:courseID", h.drop)
}

// RegisterFaculty attaches the course roster endpoint.
func (h *EnrollmentHandler) RegisterFaculty(router fiber.Router) {
	router.Get("/courses/:courseID/enrollments", h.listByCourse)
}

func (h *EnrollmentHandler) listMine(c *fiber.Ctx) error {
	enrollments, err := h.service.ListByStudent(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "enrollments retrieved", enrollments)
}

func (h *EnrollmentHandler) availableCourses(c *fiber.Ctx) error {
	courses, err := h.service.AvailableCourses(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "available courses retrieved", courses)
}

func (h *EnrollmentHandler) enroll(c *fiber.Ctx) error {
	var payload dto.EnrollRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	enrollment, err := h.service.Enroll(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "enrolled", enrollment)
}

func (h *EnrollmentHandler) updateProgress(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ProgressUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	enrollment, err := h.service.UpdateProgress(c.Context(), middleware.UserID(c), courseID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "progress updated", enrollment)
}

func (h *EnrollmentHandler) drop(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Drop(c.Context(), middleware.UserID(c), courseID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "enrollment dropped", fiber.Map{"course_id": courseID})
}

func (h *EnrollmentHandler) listByCourse(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	enrollments, err := h.service.ListByCourse(c.Context(), courseID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "enrollments retrieved", enrollments)
}

func (h *EnrollmentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrEnrollmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyEnrolled):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *EnrollmentHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Str("correlation_id", middleware.GetCorrelationID(c)).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
