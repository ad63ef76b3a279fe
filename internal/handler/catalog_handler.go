package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/studyfriend-api/internal/dto"
	"github.com/noah-isme/studyfriend-api/internal/middleware"
	"github.com/noah-isme/studyfriend-api/internal/repository"
	"github.com/noah-isme/studyfriend-api/internal/service"
	"github.com/noah-isme/studyfriend-api/internal/utils"
)

// CatalogHandler wires college, subject and course HTTP routes.
type CatalogHandler struct {
	service   service.CatalogService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service service.CatalogService, validator *validator.Validate, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "catalog_handler").Logger(),
	}
}

// RegisterPublic attaches read-only catalog endpoints.
func (h *CatalogHandler) RegisterPublic(router fiber.Router) {
	router.Get("/colleges", h.listColleges)
	router.Get("/colleges/:id", h.getCollege)
	router.Get("/colleges/:id/subjects", h.listSubjects)
	router.Get("/courses", h.listCourses)
	router.Get("/courses/:id", h.getCourse)
}

// RegisterAdmin attaches college, subject and course management endpoints.
func (h *CatalogHandler) RegisterAdmin(router fiber.Router) {
	router.Post("/colleges", h.createCollege)
	router.Patch("/colleges/:id", h.updateCollege)
	router.Delete("/colleges/:id", h.deleteCollege)
	router.Post("/subjects", h.createSubject)
	router.Patch("/subjects/:id", h.updateSubject)
	router.Delete("/subjects/:id", h.deleteSubject)
	router.Post("/courses", h.createCourse)
	router.Patch("/courses/:id", h.updateCourse)
	router.Delete("/courses/:id", h.deleteCourse)
}

func (h *CatalogHandler) listColleges(c *fiber.Ctx) error {
	colleges, err := h.service.ListColleges(c.Context())
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "colleges retrieved", colleges)
}

func (h *CatalogHandler) getCollege(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	college, err := h.service.GetCollege(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "college retrieved", college)
}

func (h *CatalogHandler) createCollege(c *fiber.Ctx) error {
	var payload dto.CollegeCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	college, err := h.service.CreateCollege(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "college created", college)
}

func (h *CatalogHandler) updateCollege(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CollegeUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	college, err := h.service.UpdateCollege(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "college updated", college)
}

func (h *CatalogHandler) deleteCollege(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteCollege(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "college deleted", fiber.Map{"id": id})
}

func (h *CatalogHandler) listSubjects(c *fiber.Ctx) error {
	collegeID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	subjects, err := h.service.ListSubjects(c.Context(), collegeID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "subjects retrieved", subjects)
}

func (h *CatalogHandler) createSubject(c *fiber.Ctx) error {
	var payload dto.SubjectCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	subject, err := h.service.CreateSubject(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "subject created", subject)
}

func (h *CatalogHandler) updateSubject(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubjectUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	subject, err := h.service.UpdateSubject(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "subject updated", subject)
}

func (h *CatalogHandler) deleteSubject(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteSubject(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "subject deleted", fiber.Map{"id": id})
}

func (h *CatalogHandler) listCourses(c *fiber.Ctx) error {
	var filter repository.CourseFilter
	var err error
	if filter.CollegeID, err = parseQueryUint(c, "college_id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if filter.SubjectID, err = parseQueryUint(c, "subject_id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if filter.FacultyID, err = parseQueryUint(c, "faculty_id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	courses, err := h.service.ListCourses(c.Context(), filter)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CatalogHandler) getCourse(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.service.GetCourse(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CatalogHandler) createCourse(c *fiber.Ctx) error {
	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.service.CreateCourse(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CatalogHandler) updateCourse(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CourseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.service.UpdateCourse(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course updated", course)
}

func (h *CatalogHandler) deleteCourse(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteCourse(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course deleted", fiber.Map{"id": id})
}

func (h *CatalogHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrCollegeNotFound),
		errors.Is(err, service.ErrSubjectNotFound),
		errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCollegeTaken),
		errors.Is(err, service.ErrSubjectTaken):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrCollegeInUse),
		errors.Is(err, service.ErrSubjectInUse),
		errors.Is(err, service.ErrCourseInUse):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrFacultyNotEligible):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *CatalogHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Str("correlation_id", middleware.GetCorrelationID(c)).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
