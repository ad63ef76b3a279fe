package handler

import (
	"context"
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

// SessionHandler wires one-on-one session HTTP routes.
type SessionHandler struct {
	service   service.SessionService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(service service.SessionService, validator *validator.Validate, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "session_handler").Logger(),
	}
}

// RegisterStudent attaches booking endpoints.
func (h *SessionHandler) RegisterStudent(router fiber.Router) {
	router.Get("/sessions", h.listForStudent)
	router.Post("/sessions", h.book)
	router.Post("/sessions/:sessionID/cancel", h.cancel)
}

// RegisterFaculty attaches session decision endpoints.
func (h *SessionHandler) RegisterFaculty(router fiber.Router) {
	router.Get("/sessions", h.listForFaculty)
	router.Post("/sessions/:sessionID/accept", h.accept)
	router.Post("/sessions/:sessionID/reject", h.reject)
	router.Post("/sessions/:sessionID/complete", h.complete)
}

func (h *SessionHandler) listForStudent(c *fiber.Ctx) error {
	sessions, err := h.service.ListForStudent(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "sessions retrieved", sessions)
}

func (h *SessionHandler) listForFaculty(c *fiber.Ctx) error {
	status := strings.TrimSpace(c.Query("status"))
	sessions, err := h.service.ListForFaculty(c.Context(), middleware.UserID(c), status)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "sessions retrieved", sessions)
}

func (h *SessionHandler) book(c *fiber.Ctx) error {
	var payload dto.SessionBookRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	session, err := h.service.Book(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "session booked", session)
}

func (h *SessionHandler) accept(c *fiber.Ctx) error {
	return h.decide(c, h.service.Accept)
}

func (h *SessionHandler) reject(c *fiber.Ctx) error {
	return h.decide(c, h.service.Reject)
}

func (h *SessionHandler) decide(c *fiber.Ctx, decision func(ctx context.Context, facultyID uint, sessionID string, payload dto.SessionDecisionRequest) (dto.SessionResponse, error)) error {
	sessionID := c.Params("sessionID")

	// Decision notes are optional, an empty body is fine.
	var payload dto.SessionDecisionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	session, err := decision(c.Context(), middleware.UserID(c), sessionID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "session updated", session)
}

func (h *SessionHandler) complete(c *fiber.Ctx) error {
	session, err := h.service.Complete(c.Context(), middleware.UserID(c), c.Params("sessionID"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "session completed", session)
}

func (h *SessionHandler) cancel(c *fiber.Ctx) error {
	session, err := h.service.Cancel(c.Context(), middleware.UserID(c), c.Params("sessionID"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "session cancelled", session)
}

func (h *SessionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrFacultyNotAvailable):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotSessionFaculty),
		errors.Is(err, service.ErrNotSessionStudent):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrSessionNotPending),
		errors.Is(err, service.ErrSessionTerminal),
		errors.Is(err, service.ErrSessionNotAccepted):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrScheduleInPast):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInsufficientFunds):
		return utils.SendError(c, fiber.StatusPaymentRequired, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *SessionHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Str("correlation_id", middleware.GetCorrelationID(c)).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
