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

// AssistantHandler wires AI assistant and semantic search HTTP routes.
type AssistantHandler struct {
	assistant service.AssistantService
	search    service.SearchService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAssistantHandler constructs the handler.
func NewAssistantHandler(assistant service.AssistantService, search service.SearchService, validator *validator.Validate, logger zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{
		assistant: assistant,
		search:    search,
		validator: validator,
		logger:    logger.With().Str("component", "assistant_handler").Logger(),
	}
}

// Register attaches assistant endpoints to the router group.
func (h *AssistantHandler) Register(router fiber.Router) {
	router.Post("/ask", h.ask)
	router.Post("/chat", h.chat)
	router.Post("/summarize", h.summarize)
	router.Post("/explain", h.explain)
	router.Post("/code-explain", h.codeExplain)
	router.Post("/solve-problem", h.solveProblem)
	router.Post("/quiz", h.generateQuiz)
	router.Post("/study-plan", h.studyPlan)
	router.Post("/search", h.semanticSearch)
	router.Get("/query-history", h.queryHistory)
	router.Get("/conversations", h.conversations)
	router.Get("/conversations/:id", h.conversation)
	router.Delete("/conversations/:id", h.deleteConversation)
}

// RegisterAdmin attaches vector store maintenance endpoints.
func (h *AssistantHandler) RegisterAdmin(router fiber.Router) {
	router.Post("/vector/index-material/:id", h.indexMaterial)
	router.Post("/vector/index-course/:id", h.indexCourse)
	router.Post("/vector/index-query/:id", h.indexQuery)
	router.Post("/vector/bulk-index", h.bulkIndex)
	router.Get("/vector/search", h.vectorSearch)
}

func (h *AssistantHandler) ask(c *fiber.Ctx) error {
	var payload dto.AskRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	answer, err := h.assistant.Ask(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "question answered", answer)
}

func (h *AssistantHandler) chat(c *fiber.Ctx) error {
	var payload dto.ChatRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	reply, err := h.assistant.Chat(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "reply generated", reply)
}

func (h *AssistantHandler) summarize(c *fiber.Ctx) error {
	var payload dto.SummarizeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.assistant.Summarize(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "summary generated", summary)
}

func (h *AssistantHandler) explain(c *fiber.Ctx) error {
	var payload dto.ExplainRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	explanation, err := h.assistant.Explain(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "concept explained", explanation)
}

func (h *AssistantHandler) codeExplain(c *fiber.Ctx) error {
	var payload dto.CodeExplainRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	explanation, err := h.assistant.ExplainCode(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "code explained", explanation)
}

func (h *AssistantHandler) solveProblem(c *fiber.Ctx) error {
	var payload dto.SolveProblemRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	solution, err := h.assistant.SolveProblem(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "problem solved", solution)
}

func (h *AssistantHandler) queryHistory(c *fiber.Ctx) error {
	history, err := h.assistant.QueryHistory(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "query history retrieved", history)
}

func (h *AssistantHandler) generateQuiz(c *fiber.Ctx) error {
	var payload dto.QuizGenerateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	questions, err := h.assistant.GenerateQuiz(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "quiz generated", questions)
}

func (h *AssistantHandler) studyPlan(c *fiber.Ctx) error {
	var payload dto.StudyPlanRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	plan, err := h.assistant.StudyPlan(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "study plan generated", plan)
}

func (h *AssistantHandler) semanticSearch(c *fiber.Ctx) error {
	var payload dto.SearchRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	results, err := h.search.Search(c.Context(), payload)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "search complete", results)
}

func (h *AssistantHandler) indexMaterial(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.search.ReindexMaterial(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "material indexed", fiber.Map{"id": id})
}

func (h *AssistantHandler) indexCourse(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.search.ReindexCourse(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course indexed", fiber.Map{"id": id})
}

func (h *AssistantHandler) indexQuery(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.search.ReindexQuery(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "query indexed", fiber.Map{"id": id})
}

func (h *AssistantHandler) bulkIndex(c *fiber.Ctx) error {
	var payload dto.BulkIndexRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.search.BulkIndex(c.Context(), payload.ContentType, payload.Limit)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "bulk index finished", report)
}

func (h *AssistantHandler) vectorSearch(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := dto.SearchRequest{
		Query:   c.Query("query"),
		Subject: c.Query("subject"),
		Limit:   limit,
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	results, err := h.search.Search(c.Context(), payload)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "search complete", results)
}

func (h *AssistantHandler) conversations(c *fiber.Ctx) error {
	conversations, err := h.assistant.Conversations(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "conversations retrieved", conversations)
}

func (h *AssistantHandler) conversation(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	conversation, err := h.assistant.Conversation(c.Context(), middleware.UserID(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "conversation retrieved", conversation)
}

func (h *AssistantHandler) deleteConversation(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.assistant.DeleteConversation(c.Context(), middleware.UserID(c), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "conversation deleted", fiber.Map{"id": id})
}

func (h *AssistantHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrConversationNotFound),
		errors.Is(err, service.ErrMaterialNotFound),
		errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrQueryNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrBadContentType):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrQuizGenerationFailed):
		return utils.SendError(c, fiber.StatusBadGateway, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *AssistantHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Str("correlation_id", middleware.GetCorrelationID(c)).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
