package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// AskRequest asks the assistant a one-off question with personalised context.
type AskRequest struct {
	Question string `json:"question" validate:"required,min=2,max=5000"`
	Subject  string `json:"subject" validate:"max=200"`
}

// AskResponse carries the assistant's answer and the materials it drew on.
type AskResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources,omitempty"`
}

// Source names a piece of content used to ground an answer.
type Source struct {
	Ref       string  `json:"ref"`
	Subject   string  `json:"subject,omitempty"`
	Relevance float64 `json:"relevance"`
}

// ChatRequest continues a conversation with the assistant. A zero
// ConversationID starts a new one.
type ChatRequest struct {
	ConversationID uint   `json:"conversation_id"`
	Message        string `json:"message" validate:"required,min=1,max=5000"`
}

// ChatResponse is the assistant's reply inside a conversation.
type ChatResponse struct {
	ConversationID uint   `json:"conversation_id"`
	Reply          string `json:"reply"`
}

// QuizGenerateRequest asks the assistant to produce a quiz.
type QuizGenerateRequest struct {
	Topic         string `json:"topic" validate:"required,min=2,max=255"`
	Subject       string `json:"subject" validate:"max=200"`
	QuestionCount int    `json:"question_count" validate:"required,gte=1,lte=20"`
	Difficulty    string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

// StudyPlanRequest asks the assistant to draft a study plan.
type StudyPlanRequest struct {
	Goal       string `json:"goal" validate:"required,min=2,max=1000"`
	WeeksAhead int    `json:"weeks_ahead" validate:"required,gte=1,lte=52"`
}

// StudyPlanResponse is the generated plan text.
type StudyPlanResponse struct {
	Plan string `json:"plan"`
}

// ConversationSummary lists a conversation without its messages.
type ConversationSummary struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationResponse is a full conversation with messages.
type ConversationResponse struct {
	ID        uint                 `json:"id"`
	Title     string               `json:"title"`
	Messages  []models.ChatMessage `json:"messages"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// NewConversationResponse converts a conversation model.
func NewConversationResponse(conversation models.ChatConversation) ConversationResponse {
	var messages []models.ChatMessage
	_ = json.Unmarshal(conversation.Messages, &messages)

	return ConversationResponse{
		ID:        conversation.ID,
		Title:     conversation.Title,
		Messages:  messages,
		CreatedAt: conversation.CreatedAt,
		UpdatedAt: conversation.UpdatedAt,
	}
}

// NewConversationSummarySlice converts a list of conversations.
func NewConversationSummarySlice(conversations []models.ChatConversation) []ConversationSummary {
	out := make([]ConversationSummary, 0, len(conversations))
	for _, conversation := range conversations {
		out = append(out, ConversationSummary{
			ID:        conversation.ID,
			Title:     conversation.Title,
			UpdatedAt: conversation.UpdatedAt,
		})
	}
	return out
}

// SummarizeRequest condenses a block of text.
type SummarizeRequest struct {
	Content string `json:"content" validate:"required,min=10,max=50000"`
	Subject string `json:"subject" validate:"max=200"`
}

// SummarizeResponse carries the summary and the size reduction.
type SummarizeResponse struct {
	Summary        string `json:"summary"`
	Subject        string `json:"subject,omitempty"`
	OriginalLength int    `json:"original_length"`
	SummaryLength  int    `json:"summary_length"`
}

// ExplainRequest asks for a concept explanation at a given level.
type ExplainRequest struct {
	Concept string `json:"concept" validate:"required,min=2,max=500"`
	Subject string `json:"subject" validate:"max=200"`
	Level   string `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
}

// ExplainResponse is the generated explanation.
type ExplainResponse struct {
	Concept     string `json:"concept"`
	Explanation string `json:"explanation"`
}

// CodeExplainRequest asks for a walkthrough of a code snippet.
type CodeExplainRequest struct {
	Code     string `json:"code" validate:"required,min=2,max=20000"`
	Language string `json:"language" validate:"required,min=1,max=50"`
}

// CodeExplainResponse is the generated walkthrough.
type CodeExplainResponse struct {
	Language    string `json:"language"`
	Explanation string `json:"explanation"`
}

// SolveProblemRequest asks for a step-by-step solution.
type SolveProblemRequest struct {
	Problem string `json:"problem" validate:"required,min=2,max=10000"`
	Subject string `json:"subject" validate:"max=200"`
}

// SolveProblemResponse is the worked solution.
type SolveProblemResponse struct {
	Problem  string `json:"problem"`
	Subject  string `json:"subject,omitempty"`
	Solution string `json:"solution"`
}

// BulkIndexRequest selects what a bulk vector indexing run covers.
type BulkIndexRequest struct {
	ContentType string `json:"content_type" validate:"required,oneof=materials courses queries"`
	Limit       int    `json:"limit" validate:"gte=0,lte=100"`
}

// BulkIndexReport summarises a bulk vector indexing run.
type BulkIndexReport struct {
	ContentType string `json:"content_type"`
	Indexed     int    `json:"indexed"`
	Skipped     int    `json:"skipped,omitempty"`
	Failed      int    `json:"failed,omitempty"`
}

// SearchRequest runs a semantic search over indexed content.
type SearchRequest struct {
	Query   string `json:"query" validate:"required,min=2,max=1000"`
	Subject string `json:"subject" validate:"max=200"`
	Limit   int    `json:"limit" validate:"gte=0,lte=50"`
}

// SearchResult is one semantic search hit.
type SearchResult struct {
	Ref       string  `json:"ref"`
	Content   string  `json:"content"`
	Subject   string  `json:"subject,omitempty"`
	Relevance float64 `json:"relevance"`
}
