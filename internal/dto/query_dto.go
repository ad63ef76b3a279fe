package dto

import (
	"time"

	"github.com/noah-isme/studyfriend-api/internal/models"
)

// QueryCreateRequest posts a doubt.
type QueryCreateRequest struct {
	Question string `json:"question" validate:"required,min=10,max=5000"`
	Subject  string `json:"subject" validate:"max=200"`
}

// QueryAnswerRequest resolves a doubt with a faculty answer.
type QueryAnswerRequest struct {
	Answer string `json:"answer" validate:"required,min=2,max=10000"`
}

// QueryResponse is the public view of a doubt.
type QueryResponse struct {
	ID             uint       `json:"id"`
	Question       string     `json:"question"`
	Subject        string     `json:"subject,omitempty"`
	AskedBy        uint       `json:"asked_by"`
	Answer         string     `json:"answer,omitempty"`
	AnsweredBy     *uint      `json:"answered_by,omitempty"`
	AnsweredByType string     `json:"answered_by_type,omitempty"`
	AnsweredAt     *time.Time `json:"answered_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NewQueryResponse converts a query model.
func NewQueryResponse(query models.Query) QueryResponse {
	return QueryResponse{
		ID:             query.ID,
		Question:       query.Question,
		Subject:        query.Subject,
		AskedBy:        query.AskedBy,
		Answer:         query.Answer,
		AnsweredBy:     query.AnsweredBy,
		AnsweredByType: query.AnsweredByType,
		AnsweredAt:     query.AnsweredAt,
		CreatedAt:      query.CreatedAt,
	}
}

// NewQueryResponseSlice converts a list of queries.
func NewQueryResponseSlice(queries []models.Query) []QueryResponse {
	out := make([]QueryResponse, 0, len(queries))
	for _, query := range queries {
		out = append(out, NewQueryResponse(query))
	}
	return out
}
