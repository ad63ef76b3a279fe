package ai

import "context"

// Message is one chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// QuizQuestion is a parsed multiple-choice question generated by the model.
type QuizQuestion struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Marks         int      `json:"marks"`
}

// Assistant describes an AI model capable of chat completion and text
// embedding.
type Assistant interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}
