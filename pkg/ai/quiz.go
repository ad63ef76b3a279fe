package ai

import (
	"fmt"
	"strings"
)

// ParseQuiz extracts multiple-choice questions from model output in the form:
//
//	Q: <question>
//	A) <option>
//	B) <option>
//	C) <option>
//	D) <option>
//	Correct: <letter>
//
// Questions with fewer than two options are skipped rather than failing the
// whole block. A missing or unparseable Correct: line falls back to the first
// option. Each question is worth one mark.
func ParseQuiz(content string) ([]QuizQuestion, error) {
	var questions []QuizQuestion
	var current *QuizQuestion

	flush := func() {
		if current != nil && current.QuestionText != "" && len(current.Options) >= 2 {
			questions = append(questions, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Q:"):
			flush()
			current = &QuizQuestion{
				QuestionText:  strings.TrimSpace(strings.TrimPrefix(line, "Q:")),
				CorrectAnswer: -1,
			}
		case current != nil && len(line) > 2 && line[1] == ')' && line[0] >= 'A' && line[0] <= 'D':
			current.Options = append(current.Options, strings.TrimSpace(line[2:]))
		case current != nil && strings.HasPrefix(line, "Correct:"):
			letter := strings.TrimSpace(strings.TrimPrefix(line, "Correct:"))
			if len(letter) > 0 && letter[0] >= 'A' && letter[0] <= 'D' {
				current.CorrectAnswer = int(letter[0] - 'A')
			}
		}
	}
	flush()

	for i := range questions {
		if questions[i].CorrectAnswer < 0 || questions[i].CorrectAnswer >= len(questions[i].Options) {
			questions[i].CorrectAnswer = 0
		}
		questions[i].Marks = 1
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions found in model output")
	}

	return questions, nil
}
