package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseQuiz(t *testing.T) {
	content := `Q: What is the derivative of x^2?
A) x
B) 2x
C) x^2
D) 2
Correct: B

Q: What is the integral of 1/x?
A) ln|x| + C
B) 1/x^2
Correct: A`

	questions, err := ParseQuiz(content)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	require.Equal(t, "What is the derivative of x^2?", questions[0].QuestionText)
	require.Equal(t, []string{"x", "2x", "x^2", "2"}, questions[0].Options)
	require.Equal(t, 1, questions[0].CorrectAnswer)

	require.Len(t, questions[1].Options, 2)
	require.Equal(t, 0, questions[1].CorrectAnswer)
}

func TestParseQuizSkipsShortQuestions(t *testing.T) {
	content := `Q: Lonely question with one option?
A) only one
Correct: A

Q: A proper question?
A) yes
B) no
Correct: A`

	questions, err := ParseQuiz(content)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	require.Equal(t, "A proper question?", questions[0].QuestionText)
}

func TestParseQuizDefaultsMissingCorrect(t *testing.T) {
	content := `Q: What is 2 + 2?
A) 3
B) 4`

	questions, err := ParseQuiz(content)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	require.Equal(t, 0, questions[0].CorrectAnswer)
	require.Equal(t, 1, questions[0].Marks)
}

func TestParseQuizDefaultsBadCorrectLetter(t *testing.T) {
	// Unparseable and out-of-range answers fall back to the first option.
	for _, letter := range []string{"Z", "D"} {
		content := `Q: What is 2 + 2?
A) 3
B) 4
Correct: ` + letter

		questions, err := ParseQuiz(content)
		require.NoError(t, err)
		require.Len(t, questions, 1)
		require.Equal(t, 0, questions[0].CorrectAnswer)
	}
}

func TestParseQuizEmptyOutput(t *testing.T) {
	_, err := ParseQuiz("I'm sorry, I can't produce questions right now.")
	require.Error(t, err)
}
