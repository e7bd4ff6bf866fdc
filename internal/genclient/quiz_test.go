package genclient

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuizJSON(mutate func(items []map[string]any)) json.RawMessage {
	items := make([]map[string]any, 10)
	for i := range items {
		items[i] = map[string]any{
			"question":           fmt.Sprintf("Question %d?", i),
			"options":            []string{"a", "b", "c", "d"},
			"correctAnswerIndex": i % 4,
			"explanation":        "because",
		}
	}
	if mutate != nil {
		mutate(items)
	}
	b, _ := json.Marshal(items)
	return b
}

func TestParseQuizAcceptsValidBatch(t *testing.T) {
	items, err := ParseQuiz(validQuizJSON(nil))
	require.NoError(t, err)
	require.Len(t, items, 10)
	assert.Equal(t, "Question 3?", items[3].Question)
	assert.Equal(t, 3, items[3].CorrectAnswerIndex)
}

func TestParseQuizRejectsWrongCount(t *testing.T) {
	b, _ := json.Marshal([]map[string]any{{
		"question":           "only one?",
		"options":            []string{"a", "b", "c", "d"},
		"correctAnswerIndex": 0,
		"explanation":        "x",
	}})
	_, err := ParseQuiz(b)
	require.ErrorIs(t, err, ErrMalformedQuiz)
}

func TestParseQuizRejectsBadItems(t *testing.T) {
	cases := map[string]func(items []map[string]any){
		"three options":      func(items []map[string]any) { items[4]["options"] = []string{"a", "b", "c"} },
		"index out of range": func(items []map[string]any) { items[0]["correctAnswerIndex"] = 4 },
		"negative index":     func(items []map[string]any) { items[9]["correctAnswerIndex"] = -1 },
		"empty question":     func(items []map[string]any) { items[2]["question"] = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseQuiz(validQuizJSON(mutate))
			require.ErrorIs(t, err, ErrMalformedQuiz)
		})
	}
}

func TestParseQuizRejectsNonJSON(t *testing.T) {
	_, err := ParseQuiz(json.RawMessage("I'd be happy to write a quiz!"))
	require.ErrorIs(t, err, ErrMalformedQuiz)
}

func TestFenceStripping(t *testing.T) {
	raw := "```plaintext\nA chest X-ray showing pneumonia.\n```"
	got := strings.TrimSpace(fencePattern.ReplaceAllString(raw, ""))
	assert.Equal(t, "A chest X-ray showing pneumonia.", got)

	raw = "```json\n{\"a\":1}\n```"
	got = strings.TrimSpace(fencePattern.ReplaceAllString(raw, ""))
	assert.Equal(t, `{"a":1}`, got)
}
