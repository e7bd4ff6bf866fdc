package genclient

import (
	"context"
	"encoding/json"
	"fmt"

	"medxtutor/internal/util/jsonutil"

	genai "google.golang.org/genai"
)

// quizItemCount is fixed by the quiz contract: the batch is exactly this
// many questions, each with exactly four options.
const quizItemCount = 10

// QuizItem is one multiple-choice question from the quiz batch.
type QuizItem struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
}

var quizSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question":           {Type: genai.TypeString},
			"options":            {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"correctAnswerIndex": {Type: genai.TypeInteger},
			"explanation":        {Type: genai.TypeString},
		},
		Required: []string{"question", "options", "correctAnswerIndex", "explanation"},
	},
}

// AuthorQuiz produces the ordered quiz batch for a clinical description.
// Any schema deviation is a hard failure; nothing is repaired.
func (c *Client) AuthorQuiz(ctx context.Context, clinicalPrompt string) ([]QuizItem, error) {
	req := fmt.Sprintf("Generate a quiz question for this scenario: %q", clinicalPrompt)
	resp, err := c.cli.Models.GenerateContent(ctx, c.textModel,
		[]*genai.Content{genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(req)}, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: quizAuthoringProfile}}},
			ResponseMIMEType:  "application/json",
			ResponseSchema:    quizSchema,
		},
	)
	if err != nil {
		return nil, transportError("author quiz", err)
	}
	return ParseQuiz(json.RawMessage(firstText(resp)))
}

// ParseQuiz validates raw quiz JSON against the strict batch shape.
func ParseQuiz(raw json.RawMessage) ([]QuizItem, error) {
	var items []QuizItem
	if err := jsonutil.UnmarshalRaw(raw, &items); err != nil {
		return nil, fmt.Errorf("author quiz: %w: %v", ErrMalformedQuiz, err)
	}
	if len(items) != quizItemCount {
		return nil, fmt.Errorf("author quiz: %w: expected %d items, got %d", ErrMalformedQuiz, quizItemCount, len(items))
	}
	for i, item := range items {
		if len(item.Options) != 4 {
			return nil, fmt.Errorf("author quiz: %w: item %d has %d options", ErrMalformedQuiz, i, len(item.Options))
		}
		if item.CorrectAnswerIndex < 0 || item.CorrectAnswerIndex > 3 {
			return nil, fmt.Errorf("author quiz: %w: item %d correct index %d out of range", ErrMalformedQuiz, i, item.CorrectAnswerIndex)
		}
		if item.Question == "" {
			return nil, fmt.Errorf("author quiz: %w: item %d has no question", ErrMalformedQuiz, i)
		}
	}
	return items, nil
}
