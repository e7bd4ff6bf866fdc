package genclient

import (
	"errors"
	"fmt"
)

var (
	// ErrServiceUnreachable wraps transport-level failures talking to the
	// generation service.
	ErrServiceUnreachable = errors.New("generation service unreachable")

	// ErrGenerationRefused is returned when the image model declines to
	// produce an image (safety refusal or empty response).
	ErrGenerationRefused = errors.New("image generation model did not return an image")

	// ErrMalformedQuiz is returned when the quiz response does not match the
	// strict schema (not a list, wrong option count, bad correct index).
	ErrMalformedQuiz = errors.New("malformed quiz data from model")

	// ErrIncompleteAnalysis is returned when a pointer analysis response is
	// missing either the explanation text or the diagram image. Both are
	// mandatory, not best-effort.
	ErrIncompleteAnalysis = errors.New("analysis returned without both explanation and diagram")

	// ErrUserInput marks input rejected before any network call is issued.
	ErrUserInput = errors.New("invalid user input")

	// ErrEmptyResponse is returned when the model produced no usable content.
	ErrEmptyResponse = errors.New("empty response from model")
)

// taskError wraps an underlying failure with the task name so callers see a
// typed failure that still carries the original message.
func taskError(task string, err error) error {
	return fmt.Errorf("%s: %w", task, err)
}
