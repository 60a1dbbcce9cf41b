package generation

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ValidationError reports missing or malformed input. It never reaches the provider.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// ProviderError wraps any failure reported by, or while talking to, the provider.
type ProviderError struct {
	Op      string // "submit" or "query"
	Message string // provider supplied message, if any
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Op {
	case "submit":
		return "failed to submit generation task"
	case "query":
		return "failed to query task status"
	default:
		return "provider request failed"
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// TimeoutError is raised by a session once the poll ceiling is reached.
type TimeoutError struct {
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Video generation timed out after %.1f minutes. Try the faster %q quality mode.",
		e.Elapsed.Minutes(), QualitySpeed)
}

// GenerationFailure is raised when the provider reports the task as failed.
type GenerationFailure struct {
	TaskID string
}

func (e *GenerationFailure) Error() string {
	return "Video generation failed on the provider side. Try a different image or prompt."
}

// NewProviderError builds a ProviderError, preferring the message of a nested
// ProviderError when err already carries one.
func NewProviderError(op string, err error) *ProviderError {
	pe := &ProviderError{Op: op, Err: err}
	var inner *ProviderError
	if errors.As(err, &inner) {
		pe.Message = inner.Message
	}
	return pe
}

// HTTPStatus maps an error of this package onto a response status code.
func HTTPStatus(err error) int {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
