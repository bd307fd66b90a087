package llm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingAPIKey indicates no Gemini API key was configured.
	ErrMissingAPIKey = errors.New("gemini api key is not configured")

	// ErrTimeout indicates the request exceeded its deadline.
	ErrTimeout = errors.New("llm request timed out")

	// ErrRetryExhausted indicates all retry attempts failed.
	ErrRetryExhausted = errors.New("llm retry attempts exhausted")

	// ErrEmptyResponse indicates the model returned no usable text.
	ErrEmptyResponse = errors.New("llm returned an empty response")

	// ErrBlocked indicates the prompt or the reply was blocked by safety filters.
	ErrBlocked = errors.New("llm response blocked")

	// ErrInvalidResponse indicates the response body could not be decoded.
	ErrInvalidResponse = errors.New("invalid llm response")

	// ErrToolLoop indicates the model kept requesting tools past the round limit.
	ErrToolLoop = errors.New("too many function-calling rounds")
)

// APIError is a non-200 reply from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini returned status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the same request may succeed later.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return !errors.Is(err, ErrInvalidResponse)
}

func errorCode(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingAPIKey):
		return "NO_API_KEY"
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrBlocked):
		return "BLOCKED"
	case errors.Is(err, ErrEmptyResponse):
		return "EMPTY"
	case errors.Is(err, ErrToolLoop):
		return "TOOL_LOOP"
	case errors.Is(err, ErrInvalidResponse):
		return "INVALID_OUTPUT"
	case errors.Is(err, ErrRetryExhausted):
		return "RETRY_EXHAUSTED"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("HTTP_%d", apiErr.StatusCode)
	default:
		return "UNKNOWN"
	}
}
