package domain

import "errors"

var (
	// ErrFetchFailed is returned when every fetch strategy (direct and all
	// relays) has been exhausted; it carries the per-strategy diagnostics
	ErrFetchFailed = errors.New("all fetch strategies failed")

	// ErrIngredientsNotFound is returned when no ingredient declaration can
	// be located in the page HTML
	ErrIngredientsNotFound = errors.New("ingredient declaration not found in page")

	// ErrGeminiAPIFailure is returned when the Gemini API call failed after
	// retries or returned a non-retryable error status
	ErrGeminiAPIFailure = errors.New("Gemini API request failed")

	// ErrMissingAPIKey is returned when neither the request nor the server
	// configuration provides a Gemini API key
	ErrMissingAPIKey = errors.New("Gemini API key not provided")

	// ErrVerdictFormat is returned when the service reply lacks the
	// mandatory VERDICT line
	ErrVerdictFormat = errors.New("reply is missing the VERDICT line")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)
