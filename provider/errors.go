package provider

import (
	"errors"
	"fmt"
)

// Error taxonomy, generalized from the status-code classification in
// generators/open_ai.go's Generate (ResourceExhausted/Unavailable -> retry,
// 429 -> retry, other non-2xx -> OpenAIError) and generators/gemini.go's
// isRetryable. Each sentinel is meant to be wrapped with %w so callers can
// errors.Is against it while still seeing the underlying cause.
var (
	ErrProviderUnavailable = errors.New("provider: unavailable")
	ErrAuthError           = errors.New("provider: authentication failed")
	ErrRateLimited         = errors.New("provider: rate limited")
	ErrBadRequest          = errors.New("provider: bad request")
	ErrContextOverflow     = errors.New("provider: context window exceeded")
)

// CallError wraps one of the sentinels above with the request that
// triggered it and the underlying transport/decode error, mirroring the
// teacher's OpenAIError (generators/open_ai_error.go) which carries the
// offending ChatCompletionRequest alongside the error.
type CallError struct {
	Kind  error
	Model string
	Err   error
}

func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v (model %s): %v", e.Kind, e.Model, e.Err)
	}
	return fmt.Sprintf("%v (model %s)", e.Kind, e.Model)
}

func (e *CallError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// IsRetryable reports whether err represents a transient condition worth
// retrying: rate limiting or provider unavailability.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrProviderUnavailable)
}
