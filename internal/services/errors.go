package services

// Error types shared across services and mapped to HTTP statuses in the
// handlers layer.

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// UpstreamError wraps failures from the grading model. The caller must
// surface these instead of inventing a score.
type UpstreamError struct{ Message string }

func (e *UpstreamError) Error() string { return e.Message }
