package domain

import "fmt"

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Standard domain error constructors.

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: 400}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Status: 401}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Message: msg, Status: 409}
}

// ErrInvalidSeed signals a seed that is malformed or not the one bound to the session.
func ErrInvalidSeed(sessionID string) *AppError {
	return &AppError{Code: "INVALID_SEED", Message: fmt.Sprintf("seed does not match session %s", sessionID), Status: 422}
}

// ErrReplayedSession signals a session identifier that was already settled.
func ErrReplayedSession(sessionID string) *AppError {
	return &AppError{Code: "REPLAYED_SESSION", Message: fmt.Sprintf("session %s already settled", sessionID), Status: 409}
}

// ErrInsufficientQuantity aborts a delta list that would drive a balance negative.
func ErrInsufficientQuantity(resource string) *AppError {
	return &AppError{Code: "INSUFFICIENT_QUANTITY", Message: fmt.Sprintf("insufficient %s", resource), Status: 400}
}

// ErrStreakNotFound signals absence of a streak record. Callers other than the
// streak endpoint treat this as streak = 0, not a failure.
func ErrStreakNotFound(playerID string) *AppError {
	return &AppError{Code: "STREAK_NOT_FOUND", Message: fmt.Sprintf("no streak challenge for player %s", playerID), Status: 404}
}

// ErrRateLimited throttles a caller exceeding the per-player request budget.
func ErrRateLimited(msg string) *AppError {
	return &AppError{Code: "RATE_LIMITED", Message: msg, Status: 429}
}

// ErrLockTimeout is retryable: settlement is idempotent, so the caller may
// resubmit the identical payload.
func ErrLockTimeout() *AppError {
	return &AppError{Code: "LOCK_TIMEOUT", Message: "could not acquire player lock, retry the request", Status: 503}
}

// ErrInvalidSignature rejects an SSV payload whose signature or timestamp fails
// verification. Never retried with the same payload.
func ErrInvalidSignature(msg string) *AppError {
	return &AppError{Code: "INVALID_SIGNATURE", Message: msg, Status: 403}
}

// ErrUnknownKey rejects an SSV payload referencing an unregistered key id.
func ErrUnknownKey(keyID string) *AppError {
	return &AppError{Code: "UNKNOWN_KEY", Message: fmt.Sprintf("unknown verification key id %s", keyID), Status: 403}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}
