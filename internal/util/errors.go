package util

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrSkillNotFound     = errors.New("skill not found")
	ErrNoSkillResolvable = errors.New("no skill could be determined for the request")
	ErrQuestionNotFound  = errors.New("question not found")

	ErrSessionNotFound       = errors.New("assessment session not found")
	ErrNotSessionOwner       = errors.New("session belongs to another user")
	ErrSessionNotInProgress  = errors.New("session is not in progress")
	ErrSessionNotCompleted   = errors.New("session is not completed yet")
	ErrQuestionNotInSession  = errors.New("question does not belong to this session")
	ErrAlreadyAnswered       = errors.New("question already answered in this session")
	ErrInsufficientQuestions = errors.New("not enough active questions for this skill and grade")
	ErrSessionCorrupted      = errors.New("session references a question that no longer exists")

	ErrResourceNotFound       = errors.New("resource not found")
	ErrRecommendationNotFound = errors.New("recommendation not found")
	ErrInvalidVideoExt        = errors.New("unsupported video extension")
)

// AIError wraps a failure from the AI generation backend. Fatal errors
// (bad credentials, exhausted quota, malformed request, policy violation)
// must not be retried.
type AIError struct {
	Code    string
	Message string
	Fatal   bool
	Err     error
}

func (e *AIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("ai generation failed (%s): %s", e.Code, e.Message)
	}
	return "ai generation failed: " + e.Message
}

func (e *AIError) Unwrap() error {
	return e.Err
}

func NewAIError(code, message string, fatal bool, cause error) *AIError {
	return &AIError{Code: code, Message: message, Fatal: fatal, Err: cause}
}

// IsFatalAIError reports whether err carries an AIError that retrying
// cannot fix.
func IsFatalAIError(err error) bool {
	var aiErr *AIError
	return errors.As(err, &aiErr) && aiErr.Fatal
}
