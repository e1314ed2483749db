package errors

import (
	"errors"
	"strings"
)

// Sentinel errors for handlers and workers to map to outcomes.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email has already been taken")
	ErrPhoneTaken      = errors.New("phone number has already been taken")
	ErrKeyTaken        = errors.New("internal key has already been taken")
	ErrAccountKeyTaken = errors.New("account key has already been taken")
)

// ValidationError collects every violation found on an input, in human-readable form.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// Add appends a message.
func (e *ValidationError) Add(msg string) {
	e.Messages = append(e.Messages, msg)
}

// Empty reports whether no violation was recorded.
func (e *ValidationError) Empty() bool {
	return len(e.Messages) == 0
}
