package errs

import (
	"errors"
)

// Common error types
var (
	ErrInvalidURL   = errors.New("invalid youtube url")
	ErrTaskNotFound = errors.New("task not found")
	ErrNoTranscript = errors.New("no transcript available")
	ErrUnknownMode  = errors.New("unknown app mode")
)
