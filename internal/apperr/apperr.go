// Package apperr defines the sentinel errors shared across services.
// Handlers translate them to HTTP statuses at the API boundary; business
// logic only ever wraps and matches them with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrAuthRequired        = errors.New("authentication required")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrInvalidState        = errors.New("invalid capture state")
)

// Validationf wraps ErrValidation with a caller-facing message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
