package agents

import (
	"errors"
	"fmt"

	"github.com/helixir/research-desk/internal/domain"
)

// TransientError marks a provider failure that may succeed on retry.
type TransientError struct {
	// Provider is the agent slug.
	Provider string
	// Err is the underlying cause.
	Err error
}

// NewTransientError wraps err as retryable.
func NewTransientError(provider string, err error) *TransientError {
	return &TransientError{Provider: provider, Err: err}
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient failure: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransientError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, domain.ErrTransient) to match.
func (e *TransientError) Is(target error) bool {
	return target == domain.ErrTransient
}

// IsTransient reports whether err may succeed on retry.
func IsTransient(err error) bool {
	return errors.Is(err, domain.ErrTransient)
}
