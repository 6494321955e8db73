package model

import (
	"errors"
	"fmt"
)

// Error taxonomy shared across the engine. Callers classify failures with
// errors.Is and react per class; everything else propagates unchanged.
var (
	// ErrUnauthenticated means the operation needs a logged-in session and
	// none exists. Calling code is expected to check first.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrCredentialInvalid means the backend rejected the session or
	// credentials themselves. The session manager translates this into a
	// forced logout.
	ErrCredentialInvalid = errors.New("invalid credentials")

	// ErrTransient marks network or backend availability failures. State is
	// left unchanged and the operation may be retried.
	ErrTransient = errors.New("transient failure")

	// ErrUnconfigured marks operations the configured integration does not
	// support. Callers gate on provider.Features first; this surfaces when
	// they don't.
	ErrUnconfigured = errors.New("not supported by integration")
)

// ValidationError carries field-level validation failures back to forms.
// It never causes a state mutation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// IsTransient reports whether err is a retryable network/backend failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
