package service

import (
	"errors"
	"fmt"
)

// ErrInvalidToken covers absent, expired and already-used tokens. The three
// cases are deliberately collapsed so responses give no enumeration oracle.
var ErrInvalidToken = errors.New("invalid or expired token")

// ValidationError reports a malformed submission field. No side effects have
// occurred when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// StorageError wraps a persistence failure during a required step.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
