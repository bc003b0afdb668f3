package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches every *NotFoundError via errors.Is.
	ErrNotFound = errors.New("not found")
	// ErrStreamClosed is returned by a second Close on the same Stream.
	ErrStreamClosed = errors.New("stream already closed")
)

// NotFoundError reports that a locator could not be resolved to content.
type NotFoundError struct {
	Locator string
	Reason  string
}

func (e *NotFoundError) Error() string {
	return e.Reason
}

// Is makes errors.Is(err, ErrNotFound) true for any NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(loc, format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Locator: loc, Reason: fmt.Sprintf(format, args...)}
}

// StreamDerivationError wraps an I/O failure raised while deriving a stream
// from an acquired fast-path descriptor. The descriptor has already been
// released when this error is returned.
type StreamDerivationError struct {
	Locator string
	Err     error
}

func (e *StreamDerivationError) Error() string {
	return fmt.Sprintf("unable to create stream for %s: %v", e.Locator, e.Err)
}

func (e *StreamDerivationError) Unwrap() error {
	return e.Err
}
