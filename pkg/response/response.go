package response

import (
	"errors"
	"fmt"
)

// Error is a domain error that carries the HTTP status it maps to.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

// Wrap keeps the status and public message of a domain error while
// attaching the underlying cause for logging.
func Wrap(domainErr error, cause error) error {
	if cause == nil {
		return domainErr
	}
	return fmt.Errorf("%w: %v", domainErr, cause)
}
