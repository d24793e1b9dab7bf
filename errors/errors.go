package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// DriverError is a wrapper around system errno codes, with a customizable error message.
type DriverError interface {
	error
	Errno() Errno
	Unwrap() error
	WithMessage(message string) DriverError
	Wrap(err error) DriverError
}

type driverError struct {
	errno         Errno
	message       string
	originalError error
}

// Error implements the `error` object interface. When called, it returns a string
// describing the error.
func (e driverError) Error() string {
	if e.message != "" {
		return e.message
	}
	return StrError(e.errno)
}

func (e driverError) Errno() Errno {
	return e.errno
}

func (e driverError) Unwrap() error {
	return e.originalError
}

// WithMessage derives a new error with the same code, appending `message` to
// this one's. The result still satisfies errors.Is against the receiver.
func (e driverError) WithMessage(message string) DriverError {
	return driverError{
		errno:         e.errno,
		message:       fmt.Sprintf("%s: %s", e.Error(), message),
		originalError: e,
	}
}

// Wrap derives a new error with the same code that matches both the receiver
// and `err` under errors.Is.
func (e driverError) Wrap(err error) DriverError {
	return driverError{
		errno:         e.errno,
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e, err),
	}
}

// New creates a new [DriverError] with a default message derived from the
// system's error code.
func New(errnoCode Errno) DriverError {
	return driverError{
		errno:   errnoCode,
		message: StrError(errnoCode),
	}
}

func NewFromError(errnoCode Errno, originalError error) DriverError {
	return driverError{
		errno:         errnoCode,
		message:       fmt.Sprintf("%s: %s", StrError(errnoCode), originalError.Error()),
		originalError: originalError,
	}
}

// NewWithMessage creates a new DriverError from a system error code with a
// custom message.
func NewWithMessage(errnoCode Errno, message string) DriverError {
	return driverError{
		errno:   errnoCode,
		message: fmt.Sprintf("%s: %s", StrError(errnoCode), message),
	}
}

// ErrnoOf extracts the errno code carried anywhere in the chain of `err`. A nil
// error gives EOK and an error that isn't a [DriverError] gives EIO.
func ErrnoOf(err error) Errno {
	if err == nil {
		return EOK
	}

	var driverErr DriverError
	if stderrors.As(err, &driverErr) {
		return driverErr.Errno()
	}
	return EIO
}
