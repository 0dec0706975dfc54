package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds. Callers test for them with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrPersistence       = errors.New("persistence failure")
)

// Error carries a kind and a message fit for the API response.
type Error struct {
	Kind  error
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newError(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...interface{}) *Error {
	return newError(ErrNotFound, format, args...)
}

func validation(format string, args ...interface{}) *Error {
	return newError(ErrValidation, format, args...)
}

func conflict(format string, args ...interface{}) *Error {
	return newError(ErrConflict, format, args...)
}

// dbError classifies a storage error returned while doing op. Errors that
// already carry a kind pass through unchanged.
func dbError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: ErrNotFound, Msg: op + ": not found", Cause: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: ErrConflict, Msg: op + ": already exists", Cause: err}
	}
	return &Error{Kind: ErrPersistence, Msg: fmt.Sprintf("%s: %v", op, err), Cause: err}
}
