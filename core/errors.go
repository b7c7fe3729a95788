package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// SystemError marks a store inconsistency: a lookup came back empty right
// after an existence/credential check succeeded. It is fatal for the request,
// reported, and never retried silently.
type SystemError struct {
	Msg string
	Err error
}

func NewSystemError(msg string, err error) error {
	return &SystemError{Msg: msg, Err: err}
}

func (s SystemError) Error() string {
	if s.Err != nil {
		return s.Msg + ": " + s.Err.Error()
	}
	return s.Msg
}

func (s SystemError) Unwrap() error { return s.Err }

func IsSystemError(err error) bool {
	_, ok := errors.Cause(err).(*SystemError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
