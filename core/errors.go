package core

import "github.com/pkg/errors"

// FieldError reports a validation failure on a single input field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries per-field messages for a rejected input.
// The API layer renders it as a field -> message map.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, fields ...FieldError) error {
	return &ValidationError{Err: err, Fields: fields}
}

func (ve ValidationError) Error() string {
	if ve.Err == nil {
		return ""
	}
	return ve.Err.Error()
}

// shutdown signals an integrity fault the server cannot recover from.
type shutdown struct{ msg string }

func NewShutdownError(msg string) error { return &shutdown{msg: msg} }

func (s shutdown) Error() string { return s.msg }

// IsShutdown reports whether err was built by NewShutdownError.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
