// Package apperr holds the error kinds shared by the domain packages and the
// HTTP layer. Domain packages declare their own sentinel errors on top of these
// kinds; handlers only ever classify by kind.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrAlreadyExists     = errors.New("already exists")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// New returns an error with a client-safe message that matches kind under errors.Is.
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Newf is New with formatting.
func Newf(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity, e.g. NotFound("product", 42).
func NotFound(what string, id any) error {
	return Newf(ErrNotFound, "%s %v not found", what, id)
}

// InvalidTransition reports a lifecycle rule violation moving from one state
// to another. reason replaces the default message when set.
func InvalidTransition(from, to fmt.Stringer, reason string) error {
	if reason != "" {
		return New(ErrInvalidTransition, reason)
	}
	return Newf(ErrInvalidTransition, "cannot change status from %s to %s", from, to)
}

// Message returns the innermost client-safe message carried by err, or fallback
// when err carries none.
func Message(err error, fallback string) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg
	}
	return fallback
}

// ValidationError reports field level problems with caller input.
type ValidationError struct {
	Fields map[string]string
}

// Validation returns a ValidationError for a single field.
func Validation(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Add records a problem for field. The first message for a field wins.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// OrNil returns nil when no field problems were recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
