package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how the orchestrator reacts to it.
type Kind string

const (
	// KindLookupMiss: an event referenced something absent from local state. Ignored.
	KindLookupMiss Kind = "LOOKUP_MISS"
	// KindSideEffect: a peripheral effect (audio, system notification, persistence) failed. Swallowed.
	KindSideEffect Kind = "SIDE_EFFECT_FAILED"
	// KindConnection: the connection was missing or closed. Best effort.
	KindConnection   Kind = "CONNECTION"
	KindInvalidInput Kind = "INVALID_INPUT"
	KindInternal     Kind = "INTERNAL_ERROR"
)

// AppError carries a kind and optional context alongside the cause.
type AppError struct {
	Kind    Kind
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func New(kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

func NewLookupMiss(resource string, id string) *AppError {
	return New(KindLookupMiss, fmt.Sprintf("%s %q not found", resource, id)).WithContext(resource+"_id", id)
}

func WrapSideEffect(err error, effect string) *AppError {
	return Wrap(err, KindSideEffect, effect+" failed").WithContext("effect", effect)
}

func WrapConnection(err error, op string) *AppError {
	return Wrap(err, KindConnection, op+" failed").WithContext("op", op)
}

func NewInvalidInput(message string) *AppError {
	return New(KindInvalidInput, message)
}

// GetAppError extracts the first AppError from the chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// KindOf returns the kind of the first AppError in the chain, or
// KindInternal for any other non-nil error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Kind
	}
	return KindInternal
}

// IsIgnorable reports whether err belongs to a kind the orchestrator never
// propagates.
func IsIgnorable(err error) bool {
	switch KindOf(err) {
	case KindLookupMiss, KindSideEffect, KindConnection:
		return true
	}
	return false
}
