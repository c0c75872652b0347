// Package errs defines the error taxonomy shared by the domain, application and adapter layers.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to decide on presentation or retry.
type Kind string

const (
	KindNotFound   Kind = "NOT_FOUND"
	KindDomainRule Kind = "DOMAIN_RULE"
	KindValidation Kind = "VALIDATION"
	KindConflict   Kind = "CONFLICT"
	KindEngine     Kind = "ENGINE"
	KindSecurity   Kind = "SECURITY"
	KindInternal   Kind = "INTERNAL"
)

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// Error is a classified application error.
// Two errors are considered equal by errors.Is when their codes match.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
	Cause   error
}

// New creates a classified error
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors with the same code
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Withf returns a copy of the error with a formatted message
func (e *Error) Withf(format string, args ...interface{}) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// Wrap returns a copy of the error carrying cause
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

// WithFields returns a copy of the error carrying field-level details
func (e *Error) WithFields(fields map[string]string) *Error {
	cp := *e
	cp.Fields = make(map[string]string, len(fields))
	for k, v := range fields {
		cp.Fields[k] = v
	}
	return &cp
}

// KindOf returns the kind of the first classified error in the chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// FieldsOf returns field-level details attached to err, if any.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsDomainRule(err error) bool { return KindOf(err) == KindDomainRule }
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsConflict(err error) bool   { return KindOf(err) == KindConflict }
func IsEngine(err error) bool     { return KindOf(err) == KindEngine }
func IsSecurity(err error) bool   { return KindOf(err) == KindSecurity }
