// Package apperr defines the error kinds every portal operation returns, so that
// handlers decide the user-facing message instead of catching broadly.
package apperr

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation   Kind = "VALIDATION_ERROR"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindInvalidLink  Kind = "INVALID_LINK"
	KindSchema       Kind = "SCHEMA_ERROR"
	KindConflict     Kind = "CONFLICT"
	KindDependency   Kind = "DEPENDENCY_ERROR"
	KindInternal     Kind = "INTERNAL_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByKind = map[Kind]Metadata{
	KindValidation:   {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", DetailsAllowed: true},
	KindUnauthorized: {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required"},
	KindForbidden:    {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied"},
	KindNotFound:     {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found"},
	// unknown and expired links share one message
	KindInvalidLink: {HTTPStatus: http.StatusNotFound, PublicMessage: "this link is invalid or has expired"},
	KindSchema:      {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "spreadsheet is missing a required column", DetailsAllowed: true},
	KindConflict:    {HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected", DetailsAllowed: true},
	KindDependency:  {HTTPStatus: http.StatusServiceUnavailable, PublicMessage: "a storage service is unavailable, please try again"},
	KindInternal:    {HTTPStatus: http.StatusInternalServerError, PublicMessage: "internal server error"},
}

func MetadataFor(kind Kind) Metadata {
	if meta, ok := metadataByKind[kind]; ok {
		return meta
	}
	return metadataByKind[KindInternal]
}

type Error struct {
	kind    Kind
	message string
	details any
	cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{kind: kind, message: message, cause: err}
}

func (e *Error) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts the typed error from a chain, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// KindOf returns the kind of err, treating untyped errors as internal.
func KindOf(err error) Kind {
	if typed := As(err); typed != nil {
		return typed.Kind()
	}
	return KindInternal
}
