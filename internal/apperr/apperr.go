// Package apperr defines the error kinds every protocol and service reports
// and how they map onto HTTP responses.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindValidation
	KindUnauthorized
	KindForbidden
)

// Locations of a field error.
const (
	LocationBody  = "body"
	LocationQuery = "query"
	LocationPath  = "path"
)

// Stable machine-readable codes.
const (
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeValidationFailed = "validation_failed"
	CodeUnauthorized     = "unauthorized"
	CodeForbidden        = "forbidden"
	CodeInternal         = "internal_error"
	CodeInvalidParameter = "invalid_parameter"

	CodeNoToken           = "no_token"
	CodeInvalidToken      = "invalid_token"
	CodeUserNotFound      = "user_not_found"
	CodeUserNotActive     = "user_not_active"
	CodePasswordIncorrect = "password_incorrect"
	CodeCodeNotMatch      = "code_not_match"
	CodeCodeExpired       = "code_expired"
	CodeTooManyRequests   = "too_many_requests"
)

// Status returns the HTTP status for the kind.
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindValidation:
		return "ValidationFailed"
	case KindUnauthorized:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	default:
		return "Internal"
	}
}

// FieldError describes one offending field of a request.
type FieldError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Location string `json:"location"`
	Field    string `json:"field"`
}

// Error is a failure a protocol raised itself for one of its preconditions.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Message
}

// Field builds a FieldError. Field names are JSON pointers such as "/email".
func Field(location, field, code, message string) FieldError {
	return FieldError{Code: code, Message: message, Location: location, Field: field}
}

func NotFound(message string, fields ...FieldError) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: message, Fields: fields}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Code: CodeConflict, Message: message}
}

// Validation reports a list of field problems under the generic validation message.
func Validation(fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidationFailed, Message: "Validation failed", Fields: fields}
}

func Unauthorized(code, message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Code: CodeForbidden, Message: message}
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf reports the kind of err, KindInternal for anything that is not an *Error.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
