// Package apperr centralizes the structured error values raised by the
// service layer. Services return *Error with a stable kind and the field
// the violation refers to; handlers translate them into HTTP responses.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindUnauthorized        Kind = "unauthorized"
	KindConflict            Kind = "conflict"
	KindValidation          Kind = "validation_error"
	KindDatabase            Kind = "database_error"
	KindInsufficientMembers Kind = "insufficient_members"
	KindNoValidUsers        Kind = "no_valid_users"
)

type Error struct {
	Status  int    `json:"-"`
	Kind    Kind   `json:"type"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func NotFound(message, field string) *Error {
	return &Error{Status: http.StatusNotFound, Kind: KindNotFound, Message: message, Field: field}
}

func Unauthorized(message, field string) *Error {
	return &Error{Status: http.StatusUnauthorized, Kind: KindUnauthorized, Message: message, Field: field}
}

func Conflict(message, field string) *Error {
	return &Error{Status: http.StatusConflict, Kind: KindConflict, Message: message, Field: field}
}

func Validation(message, field string) *Error {
	return &Error{Status: http.StatusBadRequest, Kind: KindValidation, Message: message, Field: field}
}

func Database(field string, cause error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Kind:    KindDatabase,
		Message: "there was an error in the database",
		Field:   field,
		cause:   cause,
	}
}

func InsufficientMembers(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Kind: KindInsufficientMembers, Message: message, Field: "chats"}
}

func NoValidUsers(field string) *Error {
	return &Error{Status: http.StatusBadRequest, Kind: KindNoValidUsers, Message: "none of the selected users exist", Field: field}
}

// From returns err unchanged when it is already a structured error, so a
// specific kind raised before a transaction opened survives the rollback
// path. Anything else is wrapped as a database error.
func From(err error, field string) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Database(field, err)
}
