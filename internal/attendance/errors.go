package attendance

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies domain failures.
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

// Error is the error type returned by the services.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the code-only sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Code == e.Code
}

var (
	ErrInvalidArgument = &Error{Code: CodeInvalidArgument}
	ErrNotFound        = &Error{Code: CodeNotFound}
	ErrConflict        = &Error{Code: CodeConflict}
	ErrInternal        = &Error{Code: CodeInternal}
)

func NewInvalidArgumentError(msg string) error {
	return &Error{Code: CodeInvalidArgument, Message: msg}
}

func NewNotFoundError(msg string) error {
	return &Error{Code: CodeNotFound, Message: msg}
}

func NewConflictError(msg string) error {
	return &Error{Code: CodeConflict, Message: msg}
}

func NewInternalError(msg string, err error) error {
	return &Error{Code: CodeInternal, Message: msg, Err: err}
}

// CodeOf extracts the domain code; anything unclassified is internal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf returns the caller-facing message. Internal details are hidden.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != CodeInternal {
		return e.Message
	}
	return "internal server error"
}

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	switch CodeOf(err) {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
