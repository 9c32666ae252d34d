package services

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorUnauthenticated ErrorCode = "UNAUTHENTICATED"
	ErrorInvalidOperand  ErrorCode = "INVALID_OPERAND"
	ErrorConflict        ErrorCode = "CONFLICT"
	ErrorNotFound        ErrorCode = "NOT_FOUND"
	ErrorForbidden       ErrorCode = "FORBIDDEN"
	ErrorValidation      ErrorCode = "VALIDATION_ERROR"
	ErrorInternal        ErrorCode = "INTERNAL_ERROR"
)

// Error is the categorized outcome every service operation fails with.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("services: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("services: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

func internalError(reason string, err error) *Error {
	return newError(ErrorInternal, reason, err)
}

// CodeOf returns the category of err, or ErrorInternal for anything that is
// not a service error.
func CodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrorInternal
}

var reasonMessages = map[string]string{
	"self_or_empty_target":    "cannot target yourself",
	"self_or_empty_recipient": "cannot send to yourself",
	"self_or_empty_peer":      "cannot read a dialog with yourself",
	"user_not_found":          "user not found",
	"already_friends":         "already friends",
	"relationship_blocked":    "cannot send request",
	"request_already_sent":    "friend request already sent",
	"request_not_found":       "friend request not found",
	"friendship_not_found":    "friendship not found",
	"not_friends":             "can only chat with friends",
	"empty_text":              "message text is empty",
	"text_too_long":           "message text is too long",
}

// MessageOf returns a short client-facing description of err. Internal
// errors never expose their cause.
func MessageOf(err error) string {
	var se *Error
	if !errors.As(err, &se) || se.Code == ErrorInternal {
		return "internal error"
	}
	if m, ok := reasonMessages[se.Reason]; ok {
		return m
	}
	return string(se.Code)
}
