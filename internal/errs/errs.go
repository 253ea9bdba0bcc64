// Package errs defines the numeric error taxonomy returned to API clients.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the stable numeric code carried in every response envelope.
type Code int

// General codes.
const (
	CodeSuccess       Code = 0
	CodeNeedLogin     Code = 10001
	CodeInternalError Code = 50000
)

// Memo codes.
const (
	CodeMemoNotFound         Code = 20001
	CodeMemoValidationFailed Code = 20002
	CodeMemoNoPermission     Code = 20003
)

// User codes.
const (
	CodeUserNotFound Code = 30001
)

// Auth codes.
const (
	CodeAuthAlreadyExist            Code = 40001
	CodeAuthAccountPasswordMismatch Code = 40002
	CodeAuthNotFound                Code = 40003
)

// Resource codes.
const (
	CodeResourceNotFound     Code = 50001
	CodeResourceNoPermission Code = 50002
	CodeResourceIllegalParam Code = 50003
)

// Error is a domain failure with the HTTP status and code it maps to.
type Error struct {
	Status  int
	Code    Code
	Message string
	base    *Error
}

func (e *Error) Error() string {
	return e.Message
}

// Is lets a wrapped error match the sentinel it was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || (e.base != nil && e.base == t)
}

// New declares a sentinel.
func New(status int, code Code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Wrap returns a copy of sentinel with a more specific message.
// errors.Is(Wrap(ErrX, ...), ErrX) holds.
func Wrap(sentinel *Error, format string, args ...any) *Error {
	return &Error{
		Status:  sentinel.Status,
		Code:    sentinel.Code,
		Message: fmt.Sprintf(format, args...),
		base:    sentinel,
	}
}

var (
	ErrNeedLogin = New(http.StatusUnauthorized, CodeNeedLogin, "login required")
	ErrInternal  = New(http.StatusInternalServerError, CodeInternalError, "internal server error")

	ErrMemoNotFound         = New(http.StatusNotFound, CodeMemoNotFound, "memo not found")
	ErrMemoValidationFailed = New(http.StatusBadRequest, CodeMemoValidationFailed, "validation failed")
	ErrMemoNoPermission     = New(http.StatusForbidden, CodeMemoNoPermission, "no permission for this memo")

	ErrUserNotFound = New(http.StatusNotFound, CodeUserNotFound, "user not found")

	ErrAuthAlreadyExist            = New(http.StatusConflict, CodeAuthAlreadyExist, "email or username already registered")
	ErrAuthAccountPasswordMismatch = New(http.StatusUnauthorized, CodeAuthAccountPasswordMismatch, "wrong account or password")
	ErrAuthNotFound                = New(http.StatusNotFound, CodeAuthNotFound, "user not found")

	ErrResourceNotFound     = New(http.StatusNotFound, CodeResourceNotFound, "resource not found or not owned by you")
	ErrResourceNoPermission = New(http.StatusForbidden, CodeResourceNoPermission, "no permission for this resource")
	ErrResourceIllegalParam = New(http.StatusBadRequest, CodeResourceIllegalParam, "illegal parameter")
	// ErrUploadRejected shares the illegal-param code but is a 403: the signature did not vouch for the request.
	ErrUploadRejected = New(http.StatusForbidden, CodeResourceIllegalParam, "upload signature rejected")
)

// As extracts the *Error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
