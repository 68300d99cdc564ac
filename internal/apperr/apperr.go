package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
)

// Error is a client-correctable failure. Code is the string returned to
// clients in the {"error": code} body.
type Error struct {
	Kind Kind
	Code string
}

func (e *Error) Error() string {
	return e.Code
}

func (e *Error) Status() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func BadRequest(code string) *Error      { return &Error{Kind: KindBadRequest, Code: code} }
func Unauthorized(code string) *Error    { return &Error{Kind: KindUnauthorized, Code: code} }
func Forbidden(code string) *Error       { return &Error{Kind: KindForbidden, Code: code} }
func NotFound(code string) *Error        { return &Error{Kind: KindNotFound, Code: code} }
func Conflict(code string) *Error        { return &Error{Kind: KindConflict, Code: code} }
func TooManyRequests(code string) *Error { return &Error{Kind: KindTooManyRequests, Code: code} }

// As unwraps err into an *Error when one is present in the chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
