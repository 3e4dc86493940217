package domain

import "errors"

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrValidation       = errors.New("validation failed")
	ErrRuleViolation    = errors.New("rule violation")
	ErrConflict         = errors.New("conflict")
)

// Error 携带一条面向调用者的信息，同时通过 Unwrap 暴露错误类别，
// 调用方用 errors.Is(err, ErrNotFound) 之类的方式判断类别。
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

func NotAuthenticated(msg string) error {
	return &Error{Kind: ErrNotAuthenticated, Message: msg}
}

func Invalid(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func Violation(msg string) error {
	return &Error{Kind: ErrRuleViolation, Message: msg}
}

func Conflict(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}
