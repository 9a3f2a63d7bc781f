// Package errcode classifies service failures so handlers can map them to
// HTTP statuses without knowing which service produced them.
package errcode

import (
	"errors"
	"strings"
)

// Kind 错误分类：
// - Validation：输入不合法，可修正后重试
// - NotFound：目标记录不存在或不可见
// - Unauthorized：未登录或凭据无效
// - Forbidden：身份正确但无权操作
// - Conflict：与已有数据冲突（重复申请、重复邮箱等）
type Kind int

const (
	Validation Kind = iota + 1
	NotFound
	Unauthorized
	Forbidden
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case Conflict:
		return "conflict"
	}
	return "unknown"
}

// Error is a user-facing failure. Msg is safe to show to the caller.
type Error struct {
	Kind Kind
	Msg  string
	// Fields optionally echoes non-secret input back so a form can be refilled.
	Fields map[string]string
}

func (e *Error) Error() string { return e.Msg }

// Is matches any *Error of the same kind, so errors.Is(err, errcode.ErrNotFound)
// works regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrValidation   = &Error{Kind: Validation}
	ErrNotFound     = &Error{Kind: NotFound}
	ErrUnauthorized = &Error{Kind: Unauthorized}
	ErrForbidden    = &Error{Kind: Forbidden}
	ErrConflict     = &Error{Kind: Conflict}
)

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

func Invalid(msg string) *Error   { return New(Validation, msg) }
func Missing(msg string) *Error   { return New(NotFound, msg) }
func Denied(msg string) *Error    { return New(Forbidden, msg) }
func Duplicate(msg string) *Error { return New(Conflict, msg) }

// Invalids joins several validation messages into one error. It returns nil
// when msgs is empty.
func Invalids(msgs []string) *Error {
	if len(msgs) == 0 {
		return nil
	}
	return Invalid(strings.Join(msgs, ". "))
}

// WithFields attaches form values to echo back.
func (e *Error) WithFields(fields map[string]string) *Error {
	e.Fields = fields
	return e
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
