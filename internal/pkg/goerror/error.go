// Package goerror carries the error model shared by usecases and the HTTP
// router: a Type for the broad category, a Code that fixes the HTTP status,
// and optional client-facing extras such as field errors, response data and
// a retry-after hint.
package goerror

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"time"
)

// Sentinels returned by repositories and translated by usecases.
var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource conflict")
)

// Type is the broad category of an Error.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

var typeNames = map[Type]string{
	TypeServer:     "ERROR_TYPE_SERVER",
	TypeBusiness:   "ERROR_TYPE_BUSINESS",
	TypeValidation: "ERROR_TYPE_VALIDATION",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "ERROR_TYPE_UNKNOWN"
}

// Code identifies an error condition. Each code maps to exactly one HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeBadRequest
	CodeNotFound
	CodeConflict
	CodeUnauthorized
	CodeTooManyRequest
)

var codeTable = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:       {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:  {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:   {"ERROR_CODE_INVALID_INPUT", http.StatusBadRequest},
	CodeBadRequest:     {"ERROR_CODE_BAD_REQUEST", http.StatusBadRequest},
	CodeNotFound:       {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:       {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeUnauthorized:   {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeTooManyRequest: {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
}

func (c Code) String() string {
	if e, ok := codeTable[c]; ok {
		return e.name
	}
	return codeTable[CodeInternal].name
}

// Status is the HTTP status for c. Unknown codes are treated as internal.
func (c Code) Status() int {
	if e, ok := codeTable[c]; ok {
		return e.status
	}
	return http.StatusInternalServerError
}

// Error is the structured error understood by the router. Msg is safe to show
// to clients; the wrapped cause is only logged.
type Error struct {
	cause      error
	msg        string
	kind       Type
	code       Code
	fields     map[string]string
	data       map[string]any
	retryAfter time.Duration
}

func (e *Error) Error() string {
	switch {
	case e.cause != nil:
		return e.cause.Error()
	case e.msg != "":
		return e.msg
	}
	return e.kind.String()
}

// String is the verbose form used in logs.
func (e *Error) String() string {
	return fmt.Sprintf("type=%s code=%s msg=%q cause=%v", e.kind, e.code, e.msg, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Msg() string               { return e.msg }
func (e *Error) Type() Type                { return e.kind }
func (e *Error) Code() Code                { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Data() map[string]any      { return e.data }
func (e *Error) RetryAfter() time.Duration { return e.retryAfter }
func (e *Error) StatusCode() int           { return e.code.Status() }

// NewServer wraps an unexpected failure behind a generic message.
func NewServer(err error) error {
	return NewServerWithMsg(err, "Internal server error")
}

// NewServerWithMsg wraps an unexpected failure behind msg.
func NewServerWithMsg(err error, msg string) error {
	return &Error{cause: err, msg: msg, kind: TypeServer, code: CodeInternal}
}

// NewBusiness reports a rule the request did not satisfy.
func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, kind: TypeBusiness, code: code}
}

// NewBusinessWithData is NewBusiness with response data, for example the
// number of attempts left. data is copied.
func NewBusinessWithData(msg string, code Code, data map[string]any) error {
	return &Error{msg: msg, kind: TypeBusiness, code: code, data: maps.Clone(data)}
}

// NewTooManyRequest reports a rate limit rejection. The router turns
// retryAfter into a Retry-After header rounded up to whole seconds.
func NewTooManyRequest(msg string, retryAfter time.Duration, data map[string]any) error {
	return &Error{
		msg:        msg,
		kind:       TypeBusiness,
		code:       CodeTooManyRequest,
		data:       maps.Clone(data),
		retryAfter: retryAfter,
	}
}

// NewInvalidInput reports a validation failure. With a non-nil err (usually
// from the validator) the field errors come from err; otherwise kv is read as
// field/message pairs. An odd kv is a programming mistake and yields an
// invalid format error.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{cause: err, msg: "Validation error", kind: TypeValidation, code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return &Error{msg: "Validation error", kind: TypeValidation, code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat reports a body that could not be decoded. The first msg,
// when given, replaces the default message.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &Error{msg: msg, kind: TypeValidation, code: CodeInvalidFormat}
}
