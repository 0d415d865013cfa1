package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode identifies a class of failure.
type ErrorCode int

// Codes are grouped by area.
const (
	// common (1000-1999)
	ErrUnknown      ErrorCode = 1000
	ErrInvalidParam ErrorCode = 1001
	ErrNotFound     ErrorCode = 1002

	// conversation (2000-2999)
	ErrForbidden        ErrorCode = 2000
	ErrBanned           ErrorCode = 2001
	ErrNoActiveSession  ErrorCode = 2002
	ErrSessionChanged   ErrorCode = 2004
	ErrCursorOutOfRange ErrorCode = 2005
	ErrCatalogChanged   ErrorCode = 2006
	ErrSelectionExpired ErrorCode = 2007
	ErrInvalidToken     ErrorCode = 2008

	// transport (3000-3999)
	ErrTelegramRequest  ErrorCode = 3000
	ErrTelegramResponse ErrorCode = 3001
	ErrLockUnavailable  ErrorCode = 3002

	// database (5000-5999)
	ErrDatabaseConnect ErrorCode = 5000
	ErrDatabaseQuery   ErrorCode = 5001
	ErrDatabaseInsert  ErrorCode = 5002
	ErrDatabaseUpdate  ErrorCode = 5003
	ErrTransaction     ErrorCode = 5005

	// config (6000-6999)
	ErrConfigLoad    ErrorCode = 6000
	ErrConfigMissing ErrorCode = 6003

	// security (7000-7999)
	ErrAuthentication ErrorCode = 7000
	ErrTokenExpired   ErrorCode = 7002
	ErrTokenInvalid   ErrorCode = 7003
)

var errorMessages = map[ErrorCode]string{
	ErrUnknown:      "unknown error",
	ErrInvalidParam: "invalid parameter",
	ErrNotFound:     "not found",

	ErrForbidden:        "admin role required",
	ErrBanned:           "user is banned",
	ErrNoActiveSession:  "no active session",
	ErrSessionChanged:   "session changed",
	ErrCursorOutOfRange: "question index out of range",
	ErrCatalogChanged:   "question catalog changed",
	ErrSelectionExpired: "selection is not active",
	ErrInvalidToken:     "invalid selector token",

	ErrTelegramRequest:  "telegram request failed",
	ErrTelegramResponse: "telegram returned an error",
	ErrLockUnavailable:  "user lock unavailable",

	ErrDatabaseConnect: "database connect failed",
	ErrDatabaseQuery:   "database query failed",
	ErrDatabaseInsert:  "database insert failed",
	ErrDatabaseUpdate:  "database update failed",
	ErrTransaction:     "transaction failed",

	ErrConfigLoad:    "config load failed",
	ErrConfigMissing: "config value missing",

	ErrAuthentication: "authentication failed",
	ErrTokenExpired:   "token expired",
	ErrTokenInvalid:   "token invalid",
}

// AppError is the error type carried across service boundaries.
type AppError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details"`
	Cause   error        `json:"-"`
	Stack   []StackFrame `json:"stack,omitempty"`
}

// StackFrame is one captured caller.
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates an AppError for code.
func New(code ErrorCode, details ...string) *AppError {
	message, ok := errorMessages[code]
	if !ok {
		message = errorMessages[ErrUnknown]
	}

	err := &AppError{
		Code:    code,
		Message: message,
	}

	if len(details) > 0 {
		err.Details = strings.Join(details, "; ")
	}

	err.captureStack(2)

	return err
}

// Newf creates an AppError with formatted details.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches code to err. An AppError keeps its own code.
func Wrap(err error, code ErrorCode, details ...string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		if len(details) > 0 {
			appErr.Details = strings.Join(details, "; ") + "; " + appErr.Details
		}
		return appErr
	}

	appErr = New(code, details...)
	appErr.Cause = err
	if appErr.Details == "" {
		appErr.Details = err.Error()
	}

	return appErr
}

// Wrapf wraps err with formatted details.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Is reports whether err (or anything it wraps) is an AppError with code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}

// GetCode returns the code of err, ErrUnknown for foreign errors and 0 for nil.
func GetCode(err error) ErrorCode {
	if err == nil {
		return 0
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}

	return ErrUnknown
}

// IsUserFacing reports whether err is a conversation error that should be
// answered with a message instead of failing the update.
func IsUserFacing(err error) bool {
	code := GetCode(err)
	return code >= 2000 && code <= 2999
}

// ClearsState reports whether a conversation error invalidates the pending flow.
func ClearsState(err error) bool {
	switch GetCode(err) {
	case ErrSessionChanged, ErrCursorOutOfRange, ErrCatalogChanged, ErrNoActiveSession:
		return true
	default:
		return false
	}
}

func (e *AppError) captureStack(skip int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)
	if n == 0 {
		return
	}

	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()

		if strings.Contains(frame.Function, "runtime.") ||
			strings.Contains(frame.Function, "tgjournals/internal/errors.") {
			if !more {
				break
			}
			continue
		}

		e.Stack = append(e.Stack, StackFrame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})

		if !more || len(e.Stack) >= 10 {
			break
		}
	}
}

// HTTPStatus maps the code to an HTTP status.
func (e *AppError) HTTPStatus() int {
	switch {
	case e.Code == ErrInvalidParam || e.Code == ErrInvalidToken:
		return 400
	case e.Code == ErrNotFound || e.Code == ErrNoActiveSession:
		return 404
	case e.Code == ErrForbidden || e.Code == ErrBanned:
		return 403
	case e.Code >= 7000 && e.Code <= 7003:
		return 401
	case e.Code >= 5000 && e.Code <= 5999:
		return 503
	default:
		return 500
	}
}

// ErrorResponse is the JSON body of a failed HTTP request.
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     *AppError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// NewErrorResponse builds an ErrorResponse.
func NewErrorResponse(err *AppError, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     err,
		RequestID: requestID,
		Timestamp: time.Now().Unix(),
	}
}
