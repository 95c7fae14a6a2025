package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

const (
	// General errors
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Rule errors
	ErrInvalidPattern ErrorCode = "INVALID_PATTERN"
	ErrInvalidRange   ErrorCode = "INVALID_RANGE"
	ErrParse          ErrorCode = "PARSE_ERROR"
	ErrLoad           ErrorCode = "LOAD_ERROR"

	// FileSystem errors
	ErrIO         ErrorCode = "IO_ERROR"
	ErrPathEscape ErrorCode = "PATH_ESCAPE"
	ErrFileTooBig ErrorCode = "FILE_TOO_BIG"

	// Graph errors
	ErrGraph ErrorCode = "GRAPH"
)

// Detail keys shared across packages
const (
	DetailPath      = "path"
	DetailRule      = "rule"
	DetailFramework = "framework"
	DetailPattern   = "pattern"
	DetailValue     = "value"
	DetailLimit     = "limit"
	DetailLine      = "line"
	DetailColumn    = "column"
	DetailSource    = "source"
	DetailField     = "field"
)

// DannyError is a structured error with a stable code and details
type DannyError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

func (e *DannyError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DannyError) Unwrap() error {
	return e.Wrapped
}

// Is matches on error code so sentinel comparisons work with errors.Is
func (e *DannyError) Is(target error) bool {
	var targetErr *DannyError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new DannyError with the given code and message
func New(code ErrorCode, message string) *DannyError {
	return &DannyError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new DannyError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *DannyError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps err under code. Returns nil for a nil err.
func Wrap(err error, code ErrorCode, message string) *DannyError {
	if err == nil {
		return nil
	}
	e := New(code, message)
	e.Wrapped = err
	return e
}

// Wrapf wraps err with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *DannyError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithDetail adds a detail to the error
func (e *DannyError) WithDetail(key string, value interface{}) *DannyError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *DannyError) WithDetails(details map[string]interface{}) *DannyError {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// IsErrorCode reports whether any error in err's chain carries code
func IsErrorCode(err error, code ErrorCode) bool {
	for err != nil {
		var dErr *DannyError
		if !errors.As(err, &dErr) {
			return false
		}
		if dErr.Code == code {
			return true
		}
		err = dErr.Wrapped
	}
	return false
}

// GetErrorCode returns the outermost error code, or ErrUnknown
func GetErrorCode(err error) ErrorCode {
	var dErr *DannyError
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails merges details along the chain. Outer errors win on key clashes.
func GetErrorDetails(err error) map[string]interface{} {
	var chain []*DannyError
	for err != nil {
		var dErr *DannyError
		if !errors.As(err, &dErr) {
			break
		}
		chain = append(chain, dErr)
		err = dErr.Wrapped
	}
	if len(chain) == 0 {
		return nil
	}
	details := make(map[string]interface{})
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].Details {
			details[k] = v
		}
	}
	return details
}
