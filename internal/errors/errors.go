package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

type ErrorCode string

const (
	CodeInternal ErrorCode = "INTERNAL_ERROR"
	CodeConfig   ErrorCode = "CONFIG_ERROR"
	CodeLoad     ErrorCode = "LOAD_ERROR"
	CodeAnalyze  ErrorCode = "ANALYZE_ERROR"
	CodeRender   ErrorCode = "RENDER_ERROR"
	CodeRelabel  ErrorCode = "RELABEL_ERROR"
)

type AppError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Cause     error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Cause:     err,
		Timestamp: time.Now().UTC(),
	}
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

func InternalWrap(err error, message string) *AppError {
	return Wrap(err, CodeInternal, message)
}

func Config(message string) *AppError {
	return New(CodeConfig, message)
}

func ConfigWrap(err error, message string) *AppError {
	return Wrap(err, CodeConfig, message)
}

func Load(message string) *AppError {
	return New(CodeLoad, message)
}

func LoadWrap(err error, message string) *AppError {
	return Wrap(err, CodeLoad, message)
}

func Analyze(message string) *AppError {
	return New(CodeAnalyze, message)
}

func RenderWrap(err error, message string) *AppError {
	return Wrap(err, CodeRender, message)
}

func RelabelWrap(err error, message string) *AppError {
	return Wrap(err, CodeRelabel, message)
}

// ExitCode maps an error to the process exit code for the batch run.
// Unknown errors fall back to the generic failure code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return 1
	}

	switch appErr.Code {
	case CodeConfig:
		return 2
	case CodeLoad:
		return 3
	case CodeAnalyze:
		return 4
	case CodeRender:
		return 5
	case CodeRelabel:
		return 6
	default:
		return 1
	}
}
