package common

import (
	"errors"
	"fmt"
)

// Code identifies a failure kind. Every operation in this module reports
// failures through an AppError so callers can branch on the kind without
// string matching.
type Code string

const (
	CodeUnknown            Code = "UNKNOWN"
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeDuplicateRequest   Code = "DUPLICATE_REQUEST"
	CodeNotFound           Code = "NOT_FOUND"
	CodeIntegrityViolation Code = "INTEGRITY_VIOLATION"
	CodeStoreUnavailable   Code = "STORE_UNAVAILABLE"
	CodeTimeout            Code = "TIMEOUT"
	CodeUploadFailed       Code = "UPLOAD_FAILED"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	if cause == nil {
		return New(code, message)
	}
	return &AppError{Code: code, Message: message, Cause: cause}
}

func InvalidInput(msg string) error { return New(CodeInvalidInput, msg) }

func DuplicateRequest(msg string) error { return New(CodeDuplicateRequest, msg) }

func NotFound(msg string) error { return New(CodeNotFound, msg) }

func IntegrityViolation(msg string) error { return New(CodeIntegrityViolation, msg) }

func StoreUnavailable(msg string, cause error) error {
	return Wrap(CodeStoreUnavailable, msg, cause)
}

func UploadFailed(msg string, cause error) error {
	return Wrap(CodeUploadFailed, msg, cause)
}

// CodeOf extracts the failure kind from err, walking wrapped causes.
// Non-AppError values report CodeUnknown.
func CodeOf(err error) Code {
	var app *AppError
	if errors.As(err, &app) {
		return app.Code
	}
	return CodeUnknown
}
