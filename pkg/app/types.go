package app

import (
	"errors"
	"fmt"
)

// CommonError represents application-level errors
type CommonError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CommonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CommonError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeInputAccess  = "INPUT_ACCESS"
	ErrCodeDecode       = "DECODE_FAILED"
	ErrCodeInconsistent = "INCONSISTENT"
	ErrCodeOutputWrite  = "OUTPUT_WRITE"
)

// NewError creates a new CommonError
func NewError(code, message string, cause error) *CommonError {
	return &CommonError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode returns the code of the first CommonError in err's chain, or ""
func ErrorCode(err error) string {
	var ce *CommonError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// ByteSize is a byte count with human readable formatting
type ByteSize int64

// String returns a human-readable size string
func (b ByteSize) String() string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", int64(b))
	}
	div, exp := int64(unit), 0
	for n := int64(b) / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
