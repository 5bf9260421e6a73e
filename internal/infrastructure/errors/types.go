package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrorCode classifies failures raised inside the shell
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeNotFound
	ErrCodeStorage
	ErrCodeBusy
	ErrCodeCorruption
	ErrCodePermission
	ErrCodeDiskSpace
	ErrCodeSchema
	ErrCodeTimeout
	ErrCodeValidation
	ErrCodeNavigation
	ErrCodeCertificate
	ErrCodePlatform
	ErrCodeInternal
)

// String returns a string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeNotFound:
		return "NOT_FOUND"
	case ErrCodeStorage:
		return "STORAGE"
	case ErrCodeBusy:
		return "BUSY"
	case ErrCodeCorruption:
		return "CORRUPTION"
	case ErrCodePermission:
		return "PERMISSION"
	case ErrCodeDiskSpace:
		return "DISK_SPACE"
	case ErrCodeSchema:
		return "SCHEMA"
	case ErrCodeTimeout:
		return "TIMEOUT"
	case ErrCodeValidation:
		return "VALIDATION"
	case ErrCodeNavigation:
		return "NAVIGATION"
	case ErrCodeCertificate:
		return "CERTIFICATE"
	case ErrCodePlatform:
		return "PLATFORM"
	case ErrCodeInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// ShellError carries an operation name, a classification and free-form context
type ShellError struct {
	Op        string            // operation name
	Err       error             // underlying error
	Code      ErrorCode         // error classification
	Context   map[string]string // additional context information
	Timestamp time.Time         // when the error occurred
}

func (e *ShellError) Error() string {
	if e == nil {
		return "shell error"
	}

	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}

	if e.Code != ErrCodeUnknown {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code.String()))
	}

	// Context keys are sorted for deterministic output
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, e.Context[k]))
		}
	}

	contextStr := ""
	if len(parts) > 0 {
		contextStr = fmt.Sprintf(" [%s]", strings.Join(parts, " "))
	}

	if e.Err != nil {
		return e.Err.Error() + contextStr
	}
	return "shell error" + contextStr
}

func (e *ShellError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *ShellError by code, or the wrapped error
func (e *ShellError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*ShellError); ok {
		return e.Code == t.Code
	}
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

// IsRetryable reports whether repeating the operation may succeed
func (e *ShellError) IsRetryable() bool {
	if e == nil {
		return false
	}
	switch e.Code {
	case ErrCodeBusy, ErrCodeTimeout:
		return true
	default:
		return false
	}
}

// GetCode returns the error code as a string (for the logging interface)
func (e *ShellError) GetCode() string {
	if e == nil {
		return ErrCodeUnknown.String()
	}
	return e.Code.String()
}

// GetContext returns the error context (for the logging interface)
func (e *ShellError) GetContext() map[string]string {
	if e == nil || e.Context == nil {
		return make(map[string]string)
	}
	return e.Context
}

// GetTimestamp returns the error timestamp (for the logging interface)
func (e *ShellError) GetTimestamp() time.Time {
	if e == nil {
		return time.Time{}
	}
	return e.Timestamp
}

// New creates a shell error
func New(op string, err error, code ErrorCode) *ShellError {
	return &ShellError{
		Op:        op,
		Err:       err,
		Code:      code,
		Context:   make(map[string]string),
		Timestamp: time.Now(),
	}
}

// NewWithContext creates a shell error with a copy of context
func NewWithContext(op string, err error, code ErrorCode, context map[string]string) *ShellError {
	shellErr := New(op, err, code)
	for k, v := range context {
		shellErr.Context[k] = v
	}
	return shellErr
}

func hasCode(err error, code ErrorCode) bool {
	var shellErr *ShellError
	if errors.As(err, &shellErr) {
		return shellErr.Code == code
	}
	return false
}

// IsNotFound checks if the error is a "not found" error
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool { return hasCode(err, ErrCodeValidation) }

// IsCertificate checks if the error is a rejected certificate
func IsCertificate(err error) bool { return hasCode(err, ErrCodeCertificate) }

// IsPlatform checks if the error came from an OS integration
func IsPlatform(err error) bool { return hasCode(err, ErrCodePlatform) }

// IsRetryable checks if the error is retryable
func IsRetryable(err error) bool {
	var shellErr *ShellError
	if errors.As(err, &shellErr) {
		return shellErr.IsRetryable()
	}
	return false
}
