package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ClassifyError maps storage and context errors to shell error codes
func ClassifyError(err error) ErrorCode {
	if err == nil {
		return ErrCodeUnknown
	}

	if code := classifySQLiteError(err); code != ErrCodeUnknown {
		return code
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrCodeNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrCodeTimeout
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "database is locked"):
		return ErrCodeBusy
	case strings.Contains(errStr, "database disk image is malformed"):
		return ErrCodeCorruption
	case strings.Contains(errStr, "no such table"), strings.Contains(errStr, "no such column"):
		return ErrCodeSchema
	case strings.Contains(errStr, "permission denied"), strings.Contains(errStr, "access denied"):
		return ErrCodePermission
	case strings.Contains(errStr, "no space left"), strings.Contains(errStr, "disk full"):
		return ErrCodeDiskSpace
	default:
		return ErrCodeUnknown
	}
}

// WrapStorageError wraps a storage failure, classifying it on the way.
// Unclassified failures are reported as ErrCodeStorage.
func WrapStorageError(op string, err error, context map[string]string) error {
	if err == nil {
		return nil
	}
	code := ClassifyError(err)
	if code == ErrCodeUnknown {
		code = ErrCodeStorage
	}
	return NewWithContext(op, err, code, context)
}

// HandleNotFound creates a standardized not found error
func HandleNotFound(op, resource, identifier string) error {
	return NewWithContext(op, fmt.Errorf("%s not found", resource), ErrCodeNotFound, map[string]string{
		"resource":   resource,
		"identifier": identifier,
	})
}

// HandleValidationError creates a standardized validation error
func HandleValidationError(op, field, value, reason string) error {
	return NewWithContext(op, fmt.Errorf("validation failed for %s: %s", field, reason), ErrCodeValidation, map[string]string{
		"field": field,
		"value": value,
	})
}

// HandlePlatformError wraps a failed OS integration call
func HandlePlatformError(op, feature string, err error) error {
	if err == nil {
		return nil
	}
	return NewWithContext(op, err, ErrCodePlatform, map[string]string{
		"feature": feature,
	})
}
