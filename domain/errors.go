package domain

import (
	"errors"
	"fmt"
)

// ErrCode classifies a DomainError for callers that branch on failure
// kind rather than message text.
type ErrCode string

const (
	ErrCodeInvalidInput      ErrCode = "INVALID_INPUT"
	ErrCodeFileNotFound      ErrCode = "FILE_NOT_FOUND"
	ErrCodeParseError        ErrCode = "PARSE_ERROR"
	ErrCodeAnalysisError     ErrCode = "ANALYSIS_ERROR"
	ErrCodeConfigError       ErrCode = "CONFIG_ERROR"
	ErrCodeOutputError       ErrCode = "OUTPUT_ERROR"
	ErrCodeUnsupportedFormat ErrCode = "UNSUPPORTED_FORMAT"
)

// DomainError is the error type crossing layer boundaries. Cause is
// preserved for errors.Is/As chains.
type DomainError struct {
	Code    ErrCode
	Message string
	Cause   error
}

func (e DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e DomainError) Unwrap() error {
	return e.Cause
}

// CodeOf extracts the ErrCode from an error chain; the empty string
// means no DomainError was found.
func CodeOf(err error) ErrCode {
	var de DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// NewDomainError creates a coded error wrapping an optional cause.
func NewDomainError(code ErrCode, message string, cause error) error {
	return DomainError{Code: code, Message: message, Cause: cause}
}

// NewInvalidInputError reports malformed caller input.
func NewInvalidInputError(message string, cause error) error {
	return NewDomainError(ErrCodeInvalidInput, message, cause)
}

// NewFileNotFoundError reports a missing or unreadable path.
func NewFileNotFoundError(path string, cause error) error {
	return NewDomainError(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path), cause)
}

// NewParseError reports a file that could not be parsed, including
// parse timeouts.
func NewParseError(file string, cause error) error {
	return NewDomainError(ErrCodeParseError, fmt.Sprintf("failed to parse file: %s", file), cause)
}

// NewAnalysisError reports a failure inside the extraction pipeline.
func NewAnalysisError(message string, cause error) error {
	return NewDomainError(ErrCodeAnalysisError, message, cause)
}

// NewConfigError reports an unreadable or invalid configuration.
func NewConfigError(message string, cause error) error {
	return NewDomainError(ErrCodeConfigError, message, cause)
}

// NewOutputError reports a report formatting or writing failure.
func NewOutputError(message string, cause error) error {
	return NewDomainError(ErrCodeOutputError, message, cause)
}

// NewUnsupportedFormatError reports an unknown output format name.
func NewUnsupportedFormatError(format string) error {
	return NewDomainError(ErrCodeUnsupportedFormat, fmt.Sprintf("unsupported format: %s", format), nil)
}

// NewValidationError reports a request that failed Validate.
func NewValidationError(message string) error {
	return NewDomainError(ErrCodeInvalidInput, message, nil)
}
