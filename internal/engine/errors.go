package engine

import (
	"errors"
	"fmt"
)

// Code identifies one entry of the engine error taxonomy. Codes distinguish
// "plan malformed" from "function contract violated" so the caller can decide
// whether to re-prompt, retry, or surface the failure.
type Code string

const (
	CodeInvalidPlanSchema    Code = "InvalidPlanSchema"
	CodeUnknownFunction      Code = "UnknownFunction"
	CodeContractViolation    Code = "ContractViolation"
	CodeNoAlignmentAnchor    Code = "NoAlignmentAnchor"
	CodeConvergedIndexEmpty  Code = "ConvergedIndexEmpty"
	CodeOperandCountMismatch Code = "OperandCountMismatch"
	CodeLengthMismatch       Code = "LengthMismatch"
	CodeDuplicateIdentifier  Code = "DuplicateIdentifier"
	CodeInvalidContract      Code = "InvalidContract"
)

// Error is a typed engine error carrying its taxonomy code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errf creates a typed engine error with formatting.
func Errf(code Code, format string, a ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

// Wrap wraps an underlying error with a taxonomy code.
func Wrap(code Code, err error, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the taxonomy code from err, or "" if err is not an engine
// error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given taxonomy code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Retryable reports whether a failed operation may be retried. Only contract
// violations are retryable: they isolate flaky externally-supplied functions.
// Malformed plans, unknown functions, and alignment errors fail immediately.
func Retryable(err error) bool {
	return IsCode(err, CodeContractViolation)
}
