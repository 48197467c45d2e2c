package cfu

import (
	"errors"
	"fmt"
)

// Status represents a CFU operation status code
type Status int

const (
	StatusSuccess          Status = 0
	StatusUninitialized    Status = 1
	StatusInvalidArgument  Status = 2
	StatusCapacityExceeded Status = 3
	StatusSequenceError    Status = 4
	StatusFifoEmpty        Status = 5
	StatusFifoOverflow     Status = 6
	StatusDeviceFailure    Status = 7
	StatusNotFound         Status = 8
	StatusVerifyMismatch   Status = 9
)

var statusMessages = map[Status]string{
	StatusSuccess:          "success",
	StatusUninitialized:    "uninitialized",
	StatusInvalidArgument:  "invalid argument",
	StatusCapacityExceeded: "on-chip capacity exceeded",
	StatusSequenceError:    "operation out of sequence",
	StatusFifoEmpty:        "output FIFO empty",
	StatusFifoOverflow:     "output FIFO overflow",
	StatusDeviceFailure:    "device operation failed",
	StatusNotFound:         "not found",
	StatusVerifyMismatch:   "register file verify mismatch",
}

// String returns the human-readable status message
func (s Status) String() string {
	if msg, ok := statusMessages[s]; ok {
		return msg
	}
	return fmt.Sprintf("unknown status (%d)", int(s))
}

// CfuError represents an error from the CFU device layer or the driver
type CfuError struct {
	Status  Status
	Context string
	Cause   error
}

// Error implements the error interface
func (e *CfuError) Error() string {
	if e.Context != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s: %v", e.Context, e.Status.String(), e.Cause)
		}
		return fmt.Sprintf("%s: %s", e.Context, e.Status.String())
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Status.String(), e.Cause)
	}
	return e.Status.String()
}

// Unwrap returns the underlying cause
func (e *CfuError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target status
func (e *CfuError) Is(target error) bool {
	var cfuErr *CfuError
	if errors.As(target, &cfuErr) {
		return e.Status == cfuErr.Status
	}
	return false
}

// NewError creates a new CfuError with the given status
func NewError(status Status, context string) *CfuError {
	return &CfuError{
		Status:  status,
		Context: context,
	}
}

// NewErrorWithCause creates a new CfuError with an underlying cause
func NewErrorWithCause(status Status, context string, cause error) *CfuError {
	return &CfuError{
		Status:  status,
		Context: context,
		Cause:   cause,
	}
}
