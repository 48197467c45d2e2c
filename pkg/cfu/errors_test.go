//go:build unit

package cfu

import (
	"errors"
	"fmt"
	"testing"
)

func TestStatusString(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusSuccess, "success"},
		{StatusCapacityExceeded, "on-chip capacity exceeded"},
		{StatusSequenceError, "operation out of sequence"},
		{StatusFifoEmpty, "output FIFO empty"},
		{Status(99), "unknown status (99)"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.expected {
			t.Errorf("Status(%d).String() = %q, expected %q", tt.status, got, tt.expected)
		}
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *CfuError
		expected string
	}{
		{
			"status only",
			NewError(StatusFifoEmpty, ""),
			"output FIFO empty",
		},
		{
			"with context",
			NewError(StatusCapacityExceeded, "filter load"),
			"filter load: on-chip capacity exceeded",
		},
		{
			"with cause",
			NewErrorWithCause(StatusDeviceFailure, "mapping CFU window", errors.New("boom")),
			"mapping CFU window: device operation failed: boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewError(StatusSequenceError, "advance"))
	if !errors.Is(err, NewError(StatusSequenceError, "different context")) {
		t.Error("errors.Is should match on status regardless of context")
	}
	if errors.Is(err, NewError(StatusFifoEmpty, "")) {
		t.Error("errors.Is should not match a different status")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewErrorWithCause(StatusDeviceFailure, "ctx", cause)
	if !errors.Is(err, cause) {
		t.Error("wrapped cause should be reachable through Unwrap")
	}
}
