package testutil

import (
	"os"
	"testing"

	"github.com/emergingrobotics/go-hps-accel/pkg/conv"
	"github.com/emergingrobotics/go-hps-accel/pkg/convcase"
)

// SkipIfNoCfu skips the test if no CFU register window is present
func SkipIfNoCfu(t *testing.T) string {
	t.Helper()

	windows := []string{"/dev/uio0", "/dev/uio1"}
	for _, path := range windows {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Skip("No CFU register window available")
	return ""
}

// DefaultParams returns valid-padding stride-1 parameters with typical
// quantization offsets
func DefaultParams() conv.Params {
	return conv.Params{
		Padding:        conv.PaddingValid,
		StrideHeight:   1,
		StrideWidth:    1,
		DilationHeight: 1,
		DilationWidth:  1,
		InputOffset:    128,
		OutputOffset:   -3,
		ActivationMin:  -128,
		ActivationMax:  127,
	}
}

// BuildCase assembles a full convolution case with deterministic tensors
// and a golden output from the reference path, failing the test on error
func BuildCase(t *testing.T, name string, params conv.Params, inputShape, filterShape conv.Shape, seed int64) *convcase.Case {
	t.Helper()

	c, err := convcase.Synthesize(name, params, inputShape, filterShape, seed)
	if err != nil {
		t.Fatalf("case synthesis failed: %v", err)
	}
	return c
}

// TempCaseFile writes a case to a file in a test temp directory
func TempCaseFile(t *testing.T, c *convcase.Case) string {
	t.Helper()

	path := t.TempDir() + "/" + c.Name + ".ccf"
	if err := convcase.WriteFile(path, c); err != nil {
		t.Fatalf("failed to write case file: %v", err)
	}
	return path
}

// AssertInt8Equal checks two int8 slices element for element
func AssertInt8Equal(t *testing.T, got, want []int8, msg string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%s: length mismatch: got %d, want %d", msg, len(got), len(want))
		return
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("%s: mismatch at index %d: got %d, want %d", msg, i, got[i], want[i])
			return
		}
	}
}
