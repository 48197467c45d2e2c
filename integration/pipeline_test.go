//go:build integration

package integration

import (
	"bytes"
	"strings"
	"testing"

	"github.com/emergingrobotics/go-hps-accel/pkg/cfu"
	"github.com/emergingrobotics/go-hps-accel/pkg/conv"
	"github.com/emergingrobotics/go-hps-accel/pkg/convcase"
	"github.com/emergingrobotics/go-hps-accel/pkg/harness"
	"github.com/emergingrobotics/go-hps-accel/pkg/sim"
	"github.com/emergingrobotics/go-hps-accel/testutil"
)

// Full pipeline: synthesize a case, write it to a container file, parse it
// back and run it through the harness on the functional model.
func TestCaseFilePipeline(t *testing.T) {
	params := testutil.DefaultParams()
	inputShape := conv.Shape{Batches: 1, Height: 8, Width: 8, Channels: 4}
	filterShape := conv.Shape{Batches: 8, Height: 4, Width: 4, Channels: 4}
	c := testutil.BuildCase(t, "pipeline", params, inputShape, filterShape, 101)

	path := testutil.TempCaseFile(t, c)
	parsed, err := convcase.Parse(path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var out bytes.Buffer
	result, err := harness.Run(&out, sim.New(cfu.Gen1), cfu.Gen1, parsed)
	if err != nil {
		t.Fatalf("harness run failed: %v", err)
	}
	if !result.Pass() {
		t.Errorf("pipeline case failed with %d mismatches:\n%s",
			result.Mismatches, out.String())
	}
	if !result.Accelerated {
		t.Error("pipeline case should take the accelerated path")
	}
	if !strings.Contains(out.String(), "Testing Conv2D pipeline") {
		t.Errorf("missing case banner in output:\n%s", out.String())
	}
}

// A case the accelerator cannot take must still pass through the harness on
// the reference path after a file round trip.
func TestCaseFilePipelineReferencePath(t *testing.T) {
	params := testutil.DefaultParams()
	params.Padding = conv.PaddingSame
	inputShape := conv.Shape{Batches: 1, Height: 8, Width: 8, Channels: 4}
	filterShape := conv.Shape{Batches: 8, Height: 4, Width: 4, Channels: 4}
	c := testutil.BuildCase(t, "reference-path", params, inputShape, filterShape, 103)

	path := testutil.TempCaseFile(t, c)
	parsed, err := convcase.Parse(path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var out bytes.Buffer
	result, err := harness.Run(&out, sim.New(cfu.Gen1), cfu.Gen1, parsed)
	if err != nil {
		t.Fatalf("harness run failed: %v", err)
	}
	if !result.Pass() {
		t.Errorf("reference case failed with %d mismatches", result.Mismatches)
	}
	if result.Accelerated {
		t.Error("same-padding case must not report acceleration")
	}
}

// Both gateware generations must agree with the reference path; gen2's
// larger stores only change the tiling, never the numbers.
func TestGenerationsAgree(t *testing.T) {
	params := testutil.DefaultParams()
	inputShape := conv.Shape{Batches: 1, Height: 6, Width: 6, Channels: 8}
	filterShape := conv.Shape{Batches: 68, Height: 4, Width: 4, Channels: 8}
	c := testutil.BuildCase(t, "generations", params, inputShape, filterShape, 107)

	for _, gen := range []cfu.Generation{cfu.Gen1, cfu.Gen2} {
		var out bytes.Buffer
		result, err := harness.Run(&out, sim.New(gen), gen, c)
		if err != nil {
			t.Fatalf("%s: harness run failed: %v", gen.Name, err)
		}
		if !result.Pass() {
			t.Errorf("%s: %d mismatches:\n%s", gen.Name, result.Mismatches, out.String())
		}
	}
}
