// Package conv implements per-channel quantized 2D convolution with
// hardware offload: an eligibility check decides whether a convolution fits
// the accelerator pipeline, a tiling scheduler partitions output channels to
// fit on-chip filter storage, and the pipeline driver sequences the device
// operations. Convolutions the hardware cannot handle run through the
// portable reference path, which is also the golden oracle for validation.
package conv

import (
	"fmt"

	"github.com/emergingrobotics/go-hps-accel/pkg/cfu"
)

// PaddingMode selects how input boundaries are handled
type PaddingMode uint32

const (
	// PaddingValid applies no implicit zero-padding; the output shrinks
	// by the kernel extent minus one. The only mode the accelerator
	// supports.
	PaddingValid PaddingMode = 0
	// PaddingSame pads so the output spatial size equals
	// ceil(input/stride). Reference path only.
	PaddingSame PaddingMode = 1
)

func (p PaddingMode) String() string {
	switch p {
	case PaddingValid:
		return "valid"
	case PaddingSame:
		return "same"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(p))
	}
}

// Shape is a 4-dimensional NHWC tensor shape
type Shape struct {
	Batches  int
	Height   int
	Width    int
	Channels int
}

// FlatSize returns the total element count
func (s Shape) FlatSize() int {
	return s.Batches * s.Height * s.Width * s.Channels
}

// Offset returns the flat index of element (b, y, x, c)
func (s Shape) Offset(b, y, x, c int) int {
	return ((b*s.Height+y)*s.Width+x)*s.Channels + c
}

// Params holds the convolution parameters shared by both execution paths
type Params struct {
	Padding        PaddingMode
	PaddingHeight  int // explicit top pad, reference path only
	PaddingWidth   int // explicit left pad, reference path only
	StrideHeight   int
	StrideWidth    int
	DilationHeight int
	DilationWidth  int
	InputOffset    int32 // input zero-point offset, r = s(q - Z)
	OutputOffset   int32 // output zero-point offset
	ActivationMin  int32
	ActivationMax  int32
}

// PerChannelQuant holds the per-output-channel requantization parameters:
// parallel multiplier and shift arrays, one pair per output channel.
type PerChannelQuant struct {
	Multiplier []int32
	Shift      []int32
}

// OutputShape derives the output shape of a convolution from the input and
// filter shapes and the parameters.
func OutputShape(params Params, input, filter Shape) Shape {
	dilatedH := params.DilationHeight*(filter.Height-1) + 1
	dilatedW := params.DilationWidth*(filter.Width-1) + 1
	var outH, outW int
	switch params.Padding {
	case PaddingSame:
		outH = (input.Height + params.StrideHeight - 1) / params.StrideHeight
		outW = (input.Width + params.StrideWidth - 1) / params.StrideWidth
	default:
		outH = (input.Height - dilatedH + params.StrideHeight) / params.StrideHeight
		outW = (input.Width - dilatedW + params.StrideWidth) / params.StrideWidth
	}
	return Shape{
		Batches:  input.Batches,
		Height:   outH,
		Width:    outW,
		Channels: filter.Batches,
	}
}

// checkArgs validates tensor shapes and buffers against each other. Both
// execution paths run the same checks.
func checkArgs(params Params, q PerChannelQuant,
	inputShape Shape, input []int8,
	filterShape Shape, filter []int8,
	bias []int32,
	outputShape Shape, output []int8) error {

	if params.StrideHeight < 1 || params.StrideWidth < 1 {
		return cfu.NewError(cfu.StatusInvalidArgument, "stride must be at least 1")
	}
	if params.DilationHeight < 1 || params.DilationWidth < 1 {
		return cfu.NewError(cfu.StatusInvalidArgument, "dilation must be at least 1")
	}
	if params.ActivationMin > params.ActivationMax {
		return cfu.NewError(cfu.StatusInvalidArgument, "activation min above max")
	}
	if inputShape.Batches != outputShape.Batches {
		return cfu.NewError(cfu.StatusInvalidArgument, "input/output batch mismatch")
	}
	if inputShape.Channels != filterShape.Channels {
		return cfu.NewError(cfu.StatusInvalidArgument, "input/filter depth mismatch")
	}
	if filterShape.Batches != outputShape.Channels {
		return cfu.NewError(cfu.StatusInvalidArgument, "filter/output channel mismatch")
	}
	if len(input) < inputShape.FlatSize() {
		return cfu.NewError(cfu.StatusInvalidArgument, "input buffer too small")
	}
	if len(filter) < filterShape.FlatSize() {
		return cfu.NewError(cfu.StatusInvalidArgument, "filter buffer too small")
	}
	if len(output) < outputShape.FlatSize() {
		return cfu.NewError(cfu.StatusInvalidArgument, "output buffer too small")
	}
	if bias != nil && len(bias) < outputShape.Channels {
		return cfu.NewError(cfu.StatusInvalidArgument, "bias buffer too small")
	}
	if len(q.Multiplier) < outputShape.Channels || len(q.Shift) < outputShape.Channels {
		return cfu.NewError(cfu.StatusInvalidArgument, "per-channel quant arrays too small")
	}
	return nil
}
