// Package cfu defines the instruction-level contract of the conv2d
// accelerator CFU (custom function unit): the device operations, the
// register bindings per gateware generation, and the word-packing helpers
// shared by every device implementation.
package cfu

// Device is the instruction interface of the accelerator pipeline. The
// device holds exactly one live filter window, one live input window and a
// packed output FIFO; loading a new window invalidates the previous one.
//
// Callers must respect the pipeline's ordering contract:
//
//   - LoadFilter before any AdvanceFilterInput for that channel tile
//   - LoadInput before any AdvanceFilterInput for that spatial position
//   - AdvanceFilterInput / MultiplyAccumulate / PostProcess issued once per
//     output channel, in ascending channel order
//   - GetOutputWord must fully empty the FIFO for one spatial position
//     before the next LoadInput overwrites pipeline state
//
// Every operation is blocking and completes before the next is issued; the
// device is an exclusively-owned resource for the duration of one
// convolution call.
type Device interface {
	// Reset clears all device state: windows, parameters, accumulator
	// and output FIFO.
	Reset() error

	// LoadInputOffset loads the input zero-point offset added to every
	// input element during accumulation.
	LoadInputOffset(offset int32) error

	// SetOutputOffsets loads the output zero-point offset and the
	// activation clamp applied during post-processing.
	SetOutputOffsets(outputOffset, activationMin, activationMax int32) error

	// LoadOutputParams loads per-channel bias, multiplier and shift for
	// output channels [channelStart, channelStart+channelCount). The
	// slices are full-tensor arrays indexed by absolute output channel.
	LoadOutputParams(channelStart, channelCount int, bias, multiplier, shift []int32) error

	// LoadFilter loads filter weights for outputChannels consecutive
	// output channels. weights is laid out output-channel-major with each
	// channel's 4x4xinputDepth kernel contiguous.
	LoadFilter(inputDepth, outputChannels int, weights []int8) error

	// LoadInput loads one 4x4xinputDepth input window. data starts at the
	// window origin within an NHWC tensor of row stride
	// inputWidth*inputDepth and must cover at least four such rows.
	LoadInput(inputWidth, inputDepth int, data []int8) error

	// AdvanceFilterInput runs the given number of multiply-accumulate
	// iterations, each consuming 16 filter and 16 input elements.
	AdvanceFilterInput(iterations int) error

	// MultiplyAccumulate returns the accumulator value and resets it.
	MultiplyAccumulate() (int32, error)

	// PostProcess applies bias, per-channel requantization, output offset
	// and the activation clamp to an accumulator value, and routes the
	// resulting int8 toward the output FIFO.
	PostProcess(acc int32) error

	// GetOutputWord drains one packed word (4 x int8) from the output
	// FIFO, in post-process issue order.
	GetOutputWord() (uint32, error)
}
