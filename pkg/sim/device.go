// Package sim provides a functional model of the conv2d accelerator
// gateware. It implements the cfu.Device contract bit-exactly - same MAC
// order, same post-process arithmetic, same FIFO order - so the pipeline
// driver can be exercised and validated without hardware. Ordering
// violations that would be undefined behavior on silicon surface here as
// sequence errors.
package sim

import (
	"fmt"

	"github.com/emergingrobotics/go-hps-accel/pkg/cfu"
	"github.com/emergingrobotics/go-hps-accel/pkg/quant"
)

// FifoDepthWords is the output FIFO capacity of the modeled gateware
const FifoDepthWords = 512

// Device is a software model of one accelerator instance
type Device struct {
	gen cfu.Generation

	inputOffset   int32
	outputOffset  int32
	activationMin int32
	activationMax int32

	// Loaded filter window, flattened output-channel-major. A new load
	// invalidates the previous window.
	filter    []int8
	filterPos int

	// Loaded input window, flattened (y, x, depth). A new load resets the
	// window cursor and the accumulator.
	window    []int8
	windowPos int

	acc int32

	// Per-tile post-process parameters
	bias       []int32
	multiplier []int32
	shift      []int32
	ppChannels int
	ppIndex    int

	fifo []int8
}

// New creates a simulated device for the given gateware generation
func New(gen cfu.Generation) *Device {
	return &Device{gen: gen}
}

// Generation returns the modeled gateware generation
func (d *Device) Generation() cfu.Generation {
	return d.gen
}

// Reset clears all device state
func (d *Device) Reset() error {
	*d = Device{gen: d.gen}
	return nil
}

// LoadInputOffset loads the input zero-point offset
func (d *Device) LoadInputOffset(offset int32) error {
	d.inputOffset = offset
	return nil
}

// SetOutputOffsets loads the output zero-point offset and activation clamp
func (d *Device) SetOutputOffsets(outputOffset, activationMin, activationMax int32) error {
	if activationMin > activationMax {
		return cfu.NewError(cfu.StatusInvalidArgument, "activation min above max")
	}
	d.outputOffset = outputOffset
	d.activationMin = activationMin
	d.activationMax = activationMax
	return nil
}

// LoadOutputParams loads per-channel bias, multiplier and shift for the
// current channel tile
func (d *Device) LoadOutputParams(channelStart, channelCount int, bias, multiplier, shift []int32) error {
	if channelStart < 0 || channelCount <= 0 {
		return cfu.NewError(cfu.StatusInvalidArgument, "bad output param range")
	}
	end := channelStart + channelCount
	if end > len(bias) || end > len(multiplier) || end > len(shift) {
		return cfu.NewError(cfu.StatusInvalidArgument, "output param arrays too small")
	}
	d.bias = append(d.bias[:0], bias[channelStart:end]...)
	d.multiplier = append(d.multiplier[:0], multiplier[channelStart:end]...)
	d.shift = append(d.shift[:0], shift[channelStart:end]...)
	d.ppChannels = channelCount
	d.ppIndex = 0
	return nil
}

// LoadFilter loads filter weights for one channel tile
func (d *Device) LoadFilter(inputDepth, outputChannels int, weights []int8) error {
	if inputDepth < 1 || outputChannels < 1 {
		return cfu.NewError(cfu.StatusInvalidArgument, "bad filter geometry")
	}
	words := outputChannels * cfu.FilterWordsPerOutputChannel(inputDepth)
	if words > d.gen.MaxFilterWords {
		return cfu.NewError(cfu.StatusCapacityExceeded,
			fmt.Sprintf("filter load of %d words exceeds %s store of %d",
				words, d.gen.Name, d.gen.MaxFilterWords))
	}
	size := outputChannels * cfu.FilterHeight * cfu.FilterWidth * inputDepth
	if len(weights) < size {
		return cfu.NewError(cfu.StatusInvalidArgument, "filter buffer too small for load")
	}
	d.filter = append(d.filter[:0], weights[:size]...)
	d.filterPos = 0
	return nil
}

// LoadInput loads one 4x4xinputDepth input window. data starts at the
// window origin inside an NHWC tensor with row stride inputWidth*inputDepth.
func (d *Device) LoadInput(inputWidth, inputDepth int, data []int8) error {
	if inputWidth < cfu.FilterWidth || inputDepth < 1 {
		return cfu.NewError(cfu.StatusInvalidArgument, "bad input geometry")
	}
	words := cfu.InputWordsPerWindow(inputDepth)
	if words > d.gen.MaxInputWords {
		return cfu.NewError(cfu.StatusCapacityExceeded,
			fmt.Sprintf("input window of %d words exceeds %s store of %d",
				words, d.gen.Name, d.gen.MaxInputWords))
	}
	rowStride := inputWidth * inputDepth
	rowLen := cfu.FilterWidth * inputDepth
	need := (cfu.FilterHeight-1)*rowStride + rowLen
	if len(data) < need {
		return cfu.NewError(cfu.StatusInvalidArgument, "input buffer too small for window")
	}
	d.window = d.window[:0]
	for y := 0; y < cfu.FilterHeight; y++ {
		row := data[y*rowStride:]
		d.window = append(d.window, row[:rowLen]...)
	}
	d.windowPos = 0
	d.acc = 0
	return nil
}

// AdvanceFilterInput runs multiply-accumulate iterations against the loaded
// filter and input windows
func (d *Device) AdvanceFilterInput(iterations int) error {
	if len(d.filter) == 0 {
		return cfu.NewError(cfu.StatusSequenceError, "advance before filter load")
	}
	if len(d.window) == 0 {
		return cfu.NewError(cfu.StatusSequenceError, "advance before input load")
	}
	if iterations < 1 {
		return cfu.NewError(cfu.StatusInvalidArgument, "iterations must be at least 1")
	}
	for n := 0; n < iterations*cfu.MaccInputSize; n++ {
		f := int32(d.filter[d.filterPos])
		in := int32(d.window[d.windowPos])
		d.acc += f * (in + d.inputOffset)
		d.filterPos = (d.filterPos + 1) % len(d.filter)
		d.windowPos = (d.windowPos + 1) % len(d.window)
	}
	return nil
}

// MultiplyAccumulate returns the accumulator and resets it
func (d *Device) MultiplyAccumulate() (int32, error) {
	acc := d.acc
	d.acc = 0
	return acc, nil
}

// PostProcess applies bias, requantization, output offset and the
// activation clamp, and pushes the resulting int8 onto the output FIFO. The
// per-channel parameter pointer advances on each call, wrapping at the tile
// boundary.
func (d *Device) PostProcess(acc int32) error {
	if d.ppChannels == 0 {
		return cfu.NewError(cfu.StatusSequenceError, "post-process before output param load")
	}
	if len(d.fifo) >= FifoDepthWords*cfu.ChannelsPerWord {
		return cfu.NewError(cfu.StatusFifoOverflow, "post-process")
	}
	ch := d.ppIndex
	d.ppIndex = (d.ppIndex + 1) % d.ppChannels

	acc += d.bias[ch]
	acc = quant.MultiplyByQuantizedMultiplier(acc, d.multiplier[ch], d.shift[ch])
	acc += d.outputOffset
	acc = quant.Clamp(acc, d.activationMin, d.activationMax)
	d.fifo = append(d.fifo, int8(acc))
	return nil
}

// GetOutputWord drains one packed word from the output FIFO
func (d *Device) GetOutputWord() (uint32, error) {
	if len(d.fifo) < cfu.ChannelsPerWord {
		return 0, cfu.NewError(cfu.StatusFifoEmpty, "get output word")
	}
	w := cfu.PackWord(d.fifo[0], d.fifo[1], d.fifo[2], d.fifo[3])
	d.fifo = d.fifo[cfu.ChannelsPerWord:]
	return w, nil
}

// PendingOutputWords returns the number of complete words waiting in the
// output FIFO. Test hook; real gateware exposes no such view.
func (d *Device) PendingOutputWords() int {
	return len(d.fifo) / cfu.ChannelsPerWord
}
