package conv

import "github.com/emergingrobotics/go-hps-accel/pkg/cfu"

// ConvPerChannel runs one per-channel quantized convolution, offloading to
// the accelerator when the shape class allows it and falling back to the
// reference path otherwise. Both paths produce bit-identical output for any
// shape both can handle.
//
// Accelerated reports whether the hardware path was taken.
func ConvPerChannel(dev cfu.Device, gen cfu.Generation,
	params Params, q PerChannelQuant,
	inputShape Shape, input []int8,
	filterShape Shape, filter []int8,
	bias []int32,
	outputShape Shape, output []int8) (accelerated bool, err error) {

	if dev != nil && CanAccelerate(params, inputShape, filterShape, outputShape, bias) {
		err = ConvPerChannel4x4(dev, gen, params, q,
			inputShape, input, filterShape, filter, bias, outputShape, output)
		return true, err
	}
	err = ConvPerChannelReference(params, q,
		inputShape, input, filterShape, filter, bias, outputShape, output)
	return false, err
}
