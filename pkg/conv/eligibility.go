package conv

import "github.com/emergingrobotics/go-hps-accel/pkg/cfu"

// CanAccelerate reports whether a convolution can run on the accelerator
// pipeline. The pipeline is physically wired for a 4x4 kernel window and
// word-aligned channel packing, so it accepts only:
//
//   - valid padding (no implicit zero-padding)
//   - input depth 1 or a multiple of 4
//   - output depth a multiple of 4 (the FIFO drains whole words)
//   - a 4x4 filter
//   - dilation (1, 1)
//   - batch size 1
//   - a present bias tensor
//
// Rejection is not an error: the caller silently routes the convolution
// through the reference path instead.
func CanAccelerate(params Params, inputShape, filterShape, outputShape Shape, bias []int32) bool {
	inputDepth := inputShape.Channels
	return params.Padding == PaddingValid &&
		(inputDepth == 1 || inputDepth%cfu.ChannelsPerWord == 0) &&
		outputShape.Channels > 0 &&
		outputShape.Channels%cfu.ChannelsPerWord == 0 &&
		filterShape.Width == cfu.FilterWidth &&
		filterShape.Height == cfu.FilterHeight &&
		params.DilationWidth == 1 &&
		params.DilationHeight == 1 &&
		inputShape.Batches == 1 &&
		outputShape.Batches == 1 &&
		bias != nil
}
