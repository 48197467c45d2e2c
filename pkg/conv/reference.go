package conv

import "github.com/emergingrobotics/go-hps-accel/pkg/quant"

// ConvPerChannelReference computes a per-channel quantized convolution
// through the portable integer path. It handles arbitrary padding, stride
// and dilation, and is the golden oracle the accelerated path must match
// bit-for-bit on every shape both can handle.
func ConvPerChannelReference(params Params, q PerChannelQuant,
	inputShape Shape, input []int8,
	filterShape Shape, filter []int8,
	bias []int32,
	outputShape Shape, output []int8) error {

	if err := checkArgs(params, q, inputShape, input, filterShape, filter, bias, outputShape, output); err != nil {
		return err
	}

	inputDepth := inputShape.Channels
	for b := 0; b < outputShape.Batches; b++ {
		for outY := 0; outY < outputShape.Height; outY++ {
			inYOrigin := outY*params.StrideHeight - params.PaddingHeight
			for outX := 0; outX < outputShape.Width; outX++ {
				inXOrigin := outX*params.StrideWidth - params.PaddingWidth
				for outChannel := 0; outChannel < outputShape.Channels; outChannel++ {
					var acc int32
					for filterY := 0; filterY < filterShape.Height; filterY++ {
						inY := inYOrigin + params.DilationHeight*filterY
						if inY < 0 || inY >= inputShape.Height {
							continue
						}
						for filterX := 0; filterX < filterShape.Width; filterX++ {
							inX := inXOrigin + params.DilationWidth*filterX
							if inX < 0 || inX >= inputShape.Width {
								continue
							}
							inBase := inputShape.Offset(b, inY, inX, 0)
							filterBase := filterShape.Offset(outChannel, filterY, filterX, 0)
							for c := 0; c < inputDepth; c++ {
								inputVal := int32(input[inBase+c])
								filterVal := int32(filter[filterBase+c])
								// Padded positions are skipped above, which matches adding
								// zero: (input + offset) is zero exactly at the zero point.
								acc += filterVal * (inputVal + params.InputOffset)
							}
						}
					}
					if bias != nil {
						acc += bias[outChannel]
					}
					acc = quant.MultiplyByQuantizedMultiplier(acc,
						q.Multiplier[outChannel], q.Shift[outChannel])
					acc += params.OutputOffset
					acc = quant.Clamp(acc, params.ActivationMin, params.ActivationMax)
					output[outputShape.Offset(b, outY, outX, outChannel)] = int8(acc)
				}
			}
		}
	}
	return nil
}
