package conv

import (
	"fmt"

	"github.com/emergingrobotics/go-hps-accel/pkg/cfu"
)

// ConvPerChannel4x4 executes a per-channel quantized convolution on the
// accelerator pipeline. The caller must have passed CanAccelerate; shapes
// that slipped past it are rejected here with an invalid-argument error
// rather than producing wrong output.
//
// The driver walks channel tiles, output rows and output columns. Each tile
// gets one filter and output-parameter load; each spatial position gets one
// input window load, one advance/accumulate/post-process sequence per output
// channel in ascending order, and a full FIFO drain before the next load.
func ConvPerChannel4x4(dev cfu.Device, gen cfu.Generation,
	params Params, q PerChannelQuant,
	inputShape Shape, input []int8,
	filterShape Shape, filter []int8,
	bias []int32,
	outputShape Shape, output []int8) error {

	if err := checkArgs(params, q, inputShape, input, filterShape, filter, bias, outputShape, output); err != nil {
		return err
	}
	if !CanAccelerate(params, inputShape, filterShape, outputShape, bias) {
		return cfu.NewError(cfu.StatusInvalidArgument, "shape not eligible for acceleration")
	}

	inputDepth := inputShape.Channels
	outputDepth := outputShape.Channels
	tiling, err := PlanChannelTiling(gen, inputDepth, outputDepth)
	if err != nil {
		return err
	}

	if err := dev.Reset(); err != nil {
		return err
	}
	if err := dev.LoadInputOffset(params.InputOffset); err != nil {
		return err
	}
	if err := dev.SetOutputOffsets(params.OutputOffset,
		params.ActivationMin, params.ActivationMax); err != nil {
		return err
	}

	iterations := cfu.MaccIterations(inputDepth)

	for channelOffset := 0; channelOffset < outputDepth; channelOffset += tiling.MaxOutputChannelsPerLoad {
		outputChannels := tiling.TileChannels(channelOffset, outputDepth)

		filterBase := filterShape.Offset(channelOffset, 0, 0, 0)
		if err := dev.LoadFilter(inputDepth, outputChannels, filter[filterBase:]); err != nil {
			return err
		}
		if err := dev.LoadOutputParams(channelOffset, outputChannels,
			bias, q.Multiplier, q.Shift); err != nil {
			return err
		}

		for outY := 0; outY < outputShape.Height; outY++ {
			inYOrigin := outY * params.StrideHeight
			// Valid padding: the window must lie fully inside the input.
			if inYOrigin+cfu.FilterHeight > inputShape.Height {
				return cfu.NewError(cfu.StatusInvalidArgument,
					fmt.Sprintf("input window row overrun at out_y=%d", outY))
			}
			for outX := 0; outX < outputShape.Width; outX++ {
				inXOrigin := outX * params.StrideWidth
				if inXOrigin+cfu.FilterWidth > inputShape.Width {
					return cfu.NewError(cfu.StatusInvalidArgument,
						fmt.Sprintf("input window column overrun at out_x=%d", outX))
				}

				inBase := inputShape.Offset(0, inYOrigin, inXOrigin, 0)
				if err := dev.LoadInput(inputShape.Width, inputDepth, input[inBase:]); err != nil {
					return err
				}

				// All outputs for a single output pixel, ascending
				// channel order to match the FIFO drain order.
				for ch := 0; ch < outputChannels; ch++ {
					if err := dev.AdvanceFilterInput(iterations); err != nil {
						return err
					}
					acc, err := dev.MultiplyAccumulate()
					if err != nil {
						return err
					}
					if err := dev.PostProcess(acc); err != nil {
						return err
					}
				}

				// Drain the FIFO completely before the next input load
				// overwrites pipeline state.
				outBase := outputShape.Offset(0, outY, outX, channelOffset)
				for i := 0; i < outputChannels; i += cfu.ChannelsPerWord {
					word, err := dev.GetOutputWord()
					if err != nil {
						return err
					}
					b0, b1, b2, b3 := cfu.UnpackWord(word)
					output[outBase+i] = b0
					output[outBase+i+1] = b1
					output[outBase+i+2] = b2
					output[outBase+i+3] = b3
				}
			}
		}
	}
	return nil
}
