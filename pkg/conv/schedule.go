package conv

import (
	"fmt"

	"github.com/emergingrobotics/go-hps-accel/pkg/cfu"
)

// Tiling describes how output channels are partitioned across filter loads
// for one convolution call.
type Tiling struct {
	// MaxOutputChannelsPerLoad is the channel tile step: the largest
	// number of output channels whose filters fit on-chip at once,
	// rounded down to a multiple of 4.
	MaxOutputChannelsPerLoad int
	// FilterWordsPerOutputChannel is one output channel's filter
	// footprint in transfer words.
	FilterWordsPerOutputChannel int
	// InputWordsPerWindow is the per-position input window footprint in
	// transfer words.
	InputWordsPerWindow int
}

// PlanChannelTiling computes the channel tile size for the given input
// depth against a generation's on-chip capacities, and verifies the
// per-position input window fits the input store.
//
// The eligibility check combined with the known capacities guarantees a
// positive tile size for every supported configuration; a computed tile of
// zero or an oversized input window means the software constraints and the
// hardware constants disagree, which is a fatal configuration inconsistency
// rather than a shape to skip.
func PlanChannelTiling(gen cfu.Generation, inputDepth, outputDepth int) (Tiling, error) {
	if inputDepth < 1 {
		return Tiling{}, cfu.NewError(cfu.StatusInvalidArgument, "input depth must be at least 1")
	}
	if outputDepth < cfu.ChannelsPerWord || outputDepth%cfu.ChannelsPerWord != 0 {
		return Tiling{}, cfu.NewError(cfu.StatusInvalidArgument,
			fmt.Sprintf("output depth %d is not a positive multiple of %d", outputDepth, cfu.ChannelsPerWord))
	}
	t := Tiling{
		FilterWordsPerOutputChannel: cfu.FilterWordsPerOutputChannel(inputDepth),
		InputWordsPerWindow:         cfu.InputWordsPerWindow(inputDepth),
	}
	t.MaxOutputChannelsPerLoad = gen.MaxFilterWords / t.FilterWordsPerOutputChannel /
		cfu.ChannelsPerWord * cfu.ChannelsPerWord

	if t.MaxOutputChannelsPerLoad == 0 {
		return Tiling{}, cfu.NewError(cfu.StatusCapacityExceeded,
			fmt.Sprintf("channel tiling: input depth %d needs %d filter words per channel, %s holds %d",
				inputDepth, t.FilterWordsPerOutputChannel, gen.Name, gen.MaxFilterWords))
	}
	if t.MaxOutputChannelsPerLoad > outputDepth {
		t.MaxOutputChannelsPerLoad = outputDepth
	}
	if t.InputWordsPerWindow > gen.MaxInputWords {
		return Tiling{}, cfu.NewError(cfu.StatusCapacityExceeded,
			fmt.Sprintf("input window: %d words exceeds %s input store of %d",
				t.InputWordsPerWindow, gen.Name, gen.MaxInputWords))
	}
	return t, nil
}

// TileChannels returns the channel count of the tile starting at
// channelOffset, the last tile being the remainder.
func (t Tiling) TileChannels(channelOffset, outputDepth int) int {
	remaining := outputDepth - channelOffset
	if remaining < t.MaxOutputChannelsPerLoad {
		return remaining
	}
	return t.MaxOutputChannelsPerLoad
}
