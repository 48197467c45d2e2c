//go:build unit

package conv

import (
	"errors"
	"testing"

	"github.com/emergingrobotics/go-hps-accel/pkg/cfu"
)

func TestPlanChannelTiling(t *testing.T) {
	tests := []struct {
		name        string
		gen         cfu.Generation
		inputDepth  int
		outputDepth int
		expected    int
	}{
		// gen1 holds 2048 filter words
		{"depth 1", cfu.Gen1, 1, 512, 512},    // 4 words/channel
		{"depth 4", cfu.Gen1, 4, 256, 128},    // 16 words/channel
		{"depth 8", cfu.Gen1, 8, 256, 64},     // 32 words/channel
		{"depth 16", cfu.Gen1, 16, 64, 32},    // 64 words/channel
		{"depth 128", cfu.Gen1, 128, 8, 4},    // 512 words/channel
		{"clamped to output depth", cfu.Gen1, 4, 8, 8},
		{"gen2 depth 8", cfu.Gen2, 8, 256, 128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiling, err := PlanChannelTiling(tt.gen, tt.inputDepth, tt.outputDepth)
			if err != nil {
				t.Fatalf("PlanChannelTiling failed: %v", err)
			}
			got := tiling.MaxOutputChannelsPerLoad
			if got != tt.expected {
				t.Errorf("MaxOutputChannelsPerLoad = %d, expected %d", got, tt.expected)
			}
			if got <= 0 || got%cfu.ChannelsPerWord != 0 {
				t.Errorf("tile size %d is not a positive multiple of %d",
					got, cfu.ChannelsPerWord)
			}
			if got > tt.outputDepth {
				t.Errorf("tile size %d exceeds output depth %d", got, tt.outputDepth)
			}
			if tiling.InputWordsPerWindow > tt.gen.MaxInputWords {
				t.Errorf("input window %d words exceeds %s input store",
					tiling.InputWordsPerWindow, tt.gen.Name)
			}
		})
	}
}

func TestPlanChannelTilingCapacityInconsistency(t *testing.T) {
	// A gateware generation too small for even one channel group is a
	// configuration inconsistency, not a shape to skip.
	tiny := cfu.Generation{Name: "tiny", MaxFilterWords: 8, MaxInputWords: 512}
	_, err := PlanChannelTiling(tiny, 8, 64)
	if !errors.Is(err, cfu.NewError(cfu.StatusCapacityExceeded, "")) {
		t.Errorf("expected capacity error, got %v", err)
	}
}

func TestPlanChannelTilingInputWindowTooLarge(t *testing.T) {
	small := cfu.Generation{Name: "small-input", MaxFilterWords: 1 << 20, MaxInputWords: 16}
	_, err := PlanChannelTiling(small, 8, 64) // window needs 32 words
	if !errors.Is(err, cfu.NewError(cfu.StatusCapacityExceeded, "")) {
		t.Errorf("expected capacity error, got %v", err)
	}
}

func TestPlanChannelTilingBadArguments(t *testing.T) {
	if _, err := PlanChannelTiling(cfu.Gen1, 0, 64); !errors.Is(err, cfu.NewError(cfu.StatusInvalidArgument, "")) {
		t.Errorf("zero input depth: expected invalid argument, got %v", err)
	}
	if _, err := PlanChannelTiling(cfu.Gen1, 4, 66); !errors.Is(err, cfu.NewError(cfu.StatusInvalidArgument, "")) {
		t.Errorf("unaligned output depth: expected invalid argument, got %v", err)
	}
}

func TestTileChannels(t *testing.T) {
	tiling := Tiling{MaxOutputChannelsPerLoad: 64}
	tests := []struct {
		channelOffset int
		outputDepth   int
		expected      int
	}{
		{0, 68, 64}, // full first tile
		{64, 68, 4}, // remainder tile
		{0, 64, 64}, // exact fit
		{0, 8, 8},   // single short tile
	}
	for _, tt := range tests {
		got := tiling.TileChannels(tt.channelOffset, tt.outputDepth)
		if got != tt.expected {
			t.Errorf("TileChannels(%d, %d) = %d, expected %d",
				tt.channelOffset, tt.outputDepth, got, tt.expected)
		}
	}
}
