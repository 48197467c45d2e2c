//go:build unit

package sim

import (
	"errors"
	"testing"

	"github.com/emergingrobotics/go-hps-accel/pkg/cfu"
)

// tile of one output channel at depth 4: kernel volume 64, all ones
func loadOnesTile(t *testing.T, d *Device) {
	t.Helper()
	weights := make([]int8, 64)
	for i := range weights {
		weights[i] = 1
	}
	if err := d.LoadFilter(4, 1, weights); err != nil {
		t.Fatalf("LoadFilter failed: %v", err)
	}
}

// 8x8x4 input of all twos, window at the origin
func loadTwosWindow(t *testing.T, d *Device) {
	t.Helper()
	input := make([]int8, 8*8*4)
	for i := range input {
		input[i] = 2
	}
	if err := d.LoadInput(8, 4, input); err != nil {
		t.Fatalf("LoadInput failed: %v", err)
	}
}

func TestAccumulateKnownValue(t *testing.T) {
	d := New(cfu.Gen1)
	if err := d.LoadInputOffset(3); err != nil {
		t.Fatalf("LoadInputOffset failed: %v", err)
	}
	loadOnesTile(t, d)
	loadTwosWindow(t, d)

	if err := d.AdvanceFilterInput(cfu.MaccIterations(4)); err != nil {
		t.Fatalf("AdvanceFilterInput failed: %v", err)
	}
	acc, err := d.MultiplyAccumulate()
	if err != nil {
		t.Fatalf("MultiplyAccumulate failed: %v", err)
	}
	// 64 taps of 1 * (2 + 3)
	if acc != 320 {
		t.Errorf("accumulator = %d, expected 320", acc)
	}

	// Reading the accumulator resets it
	acc, err = d.MultiplyAccumulate()
	if err != nil {
		t.Fatalf("MultiplyAccumulate failed: %v", err)
	}
	if acc != 0 {
		t.Errorf("accumulator after read = %d, expected 0", acc)
	}
}

func TestPostProcessAndDrain(t *testing.T) {
	d := New(cfu.Gen1)
	if err := d.SetOutputOffsets(-3, -128, 127); err != nil {
		t.Fatalf("SetOutputOffsets failed: %v", err)
	}
	bias := []int32{10, 20, 30, 40}
	// multiplier 2^30 shift +1 is an exact identity
	mult := []int32{1 << 30, 1 << 30, 1 << 30, 1 << 30}
	shift := []int32{1, 1, 1, 1}
	if err := d.LoadOutputParams(0, 4, bias, mult, shift); err != nil {
		t.Fatalf("LoadOutputParams failed: %v", err)
	}

	for ch := 0; ch < 4; ch++ {
		if err := d.PostProcess(100); err != nil {
			t.Fatalf("PostProcess failed: %v", err)
		}
	}
	if d.PendingOutputWords() != 1 {
		t.Fatalf("expected 1 pending word, got %d", d.PendingOutputWords())
	}

	word, err := d.GetOutputWord()
	if err != nil {
		t.Fatalf("GetOutputWord failed: %v", err)
	}
	b0, b1, b2, b3 := cfu.UnpackWord(word)
	// 100 + bias, identity requantize, -3 output offset, clamped to 127
	want := [4]int8{107, 117, 127, 127}
	got := [4]int8{b0, b1, b2, b3}
	if got != want {
		t.Errorf("drained %v, expected %v", got, want)
	}
}

func TestSequenceErrors(t *testing.T) {
	t.Run("advance before filter load", func(t *testing.T) {
		d := New(cfu.Gen1)
		err := d.AdvanceFilterInput(1)
		if !errors.Is(err, cfu.NewError(cfu.StatusSequenceError, "")) {
			t.Errorf("expected sequence error, got %v", err)
		}
	})

	t.Run("advance before input load", func(t *testing.T) {
		d := New(cfu.Gen1)
		loadOnesTile(t, d)
		err := d.AdvanceFilterInput(1)
		if !errors.Is(err, cfu.NewError(cfu.StatusSequenceError, "")) {
			t.Errorf("expected sequence error, got %v", err)
		}
	})

	t.Run("post-process before param load", func(t *testing.T) {
		d := New(cfu.Gen1)
		err := d.PostProcess(0)
		if !errors.Is(err, cfu.NewError(cfu.StatusSequenceError, "")) {
			t.Errorf("expected sequence error, got %v", err)
		}
	})

	t.Run("drain empty FIFO", func(t *testing.T) {
		d := New(cfu.Gen1)
		_, err := d.GetOutputWord()
		if !errors.Is(err, cfu.NewError(cfu.StatusFifoEmpty, "")) {
			t.Errorf("expected FIFO empty error, got %v", err)
		}
	})
}

func TestCapacityErrors(t *testing.T) {
	t.Run("filter store overflow", func(t *testing.T) {
		d := New(cfu.Gen1)
		// 256 channels at depth 8 needs 8192 words, gen1 holds 2048
		weights := make([]int8, 256*8*16)
		err := d.LoadFilter(8, 256, weights)
		if !errors.Is(err, cfu.NewError(cfu.StatusCapacityExceeded, "")) {
			t.Errorf("expected capacity error, got %v", err)
		}
	})

	t.Run("input store overflow", func(t *testing.T) {
		d := New(cfu.Gen1)
		// depth 256 window needs 1024 words, gen1 holds 512
		input := make([]int8, 8*8*256)
		err := d.LoadInput(8, 256, input)
		if !errors.Is(err, cfu.NewError(cfu.StatusCapacityExceeded, "")) {
			t.Errorf("expected capacity error, got %v", err)
		}
	})
}

func TestWindowOverwrite(t *testing.T) {
	d := New(cfu.Gen1)
	loadOnesTile(t, d)

	input := make([]int8, 8*8*4)
	for i := range input {
		input[i] = 1
	}
	if err := d.LoadInput(8, 4, input); err != nil {
		t.Fatalf("LoadInput failed: %v", err)
	}
	if err := d.AdvanceFilterInput(2); err != nil {
		t.Fatalf("AdvanceFilterInput failed: %v", err)
	}

	// A new input load discards the partial accumulation
	loadTwosWindow(t, d)
	if err := d.AdvanceFilterInput(cfu.MaccIterations(4)); err != nil {
		t.Fatalf("AdvanceFilterInput failed: %v", err)
	}
	acc, err := d.MultiplyAccumulate()
	if err != nil {
		t.Fatalf("MultiplyAccumulate failed: %v", err)
	}
	if acc != 128 { // 64 taps of 1 * 2, offset 0
		t.Errorf("accumulator = %d, expected 128", acc)
	}
}

func TestResetClearsState(t *testing.T) {
	d := New(cfu.Gen1)
	loadOnesTile(t, d)
	loadTwosWindow(t, d)
	if err := d.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	err := d.AdvanceFilterInput(1)
	if !errors.Is(err, cfu.NewError(cfu.StatusSequenceError, "")) {
		t.Errorf("expected sequence error after reset, got %v", err)
	}
}
